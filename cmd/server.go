// Server = reservation store + admission + asset registry + ledger + journal + http reporter.
// All components are configured via environment variables (strings!) or a config file.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/faucet-go/admission"
	"github.com/TEENet-io/faucet-go/agreement"
	"github.com/TEENet-io/faucet-go/breaker"
	"github.com/TEENet-io/faucet-go/chaintxmgr"
	"github.com/TEENet-io/faucet-go/chaintxmgrdb"
	"github.com/TEENet-io/faucet-go/common"
	"github.com/TEENet-io/faucet-go/metrics"
	"github.com/TEENet-io/faucet-go/registry"
	"github.com/TEENet-io/faucet-go/reporter"
	"github.com/TEENet-io/faucet-go/reservation"
)

// Default params for server.
// More often we don't recommend users to tweak those.
// So we list them here.
const (
	DEFAULT_HTTP_PORT = "3000"

	ChainKindCosmos = "cosmos"
	ChainKindEvm    = "evm"
	ChainKindAptos  = "aptos"

	BackendMemory = "memory"
	BackendRedis  = "redis"

	// journal pruning runs once an hour
	pruneSchedule = "@hourly"

	// window after which an in flight mint is abandoned at shutdown
	shutdownGrace = 45 * time.Second
)

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type FaucetServerConfig struct {
	// Http side
	HttpIp         string   // eg. 0.0.0.0
	HttpPort       string   // eg. 3000
	TrustedProxies []string // empty trusts no proxy
	BurstRPS       float64  // per client request rate, 0 disables the guard
	BurstSize      int

	// admission side
	RateLimitWindow    time.Duration // default 24h
	SweepSchedule      string        // cron spec for the in-memory sweep
	ReservationBackend string        // memory | redis
	RedisAddr          string
	RedisPassword      string
	RedisDb            int
	StatsEnabled       bool // per asset decision counters in redis

	// confirmation side
	ConfirmMaxAttempts int
	ConfirmInterval    time.Duration

	// journal side
	DbFilePath       string        // sqlite file, ":memory:" keeps nothing
	JournalRetention time.Duration // 0 keeps rows forever

	// ledger side, ChainKind "" runs stub assets only
	ChainKind            string // cosmos | evm | aptos
	LcdUrl               string
	Mnemonic             string
	ChainId              string
	Bech32Prefix         string
	GasPrice             string
	GasLimit             uint64
	EthRpcUrl            string
	EthCoreAccountPriv   string
	AptosNetwork         string // mainnet | testnet | devnet
	AptosRpcUrl          string
	AptosCoreAccountPriv string

	Assets []registry.AssetConfig
}

// FaucetServer holds the objects that consists of the faucet server.
type FaucetServer struct {
	Store      reservation.Store
	Admission  *admission.Controller
	Registry   *registry.Registry
	Ledger     *breaker.Ledger // nil in stub only mode
	Journal    *chaintxmgrdb.SQLiteMintJournal
	Metrics    *metrics.Metrics
	Poller     *chaintxmgr.Poller
	Dispatcher *chaintxmgr.Dispatcher
	Throttle   *reporter.Throttle
	Reporter   *reporter.HttpReporter

	cron  *cron.Cron
	redis redis.UniversalClient
}

// NewFaucetServer wires every component but starts nothing.
// ctx bounds the confirmation polling of dispatched mints.
func NewFaucetServer(ctx context.Context, fsc *FaucetServerConfig) (*FaucetServer, error) {
	s := &FaucetServer{cron: cron.New()}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	s.Metrics = metrics.New()

	// 1) reservation store + admission controller
	var stats admission.StatsRecorder = s.Metrics
	switch fsc.ReservationBackend {
	case BackendMemory, "":
		mem := reservation.NewMemoryStore(fsc.RateLimitWindow)
		if _, err := reservation.ScheduleSweep(s.cron, fsc.SweepSchedule, mem); err != nil {
			return nil, fmt.Errorf("invalid sweep schedule %q: %w", fsc.SweepSchedule, err)
		}
		s.Store = mem
	case BackendRedis:
		rdb, err := SetupRedis(ctx, fsc.RedisAddr, fsc.RedisPassword, fsc.RedisDb)
		if err != nil {
			return nil, err
		}
		s.redis = rdb
		s.Store = reservation.NewRedisStore(rdb, fsc.RateLimitWindow)
		if fsc.StatsEnabled {
			stats = admission.MultiStats{s.Metrics, admission.NewRedisStats(rdb)}
		}
	default:
		return nil, fmt.Errorf("unknown reservation backend %q", fsc.ReservationBackend)
	}
	s.Admission = admission.NewController(s.Store, stats)

	// 2) ledger: wallet for submissions, client for confirmations
	var wallet agreement.Wallet
	var ledger agreement.LedgerClient
	var addresses common.AddressValidator
	switch fsc.ChainKind {
	case ChainKindCosmos:
		tm, err := SetupTerraman(fsc)
		if err != nil {
			return nil, err
		}
		s.Ledger = breaker.New(breaker.Config{Name: "lcd"}, tm, tm)
		addresses = common.Bech32Validator{Prefix: tm.Prefix()}
	case ChainKindEvm:
		em, err := SetupEtherman(ctx, fsc)
		if err != nil {
			return nil, err
		}
		s.Ledger = breaker.New(breaker.Config{Name: "evm"}, em, em)
		addresses = common.EvmValidator{}
	case ChainKindAptos:
		am, err := SetupAptosman(fsc)
		if err != nil {
			return nil, err
		}
		s.Ledger = breaker.New(breaker.Config{Name: "aptos"}, am, am)
		addresses = common.AptosValidator{}
	case "":
		logger.Warn("no chain configured, only stub assets can be served")
		ledger = offlineLedger{}
		prefix := fsc.Bech32Prefix
		if prefix == "" {
			prefix = "terra"
		}
		addresses = common.Bech32Validator{Prefix: prefix}
	default:
		return nil, fmt.Errorf("unknown chain kind %q", fsc.ChainKind)
	}
	if s.Ledger != nil {
		wallet, ledger = s.Ledger, s.Ledger
		logger.WithField("address", s.Ledger.Address()).Info("faucet account")
	}

	// 3) asset registry, frozen once built
	// an explicit table must be fully served, the default one shrinks to its stubs
	assets := fsc.Assets
	if len(assets) == 0 {
		assets = registry.DefaultAssets()
		if wallet == nil {
			assets = registry.StubAssets(assets)
		}
	}
	reg, err := registry.Build(assets, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to build asset registry: %w", err)
	}
	s.Registry = reg
	logger.WithField("assets", reg.Names()).Info("asset registry ready")

	// 4) mint journal
	dbPath := fsc.DbFilePath
	if dbPath == "" {
		dbPath = ":memory:"
	}
	s.Journal, err = chaintxmgrdb.NewSQLiteMintJournal(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open mint journal: %w", err)
	}
	if fsc.JournalRetention > 0 {
		if _, err := s.cron.AddFunc(pruneSchedule, func() { s.prune(fsc.JournalRetention) }); err != nil {
			return nil, err
		}
	}

	// 5) dispatcher + confirmation poller
	mintReporter := chaintxmgr.MultiReporter{chaintxmgr.LogReporter{}, s.Journal, s.Metrics}
	s.Poller = chaintxmgr.NewPoller(&chaintxmgr.PollerConfig{
		MaxAttempts: fsc.ConfirmMaxAttempts,
		Interval:    fsc.ConfirmInterval,
	}, ledger, s.Admission, mintReporter)
	s.Dispatcher = chaintxmgr.NewDispatcher(ctx, s.Registry, s.Poller, s.Admission, mintReporter)

	// 6) http reporter
	if fsc.BurstRPS > 0 {
		s.Throttle = reporter.NewThrottle(fsc.BurstRPS, fsc.BurstSize)
		if _, err := reservation.ScheduleSweep(s.cron, fsc.SweepSchedule, s.Throttle); err != nil {
			return nil, err
		}
	}
	s.Reporter = reporter.NewHttpReporter(&reporter.HttpReporterConfig{
		ServerIP:       fsc.HttpIp,
		ServerPort:     fsc.HttpPort,
		TrustedProxies: fsc.TrustedProxies,
		BurstRPS:       fsc.BurstRPS,
		BurstSize:      fsc.BurstSize,
	}, reporter.Backend{
		Admission:  s.Admission,
		Dispatcher: s.Dispatcher,
		Assets:     s.Registry,
		Addresses:  addresses,
		Journal:    s.Journal,
		Metrics:    s.Metrics.Handler(),
		Throttle:   s.Throttle,
	})

	ok = true
	return s, nil
}

func (s *FaucetServer) prune(retention time.Duration) {
	n, err := s.Journal.Prune(time.Now().Add(-retention))
	if err != nil {
		logger.Errorf("failed to prune mint journal: err=%v", err)
		return
	}
	if n > 0 {
		logger.WithField("rows", n).Info("pruned mint journal")
	}
}

// Run serves http until ctx is cancelled, then waits for in flight mints.
func (s *FaucetServer) Run(ctx context.Context) error {
	s.cron.Start()
	err := s.Reporter.Run(ctx)
	<-s.cron.Stop().Done()

	done := make(chan struct{})
	go func() {
		s.Dispatcher.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		logger.Warn("gave up waiting for in flight mints")
	}
	return err
}

// Close releases the journal and the redis connection.
func (s *FaucetServer) Close() error {
	var errs []error
	if s.Journal != nil {
		errs = append(errs, s.Journal.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	return errors.Join(errs...)
}

// Create, then start the faucet server and wait.
// Press Ctrl-C to kill the server.
func StartFaucetServerAndWait(fsc *FaucetServerConfig) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := NewFaucetServer(ctx, fsc)
	if err != nil {
		logger.Fatalf("failed to create faucet server: %v", err)
		return
	}
	defer s.Close()

	if err := s.Run(ctx); err != nil {
		logger.Errorf("faucet server stopped: %v", err)
		return
	}
	logger.Info("faucet server stopped")
}
