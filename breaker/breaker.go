// Package breaker puts a circuit breaker in front of the ledger, so a dead
// node fails submissions fast instead of stalling every mint task.
package breaker

import (
	"context"
	"errors"
	"math/big"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/TEENet-io/faucet-go/agreement"
)

var ErrOpen = errors.New("ledger circuit open")

type Config struct {
	Name string

	// consecutive failures that open the circuit
	MaxFailures uint32

	// how long the circuit stays open before probing again
	OpenTimeout time.Duration
}

func (cfg *Config) settings() gobreaker.Settings {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	timeout := cfg.OpenTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logger.Fields{
				"name": name,
				"from": from.String(),
				"to":   to.String(),
			}).Warn("ledger circuit breaker state changed")
		},
	}
}

// Ledger guards a Wallet and a LedgerClient with a breaker each.
// Failed submissions never block confirmations of txs already sent.
type Ledger struct {
	wallet   agreement.Wallet
	client   agreement.LedgerClient
	walletCb *gobreaker.CircuitBreaker
	clientCb *gobreaker.CircuitBreaker
}

var _ agreement.Wallet = (*Ledger)(nil)
var _ agreement.LedgerClient = (*Ledger)(nil)

// New wraps wallet and client. Either may be nil when unused.
func New(cfg Config, wallet agreement.Wallet, client agreement.LedgerClient) *Ledger {
	walletCfg, clientCfg := cfg, cfg
	walletCfg.Name = cfg.Name + "-submit"
	clientCfg.Name = cfg.Name + "-query"
	return &Ledger{
		wallet:   wallet,
		client:   client,
		walletCb: gobreaker.NewCircuitBreaker(walletCfg.settings()),
		clientCb: gobreaker.NewCircuitBreaker(clientCfg.settings()),
	}
}

// State of the submission circuit.
func (l *Ledger) State() gobreaker.State {
	return l.walletCb.State()
}

// QueryState of the confirmation circuit.
func (l *Ledger) QueryState() gobreaker.State {
	return l.clientCb.State()
}

func execute(cb *gobreaker.CircuitBreaker, f func() (interface{}, error)) (interface{}, error) {
	res, err := cb.Execute(f)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Join(ErrOpen, err)
	}
	return res, err
}

func (l *Ledger) Address() string {
	return l.wallet.Address()
}

func (l *Ledger) SendNative(ctx context.Context, receiver string, denom string, amount *big.Int) (string, error) {
	res, err := execute(l.walletCb, func() (interface{}, error) {
		return l.wallet.SendNative(ctx, receiver, denom, amount)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (l *Ledger) ExecuteTransfer(ctx context.Context, contract string, receiver string, amount *big.Int) (string, error) {
	res, err := execute(l.walletCb, func() (interface{}, error) {
		return l.wallet.ExecuteTransfer(ctx, contract, receiver, amount)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

// GetTx counts "not found" as a success, only transport errors trip the breaker.
func (l *Ledger) GetTx(ctx context.Context, txHash string) (*agreement.TxRecord, error) {
	res, err := execute(l.clientCb, func() (interface{}, error) {
		return l.client.GetTx(ctx, txHash)
	})
	if err != nil {
		return nil, err
	}
	rec, _ := res.(*agreement.TxRecord)
	return rec, nil
}
