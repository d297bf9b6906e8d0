package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/faucet-go/agreement"
	"github.com/TEENet-io/faucet-go/aptosman"
	"github.com/TEENet-io/faucet-go/etherman"
	"github.com/TEENet-io/faucet-go/terraman"
)

// fileExists checks if a file exists and is readable
func FileExists(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer file.Close()
	return true
}

// ParseHttpPort returns port if it is a valid tcp port, otherwise the default.
func ParseHttpPort(port string) string {
	if port == "" {
		return DEFAULT_HTTP_PORT
	}
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		logger.Warnf("invalid HTTP_PORT %q, using %s", port, DEFAULT_HTTP_PORT)
		return DEFAULT_HTTP_PORT
	}
	return port
}

// SplitList splits a comma separated env value, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Shared Helper function. Create a redis client and make sure it answers.
func SetupRedis(ctx context.Context, addr string, password string, db int) (redis.UniversalClient, error) {
	if addr == "" {
		return nil, errors.New("redis backend needs REDIS_ADDR")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("cannot reach redis at %s: %w", addr, err)
	}
	logger.WithField("address", addr).Info("connected to redis")
	return rdb, nil
}

// Shared Helper function. Create a cosmos wallet from the mnemonic.
func SetupTerraman(fsc *FaucetServerConfig) (*terraman.Terraman, error) {
	tm, err := terraman.NewTerraman(&terraman.TerramanConfig{
		LCDURL:       fsc.LcdUrl,
		ChainID:      fsc.ChainId,
		Mnemonic:     fsc.Mnemonic,
		Bech32Prefix: fsc.Bech32Prefix,
		GasPrice:     fsc.GasPrice,
		GasLimit:     fsc.GasLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create terraman: %w", err)
	}
	return tm, nil
}

// Shared Helper function. Connect to an evm node with the core account.
func SetupEtherman(ctx context.Context, fsc *FaucetServerConfig) (*etherman.Etherman, error) {
	em, err := etherman.NewEtherman(ctx, &etherman.EthermanConfig{
		URL:             fsc.EthRpcUrl,
		CoreAccountPriv: fsc.EthCoreAccountPriv,
		GasLimit:        fsc.GasLimit,
		Timeout:         10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etherman: %w", err)
	}
	return em, nil
}

// Shared Helper function. Load the aptos faucet account.
func SetupAptosman(fsc *FaucetServerConfig) (*aptosman.Aptosman, error) {
	am, err := aptosman.NewAptosman(&aptosman.AptosmanConfig{
		Network:         fsc.AptosNetwork,
		URL:             fsc.AptosRpcUrl,
		CoreAccountPriv: fsc.AptosCoreAccountPriv,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aptosman: %w", err)
	}
	return am, nil
}

// offlineLedger never finds a tx. Stub placeholders are not on any chain,
// so their reservations are released once polling gives up.
type offlineLedger struct{}

func (offlineLedger) GetTx(context.Context, string) (*agreement.TxRecord, error) {
	return nil, nil
}
