package terraman

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultPrefix   = "terra"
	DefaultCoinType = 330
	DefaultGasPrice = "29uluna"

	// gas limit = simulated gas used * GasAdjustment when no fixed limit is set
	DefaultGasAdjustment = 1.4
	DefaultTimeout       = 15 * time.Second
)

type TerramanConfig struct {
	LCDURL   string // cosmos REST endpoint, e.g. https://terra-classic-lcd.publicnode.com
	ChainID  string
	Mnemonic string

	Bech32Prefix string // default "terra"
	CoinType     uint32 // m/44'/<CoinType>'/0'/0/0, default 330

	GasPrice      string  // amount + denom, default "29uluna"
	GasLimit      uint64  // 0 simulates every tx
	GasAdjustment float64 // default 1.4
	Memo          string

	Timeout time.Duration // per LCD call
}

func (cfg *TerramanConfig) setDefaults() {
	if cfg.Bech32Prefix == "" {
		cfg.Bech32Prefix = DefaultPrefix
	}
	if cfg.CoinType == 0 {
		cfg.CoinType = DefaultCoinType
	}
	if cfg.GasPrice == "" {
		cfg.GasPrice = DefaultGasPrice
	}
	if cfg.GasAdjustment <= 0 {
		cfg.GasAdjustment = DefaultGasAdjustment
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
}

var gasPriceRe = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)([a-zA-Z][a-zA-Z0-9/:._-]{1,127})$`)

var ErrBadGasPrice = errors.New("invalid gas price")

type GasPrice struct {
	Amount decimal.Decimal
	Denom  string
}

// ParseGasPrice parses strings like "29uluna" or "0.015uluna".
func ParseGasPrice(s string) (GasPrice, error) {
	m := gasPriceRe.FindStringSubmatch(s)
	if m == nil {
		return GasPrice{}, fmt.Errorf("%w: %q", ErrBadGasPrice, s)
	}
	amount, err := decimal.NewFromString(m[1])
	if err != nil {
		return GasPrice{}, fmt.Errorf("%w: %q: %v", ErrBadGasPrice, s, err)
	}
	return GasPrice{Amount: amount, Denom: m[2]}, nil
}

// Fee is ceil(gasLimit * price), in the price denom.
func (p GasPrice) Fee(gasLimit uint64) Coin {
	fee := decimal.NewFromInt(int64(gasLimit)).Mul(p.Amount).Ceil()
	return Coin{Denom: p.Denom, Amount: fee.String()}
}
