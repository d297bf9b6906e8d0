package registry

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/faucet-go/agreement"
)

// Asset kinds understood by Build.
const (
	KindStub     = "stub"
	KindNative   = "native"
	KindContract = "contract"
)

var ErrBadAmount = errors.New("invalid amount")

// AssetConfig describes one mintable asset. Keep it text so it loads from
// config files and env vars.
type AssetConfig struct {
	Name     string `mapstructure:"name"`
	Kind     string `mapstructure:"kind"`     // stub, native, contract
	ID       string `mapstructure:"id"`       // stub: placeholder tx id, defaults to Name
	Denom    string `mapstructure:"denom"`    // native
	Contract string `mapstructure:"contract"` // contract
	Amount   string `mapstructure:"amount"`   // decimal, in whole tokens
	Decimals int32  `mapstructure:"decimals"` // amount * 10^decimals = base units
}

// DefaultAssets is the asset table the faucet ships with.
func DefaultAssets() []AssetConfig {
	return []AssetConfig{
		{Name: "gold", Kind: KindStub},
		{Name: "silver", Kind: KindStub},
		{
			Name:     "juris",
			Kind:     KindContract,
			Contract: "terra1w7d0jqehn0ja3hkzsm0psk6z2hjz06lsq0nxnwkzkkq4fqwgq6tqa5te8e",
			Amount:   "50000000000",
		},
		{Name: "lunc", Kind: KindNative, Denom: "uluna", Amount: "50250000000"},
	}
}

// StubAssets keeps the stub assets of assets, for running without a chain.
func StubAssets(assets []AssetConfig) []AssetConfig {
	var out []AssetConfig
	for _, a := range assets {
		if a.Kind == KindStub || a.Kind == "" {
			out = append(out, a)
			continue
		}
		logger.WithFields(logger.Fields{"asset": a.Name, "kind": a.Kind}).Warn("no chain configured, asset skipped")
	}
	return out
}

// ParseAmount turns a decimal string into base units.
// "1.5" with 6 decimals is 1500000. More fractional digits than decimals is an error.
func ParseAmount(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadAmount, amount, err)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %q must be positive", ErrBadAmount, amount)
	}
	units := d.Shift(decimals)
	if !units.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrBadAmount, amount, decimals)
	}
	return units.BigInt(), nil
}

// Build registers every asset of assets on a new frozen registry.
// wallet may be nil when only stubs are configured.
func Build(assets []AssetConfig, wallet agreement.Wallet) (*Registry, error) {
	r := New()
	for _, a := range assets {
		c, err := capabilityFor(a, wallet)
		if err != nil {
			return nil, fmt.Errorf("asset %q: %w", a.Name, err)
		}
		if err := r.Register(a.Name, c); err != nil {
			return nil, err
		}
	}
	r.Freeze()
	return r, nil
}

func capabilityFor(a AssetConfig, wallet agreement.Wallet) (Capability, error) {
	switch a.Kind {
	case KindStub, "":
		id := a.ID
		if id == "" {
			id = a.Name
		}
		return StubCapability{ID: id}, nil
	case KindNative, KindContract:
		if wallet == nil {
			return nil, fmt.Errorf("kind %q needs a wallet", a.Kind)
		}
		amount, err := ParseAmount(a.Amount, a.Decimals)
		if err != nil {
			return nil, err
		}
		if a.Kind == KindNative {
			if a.Denom == "" {
				return nil, errors.New("native asset without denom")
			}
			return NativeSend{Wallet: wallet, Denom: a.Denom, Amount: amount}, nil
		}
		if a.Contract == "" {
			return nil, errors.New("contract asset without contract address")
		}
		return ContractSend{Wallet: wallet, Contract: a.Contract, Amount: amount}, nil
	default:
		return nil, fmt.Errorf("unknown asset kind %q", a.Kind)
	}
}
