package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

var ErrInvalidAddress = errors.New("invalid address")

// AddressValidator checks that a receiver is syntactically valid on the
// target chain. It does not check that the account exists.
type AddressValidator interface {
	ValidateAddress(addr string) error
}

// Bech32Validator accepts cosmos style addresses, e.g. terra1...
// Account (20 bytes) and contract (32 bytes) addresses both pass.
type Bech32Validator struct {
	Prefix string
}

func (v Bech32Validator) ValidateAddress(addr string) error {
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if hrp != v.Prefix {
		return fmt.Errorf("%w: prefix %q, want %q", ErrInvalidAddress, hrp, v.Prefix)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != 20 && len(raw) != 32 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidAddress, len(raw))
	}
	return nil
}

// EvmValidator accepts 0x prefixed 20 byte hex addresses.
type EvmValidator struct{}

func (EvmValidator) ValidateAddress(addr string) error {
	if len(addr) != 42 || !ethcommon.IsHexAddress(addr) {
		return fmt.Errorf("%w: %q is not a hex address", ErrInvalidAddress, addr)
	}
	return nil
}

// AptosValidator accepts 0x prefixed hex account addresses of up to 32 bytes.
// Short forms like 0x1 are left padded by the chain.
type AptosValidator struct{}

func (AptosValidator) ValidateAddress(addr string) error {
	digits, ok := strings.CutPrefix(addr, "0x")
	if !ok || len(digits) == 0 || len(digits) > 64 {
		return fmt.Errorf("%w: %q is not an aptos address", ErrInvalidAddress, addr)
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	if _, err := hex.DecodeString(digits); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return nil
}

// Bech32FromBytes encodes raw address bytes under prefix.
func Bech32FromBytes(prefix string, raw []byte) (string, error) {
	return bech32.EncodeFromBase256(prefix, raw)
}
