package aptosman

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/aptos-labs/aptos-go-sdk"
	"github.com/aptos-labs/aptos-go-sdk/crypto"

	sharedcommon "github.com/TEENet-io/faucet-go/common"
)

var ErrInvalidKey = errors.New("invalid ed25519 key")

// StringToPrivateKey decodes a hex ed25519 key. A 32 byte seed is expanded.
func StringToPrivateKey(s string) (ed25519.PrivateKey, error) {
	raw, err := hex.DecodeString(sharedcommon.Trim0xPrefix(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKey, len(raw))
	}
}

// GenPrivateKey returns a random ed25519 key.
func GenPrivateKey() ed25519.PrivateKey {
	_, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	return sk
}

// NewAccount creates an aptos account signing with privateKey.
func NewAccount(privateKey ed25519.PrivateKey) (*aptos.Account, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKey, len(privateKey))
	}

	// the sdk takes the seed half only
	key := crypto.Ed25519PrivateKey{}
	if err := key.FromBytes(privateKey.Seed()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return aptos.NewAccountFromSigner(&key)
}

func parseAddress(s string) (aptos.AccountAddress, error) {
	addr := aptos.AccountAddress{}
	if err := addr.ParseStringRelaxed(s); err != nil {
		return addr, fmt.Errorf("invalid aptos address %q: %w", s, err)
	}
	return addr, nil
}
