package terraman

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/ripemd160"

	"github.com/TEENet-io/faucet-go/common"
)

// DeriveKey derives the account key at m/44'/coinType'/0'/0/0.
func DeriveKey(mnemonic string, coinType uint32) (*btcec.PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}

	// chain params only affect the serialized xprv version, not derivation
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}

	path := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart + 0,
		0,
		0,
	}
	for _, idx := range path {
		key, err = key.Derive(idx)
		if err != nil {
			return nil, err
		}
	}
	return key.ECPrivKey()
}

// AccAddress is the bech32 account address of pub: ripemd160(sha256(compressed pubkey)).
func AccAddress(pub *btcec.PublicKey, prefix string) (string, error) {
	sha := sha256.Sum256(pub.SerializeCompressed())
	hasher := ripemd160.New()
	hasher.Write(sha[:])
	return common.Bech32FromBytes(prefix, hasher.Sum(nil))
}
