package etherman

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	sharedcommon "github.com/TEENet-io/faucet-go/common"
)

var ErrInvalidReceiver = errors.New("invalid evm address")

// StringToPrivateKey parses a hex encoded secp256k1 key.
func StringToPrivateKey(s string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(sharedcommon.Trim0xPrefix(s))
}

func NewAuth(sk *ecdsa.PrivateKey, chainId *big.Int) *bind.TransactOpts {
	// only errors on a nil chain id
	auth, _ := bind.NewKeyedTransactorWithChainID(sk, chainId)
	return auth
}

func GenPrivateKeys(number int) []*ecdsa.PrivateKey {
	keys := make([]*ecdsa.PrivateKey, number)
	for i := range keys {
		keys[i], _ = crypto.GenerateKey()
	}
	return keys
}

func toAddress(s string) (common.Address, error) {
	if err := (sharedcommon.EvmValidator{}).ValidateAddress(s); err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidReceiver, err)
	}
	return common.HexToAddress(s), nil
}
