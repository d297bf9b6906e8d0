package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/faucet-go/agreement"
)

var ErrNoTxHash = errors.New("transaction failed, got no transaction hash")

func checkFields(name, receiver string) error {
	if name == "" || receiver == "" {
		return ErrMissingField
	}
	return nil
}

// StubCapability mints nothing on chain and returns a fixed placeholder id.
type StubCapability struct {
	ID string
}

func (s StubCapability) Submit(_ context.Context, name string, receiver string) (string, error) {
	if err := checkFields(name, receiver); err != nil {
		return "", err
	}
	logger.WithFields(logger.Fields{"asset": name, "receiver": receiver}).Info("minting (stub)")
	return s.ID, nil
}

// NativeSend transfers a fixed amount of the chain's native coin.
type NativeSend struct {
	Wallet agreement.Wallet
	Denom  string
	Amount *big.Int // base units
}

func (n NativeSend) Submit(ctx context.Context, name string, receiver string) (string, error) {
	if err := checkFields(name, receiver); err != nil {
		return "", err
	}

	txHash, err := n.Wallet.SendNative(ctx, receiver, n.Denom, n.Amount)
	if err != nil {
		return "", fmt.Errorf("failed to execute transaction: %w", err)
	}
	if txHash == "" {
		return "", ErrNoTxHash
	}
	logger.WithFields(logger.Fields{"asset": name, "receiver": receiver, "txHash": txHash}).Info("native transfer sent")
	return txHash, nil
}

// ContractSend calls transfer(receiver, amount) on a token contract.
type ContractSend struct {
	Wallet   agreement.Wallet
	Contract string
	Amount   *big.Int // base units
}

func (c ContractSend) Submit(ctx context.Context, name string, receiver string) (string, error) {
	if err := checkFields(name, receiver); err != nil {
		return "", err
	}

	txHash, err := c.Wallet.ExecuteTransfer(ctx, c.Contract, receiver, c.Amount)
	if err != nil {
		return "", fmt.Errorf("failed to execute transaction: %w", err)
	}
	if txHash == "" {
		return "", ErrNoTxHash
	}
	logger.WithFields(logger.Fields{"asset": name, "receiver": receiver, "txHash": txHash}).Info("contract transfer sent")
	return txHash, nil
}
