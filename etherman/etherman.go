package etherman

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/faucet-go/agreement"
)

const nativeTransferGas = 21000

// erc20TransferABI is the only token method the faucet calls.
const erc20TransferABI = `[{"inputs":[{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"}],"name":"transfer","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}]`

var erc20ABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		panic(err)
	}
	return parsed
}()

var _ agreement.Wallet = (*Etherman)(nil)
var _ agreement.LedgerClient = (*Etherman)(nil)

type ethereumClient interface {
	ethereum.TransactionReader
	bind.ContractBackend
}

// Etherman sends faucet transfers from one funded account on an EVM chain.
type Etherman struct {
	ethClient ethereumClient
	chainId   *big.Int
	auth      *bind.TransactOpts
	gasLimit  uint64

	// one tx at a time, so pending nonces never collide
	sendLock sync.Mutex
}

func NewEtherman(ctx context.Context, cfg *EthermanConfig) (*Etherman, error) {
	sk, err := StringToPrivateKey(cfg.CoreAccountPriv)
	if err != nil {
		return nil, fmt.Errorf("invalid core account key: %w", err)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	client, err := ethclient.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}

	chainId, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	e := NewEthermanWithClient(client, sk, chainId)
	e.gasLimit = cfg.GasLimit
	return e, nil
}

func NewEthermanWithClient(client ethereumClient, sk *ecdsa.PrivateKey, chainId *big.Int) *Etherman {
	auth := NewAuth(sk, chainId)
	logger.WithFields(logger.Fields{"address": auth.From.Hex(), "chainId": chainId}).Info("evm wallet loaded")
	return &Etherman{
		ethClient: client,
		chainId:   chainId,
		auth:      auth,
	}
}

func (etherman *Etherman) Address() string {
	return etherman.auth.From.Hex()
}

// SendNative transfers amount wei. denom is informational on EVM chains.
func (etherman *Etherman) SendNative(ctx context.Context, receiver string, denom string, amount *big.Int) (string, error) {
	to, err := toAddress(receiver)
	if err != nil {
		return "", err
	}

	etherman.sendLock.Lock()
	defer etherman.sendLock.Unlock()

	from := etherman.auth.From
	nonce, err := etherman.ethClient.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}
	tip, err := etherman.ethClient.SuggestGasTipCap(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to suggest gas tip: %w", err)
	}
	head, err := etherman.ethClient.HeaderByNumber(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get latest header: %w", err)
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	gas := etherman.gasLimit
	if gas == 0 {
		gas = nativeTransferGas
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   etherman.chainId,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     amount,
	})
	signed, err := etherman.auth.Signer(from, tx)
	if err != nil {
		return "", err
	}
	if err := etherman.ethClient.SendTransaction(ctx, signed); err != nil {
		return "", err
	}

	logger.WithFields(logger.Fields{"txHash": signed.Hash().Hex(), "denom": denom, "nonce": nonce}).Debug("native transfer sent")
	return signed.Hash().Hex(), nil
}

// ExecuteTransfer calls transfer(receiver, amount) on an ERC20 contract.
func (etherman *Etherman) ExecuteTransfer(ctx context.Context, contract string, receiver string, amount *big.Int) (string, error) {
	token, err := toAddress(contract)
	if err != nil {
		return "", fmt.Errorf("contract: %w", err)
	}
	to, err := toAddress(receiver)
	if err != nil {
		return "", err
	}

	etherman.sendLock.Lock()
	defer etherman.sendLock.Unlock()

	opts := *etherman.auth
	opts.Context = ctx
	opts.GasLimit = etherman.gasLimit

	bound := bind.NewBoundContract(token, erc20ABI, etherman.ethClient, etherman.ethClient, etherman.ethClient)
	tx, err := bound.Transact(&opts, "transfer", to, amount)
	if err != nil {
		return "", err
	}

	logger.WithFields(logger.Fields{"txHash": tx.Hash().Hex(), "contract": token.Hex()}).Debug("token transfer sent")
	return tx.Hash().Hex(), nil
}

// GetTx returns nil, nil until the tx is mined. A reverted tx is still
// included: it comes back with Code 1.
func (etherman *Etherman) GetTx(ctx context.Context, txHash string) (*agreement.TxRecord, error) {
	receipt, err := etherman.ethClient.TransactionReceipt(ctx, ethcommon.HexToHash(txHash))
	if isReceiptPending(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec := &agreement.TxRecord{
		TxHash: receipt.TxHash.Hex(),
		Height: receipt.BlockNumber.Int64(),
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		rec.Code = 1
		rec.Log = "execution reverted"
	}
	return rec, nil
}

// isReceiptPending reports errors that mean the receipt is not available yet.
// Nodes answer "transaction indexing is in progress" while the tx index
// catches up after startup.
func isReceiptPending(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ethereum.NotFound) || strings.Contains(err.Error(), "transaction indexing is in progress")
}
