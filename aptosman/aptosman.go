package aptosman

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/aptos-labs/aptos-go-sdk"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/faucet-go/agreement"
)

var ErrAmountOverflow = errors.New("amount does not fit in u64")

var _ agreement.Wallet = (*Aptosman)(nil)
var _ agreement.LedgerClient = (*Aptosman)(nil)

// chainClient is the slice of the aptos node api the faucet uses.
type chainClient interface {
	// Submit signs payload with signer and returns the tx hash.
	Submit(signer aptos.TransactionSigner, payload aptos.TransactionPayload) (string, error)

	// Lookup returns nil, nil while the tx is unknown or pending.
	Lookup(txHash string) (*agreement.TxRecord, error)
}

// Aptosman transfers coins from the faucet account on an aptos chain.
type Aptosman struct {
	client  chainClient
	account *aptos.Account
	cfg     *AptosmanConfig

	// sequence numbers are assigned at build time, submit one tx at a time
	mu sync.Mutex
}

func NewAptosman(cfg *AptosmanConfig) (*Aptosman, error) {
	sk, err := StringToPrivateKey(cfg.CoreAccountPriv)
	if err != nil {
		return nil, fmt.Errorf("invalid core account key: %w", err)
	}
	account, err := NewAccount(sk)
	if err != nil {
		return nil, err
	}

	aptosClient, err := aptos.NewClient(GetNetworkConfig(cfg.Network, cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to create aptos client: %w", err)
	}
	return NewAptosmanWithClient(cfg, &sdkClient{aptosClient}, account), nil
}

func NewAptosmanWithClient(cfg *AptosmanConfig, client chainClient, account *aptos.Account) *Aptosman {
	logger.WithFields(logger.Fields{"address": account.Address.String(), "network": cfg.Network}).Info("aptos wallet loaded")
	return &Aptosman{
		client:  client,
		account: account,
		cfg:     cfg,
	}
}

func (aptman *Aptosman) Address() string {
	return aptman.account.Address.String()
}

// SendNative transfers APT in octas. denom is ignored.
func (aptman *Aptosman) SendNative(ctx context.Context, receiver string, denom string, amount *big.Int) (string, error) {
	return aptman.transfer(ctx, nil, receiver, amount)
}

// ExecuteTransfer transfers a coin other than APT. contract is the coin type,
// e.g. 0xabc::juris::Juris.
func (aptman *Aptosman) ExecuteTransfer(ctx context.Context, contract string, receiver string, amount *big.Int) (string, error) {
	coinType, err := aptos.ParseTypeTag(contract)
	if err != nil {
		return "", fmt.Errorf("invalid coin type %q: %w", contract, err)
	}
	return aptman.transfer(ctx, coinType, receiver, amount)
}

func (aptman *Aptosman) transfer(ctx context.Context, coinType *aptos.TypeTag, receiver string, amount *big.Int) (string, error) {
	if amount == nil || amount.Sign() <= 0 || !amount.IsUint64() {
		return "", fmt.Errorf("%w: %v", ErrAmountOverflow, amount)
	}
	receiverAddr, err := parseAddress(receiver)
	if err != nil {
		return "", err
	}

	payload, err := aptos.CoinTransferPayload(coinType, receiverAddr, amount.Uint64())
	if err != nil {
		return "", fmt.Errorf("failed to create transfer payload: %w", err)
	}

	aptman.mu.Lock()
	defer aptman.mu.Unlock()

	// the sdk takes no context
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return aptman.client.Submit(aptman.account, aptos.TransactionPayload{Payload: payload})
}

func (aptman *Aptosman) GetTx(ctx context.Context, txHash string) (*agreement.TxRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return aptman.client.Lookup(txHash)
}

// sdkClient adapts *aptos.Client.
type sdkClient struct {
	*aptos.Client
}

func (c *sdkClient) Submit(signer aptos.TransactionSigner, payload aptos.TransactionPayload) (string, error) {
	resp, err := c.BuildSignAndSubmitTransaction(signer, payload)
	if err != nil {
		return "", err
	}
	return resp.Hash, nil
}

func (c *sdkClient) Lookup(txHash string) (*agreement.TxRecord, error) {
	txn, err := c.TransactionByHash(txHash)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	userTxn, err := txn.UserTransaction()
	if err != nil {
		// pending txs are not user txs yet
		logger.WithField("txHash", txHash).Debugf("transaction not committed: %v", err)
		return nil, nil
	}

	rec := &agreement.TxRecord{
		TxHash: txHash,
		Height: int64(userTxn.Version),
		Log:    userTxn.VmStatus,
	}
	if !userTxn.Success {
		rec.Code = 1
	}
	return rec, nil
}

func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "404")
}
