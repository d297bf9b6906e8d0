package terraman

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/faucet-go/agreement"
)

var _ agreement.Wallet = (*Terraman)(nil)
var _ agreement.LedgerClient = (*Terraman)(nil)

// Terraman signs and broadcasts faucet transfers on a cosmos chain
// and looks them up afterwards.
type Terraman struct {
	cfg      *TerramanConfig
	lcd      *LCD
	key      *btcec.PrivateKey
	address  string
	gasPrice GasPrice

	// txs are signed one at a time, the account sequence is cached between them
	mu      sync.Mutex
	account *Account
}

func NewTerraman(cfg *TerramanConfig) (*Terraman, error) {
	if cfg.LCDURL == "" || cfg.ChainID == "" {
		return nil, errors.New("LCD url and chain id are required")
	}
	cfg.setDefaults()

	key, err := DeriveKey(cfg.Mnemonic, cfg.CoinType)
	if err != nil {
		return nil, err
	}
	address, err := AccAddress(key.PubKey(), cfg.Bech32Prefix)
	if err != nil {
		return nil, err
	}
	gasPrice, err := ParseGasPrice(cfg.GasPrice)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{"address": address, "chainId": cfg.ChainID}).Info("terra wallet loaded")

	return &Terraman{
		cfg:      cfg,
		lcd:      NewLCD(cfg.LCDURL, &http.Client{Timeout: cfg.Timeout}),
		key:      key,
		address:  address,
		gasPrice: gasPrice,
	}, nil
}

func (t *Terraman) Address() string {
	return t.address
}

// Prefix is the bech32 prefix of accounts on this chain.
func (t *Terraman) Prefix() string {
	return t.cfg.Bech32Prefix
}

func (t *Terraman) SendNative(ctx context.Context, receiver string, denom string, amount *big.Int) (string, error) {
	msg := NewMsgSend(t.address, receiver, []Coin{{Denom: denom, Amount: amount.String()}})
	return t.signAndBroadcast(ctx, msg)
}

// ExecuteTransfer runs a cw20 transfer of amount on contract.
func (t *Terraman) ExecuteTransfer(ctx context.Context, contract string, receiver string, amount *big.Int) (string, error) {
	msg := NewMsgExecuteContract(t.address, contract, Cw20TransferMsg(receiver, amount.String()), nil)
	return t.signAndBroadcast(ctx, msg)
}

func (t *Terraman) GetTx(ctx context.Context, txHash string) (*agreement.TxRecord, error) {
	resp, err := t.lcd.GetTx(ctx, txHash)
	if err != nil || resp == nil {
		return nil, err
	}
	height, _ := strconv.ParseInt(resp.Height, 10, 64)
	return &agreement.TxRecord{
		TxHash: resp.TxHash,
		Height: height,
		Code:   resp.Code,
		Log:    resp.RawLog,
	}, nil
}

func (t *Terraman) sign(msgs []Msg, acc *Account, gasLimit uint64, withSignature bool) []byte {
	bodyBytes := marshalTxBody(msgs, t.cfg.Memo)
	authInfoBytes := marshalAuthInfo(t.key.PubKey().SerializeCompressed(), acc.Sequence, t.gasPrice.Fee(gasLimit), gasLimit)

	if !withSignature {
		return marshalTxRaw(bodyBytes, authInfoBytes, []byte{})
	}

	signDoc := marshalSignDoc(bodyBytes, authInfoBytes, t.cfg.ChainID, acc.AccountNumber)
	hash := sha256.Sum256(signDoc)
	// compact form is [recovery id | r | s], cosmos wants r | s with low s
	compact := ecdsa.SignCompact(t.key, hash[:], true)
	return marshalTxRaw(bodyBytes, authInfoBytes, compact[1:])
}

func (t *Terraman) gasLimit(ctx context.Context, msgs []Msg, acc *Account) (uint64, error) {
	if t.cfg.GasLimit > 0 {
		return t.cfg.GasLimit, nil
	}
	used, err := t.lcd.Simulate(ctx, t.sign(msgs, acc, 0, false))
	if err != nil {
		return 0, fmt.Errorf("failed to simulate tx: %w", err)
	}
	limit := decimal.NewFromInt(int64(used)).Mul(decimal.NewFromFloat(t.cfg.GasAdjustment)).Ceil()
	return uint64(limit.IntPart()), nil
}

func (t *Terraman) signAndBroadcast(ctx context.Context, msgs ...Msg) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.account == nil {
		acc, err := t.lcd.Account(ctx, t.address)
		if err != nil {
			return "", fmt.Errorf("failed to get account %s: %w", t.address, err)
		}
		t.account = acc
	}

	gas, err := t.gasLimit(ctx, msgs, t.account)
	if err != nil {
		t.account = nil
		return "", err
	}

	txBytes := t.sign(msgs, t.account, gas, true)
	resp, err := t.lcd.Broadcast(ctx, txBytes)
	if err != nil {
		// sequence mismatch and friends, refetch next time
		t.account = nil
		return "", err
	}
	t.account.Sequence++

	txHash := resp.TxHash
	if txHash == "" {
		txHash = TxHash(txBytes)
	}
	logger.WithFields(logger.Fields{"txHash": txHash, "gas": gas}).Debug("tx broadcast")
	return txHash, nil
}
