package registry

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	kind     string
	target   string // denom or contract
	receiver string
	amount   *big.Int
}

type fakeWallet struct {
	calls  []call
	txHash string
	err    error
}

func (w *fakeWallet) Address() string { return "terra1faucet" }

func (w *fakeWallet) SendNative(_ context.Context, receiver string, denom string, amount *big.Int) (string, error) {
	w.calls = append(w.calls, call{"native", denom, receiver, amount})
	return w.txHash, w.err
}

func (w *fakeWallet) ExecuteTransfer(_ context.Context, contract string, receiver string, amount *big.Int) (string, error) {
	w.calls = append(w.calls, call{"contract", contract, receiver, amount})
	return w.txHash, w.err
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	assert.NoError(t, r.Register("gold", StubCapability{ID: "gold"}))
	assert.NoError(t, r.Register("silver", SubmitFunc(func(context.Context, string, string) (string, error) {
		return "silver", nil
	})))
	assert.ErrorIs(t, r.Register("gold", StubCapability{ID: "x"}), ErrDuplicateAsset)
	assert.Error(t, r.Register("", StubCapability{}))
	assert.Error(t, r.Register("copper", nil))

	c, ok := r.Lookup("silver")
	require.True(t, ok)
	txHash, err := c.Submit(context.Background(), "silver", "terra1abc")
	assert.NoError(t, err)
	assert.Equal(t, "silver", txHash)

	_, ok = r.Lookup("platinum")
	assert.False(t, ok)

	assert.Equal(t, []string{"gold", "silver"}, r.Names())

	r.Freeze()
	assert.ErrorIs(t, r.Register("copper", StubCapability{}), ErrFrozen)
	_, ok = r.Lookup("gold")
	assert.True(t, ok)
}

func TestStubCapability(t *testing.T) {
	txHash, err := StubCapability{ID: "gold"}.Submit(context.Background(), "gold", "terra1abc")
	assert.NoError(t, err)
	assert.Equal(t, "gold", txHash)

	_, err = StubCapability{ID: "gold"}.Submit(context.Background(), "gold", "")
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestNativeSend(t *testing.T) {
	w := &fakeWallet{txHash: "ABC123"}
	c := NativeSend{Wallet: w, Denom: "uluna", Amount: big.NewInt(50250000000)}

	txHash, err := c.Submit(context.Background(), "lunc", "terra1abc")
	assert.NoError(t, err)
	assert.Equal(t, "ABC123", txHash)
	assert.Equal(t, []call{{"native", "uluna", "terra1abc", big.NewInt(50250000000)}}, w.calls)

	w.txHash = ""
	_, err = c.Submit(context.Background(), "lunc", "terra1abc")
	assert.ErrorIs(t, err, ErrNoTxHash)

	w.err = errors.New("signer unavailable")
	_, err = c.Submit(context.Background(), "lunc", "terra1abc")
	assert.ErrorContains(t, err, "signer unavailable")

	_, err = c.Submit(context.Background(), "", "terra1abc")
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Len(t, w.calls, 3)
}

func TestContractSend(t *testing.T) {
	w := &fakeWallet{txHash: "DEF456"}
	c := ContractSend{Wallet: w, Contract: "terra1contract", Amount: big.NewInt(7)}

	txHash, err := c.Submit(context.Background(), "juris", "terra1abc")
	assert.NoError(t, err)
	assert.Equal(t, "DEF456", txHash)
	assert.Equal(t, []call{{"contract", "terra1contract", "terra1abc", big.NewInt(7)}}, w.calls)

	w.err = errors.New("out of gas")
	_, err = c.Submit(context.Background(), "juris", "terra1abc")
	assert.ErrorContains(t, err, "out of gas")
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		amount   string
		decimals int32
		want     string
		err      bool
	}{
		{"50000000000", 0, "50000000000", false},
		{"1.5", 6, "1500000", false},
		{"0.000001", 6, "1", false},
		{"0.0000001", 6, "", true},
		{"0", 6, "", true},
		{"-1", 0, "", true},
		{"abc", 0, "", true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.amount, tt.decimals)
		if tt.err {
			assert.ErrorIs(t, err, ErrBadAmount, tt.amount)
			continue
		}
		require.NoError(t, err, tt.amount)
		assert.Equal(t, tt.want, got.String())
	}
}

func TestBuild(t *testing.T) {
	w := &fakeWallet{txHash: "ABC123"}

	r, err := Build(DefaultAssets(), w)
	require.NoError(t, err)
	assert.Equal(t, []string{"gold", "juris", "lunc", "silver"}, r.Names())

	c, _ := r.Lookup("juris")
	assert.IsType(t, ContractSend{}, c)
	c, _ = r.Lookup("lunc")
	assert.Equal(t, NativeSend{Wallet: w, Denom: "uluna", Amount: big.NewInt(50250000000)}, c)
	c, _ = r.Lookup("gold")
	assert.Equal(t, StubCapability{ID: "gold"}, c)

	assert.ErrorIs(t, r.Register("copper", StubCapability{}), ErrFrozen)

	// ledger backed assets need a wallet
	_, err = Build(DefaultAssets(), nil)
	assert.Error(t, err)

	_, err = Build([]AssetConfig{{Name: "x", Kind: "airdrop"}}, w)
	assert.Error(t, err)

	_, err = Build([]AssetConfig{{Name: "x", Kind: KindNative, Amount: "1"}}, w)
	assert.Error(t, err)

	_, err = Build([]AssetConfig{{Name: "x", Kind: KindContract, Amount: "1"}}, w)
	assert.Error(t, err)

	_, err = Build([]AssetConfig{{Name: "gold"}, {Name: "gold"}}, w)
	assert.ErrorIs(t, err, ErrDuplicateAsset)
}

func TestStubAssets(t *testing.T) {
	stubs := StubAssets(DefaultAssets())
	require.Len(t, stubs, 2)

	r, err := Build(stubs, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"gold", "silver"}, r.Names())

	assert.Empty(t, StubAssets([]AssetConfig{{Name: "lunc", Kind: KindNative}}))
	assert.Len(t, StubAssets([]AssetConfig{{Name: "copper"}}), 1)
}
