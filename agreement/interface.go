package agreement

import (
	"context"
	"math/big"
)

// LedgerClient answers "is this transaction included".
// A nil record with a nil error means the ledger does not know the tx (yet).
type LedgerClient interface {
	GetTx(ctx context.Context, txHash string) (*TxRecord, error)
}

// Wallet signs and broadcasts transfers from the faucet account.
// Both calls return the tx hash once the node accepted the tx,
// they do not wait for inclusion.
type Wallet interface {
	// Address of the faucet account.
	Address() string

	// Transfer native coins (denom is ignored on chains with a single native coin).
	SendNative(ctx context.Context, receiver string, denom string, amount *big.Int) (string, error)

	// Call transfer(receiver, amount) on a token contract (CW20 / ERC20).
	ExecuteTransfer(ctx context.Context, contract string, receiver string, amount *big.Int) (string, error)
}

// MintReporter is the observability sink for the mint lifecycle.
// Implementations must not block for long, they run on the dispatch path.
type MintReporter interface {
	Report(ev *MintEvent)
}
