package chaintxmgrdb

import (
	"time"

	"github.com/TEENet-io/faucet-go/agreement"
)

// MonitoredMint is one row of the mint journal.
// It only records what happened, reservations are never rebuilt from it.
type MonitoredMint struct {
	RequestId string // uuid, primary key
	Asset     string
	Receiver  string
	ClientIP  string
	TxHash    string // empty until submitted
	Status    agreement.MintStatus
	Error     string // last failure, empty otherwise
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Defines what the journal should do
// Regardless of the underlying implementation
type MintJournal interface {
	agreement.MintReporter

	Close() error

	// error on duplicate request id
	Insert(m *MonitoredMint) error

	// Moves the row to status, txHash and errText overwrite only when non-empty.
	UpdateStatus(requestId string, status agreement.MintStatus, txHash string, errText string, at time.Time) error

	// result can be nil (if not found)
	GetByRequestId(requestId string) (*MonitoredMint, error)

	// result can be empty slice (if not found)
	GetByTxHash(txHash string) ([]*MonitoredMint, error)

	GetByStatus(status ...agreement.MintStatus) ([]*MonitoredMint, error)

	// Deletes rows last updated before olderThan, returns how many.
	Prune(olderThan time.Time) (int64, error)
}
