// Golbal Agreement on types

package agreement

import (
	"fmt"
	"time"
)

// MintRequest is one admitted request to mint an asset to a receiver.
// It lives only as long as the request is being processed.
type MintRequest struct {
	Id       string // request id, assigned at admission
	Asset    string // asset name, also the rate-limit namespace
	Receiver string // destination address on chain
	ClientIP string // client identity
}

func (r *MintRequest) String() string {
	return fmt.Sprintf("%+v", *r)
}

// TxRecord is what the ledger reports once a tx is included.
type TxRecord struct {
	TxHash string
	Height int64  // block height (cosmos) or block number (evm)
	Code   uint32 // 0 = executed successfully
	Log    string
}

func (r *TxRecord) String() string {
	return fmt.Sprintf("%+v", *r)
}

// Enum for the lifecycle of a mint request.
type MintStatus string

const (
	Admitted     MintStatus = "admitted"      // passed admission, reservation holds.
	Submitted    MintStatus = "submitted"     // tx broadcast, waiting for inclusion.
	Confirmed    MintStatus = "confirmed"     // included in the ledger, reservation stands.
	SubmitFailed MintStatus = "submit_failed" // capability failed, reservation released.
	TimedOut     MintStatus = "timeout"       // never found on ledger, reservation released.
)

// MintEvent is one lifecycle transition, handed to MintReporter.
type MintEvent struct {
	Request *MintRequest
	Status  MintStatus
	TxHash  string // empty before submission
	Err     error  // set on SubmitFailed / TimedOut
	At      time.Time

	Attempts int // ledger queries made, for Confirmed / TimedOut
}
