// Implement following interfaces to plug the mint lifecycle into your chain.

package chaintxmgr

import (
	"context"

	"github.com/TEENet-io/faucet-go/admission"
	"github.com/TEENet-io/faucet-go/agreement"
	"github.com/TEENet-io/faucet-go/registry"
)

// CapabilityLookup finds the submission capability of an asset.
// *registry.Registry implements it.
type CapabilityLookup interface {
	Lookup(name string) (registry.Capability, bool)
}

// Confirmer waits for a submitted tx to land on chain.
// It owns the ticket from then on: on failure it must release it.
type Confirmer interface {
	Confirm(ctx context.Context, req *agreement.MintRequest, txHash string, ticket *admission.Ticket) PollResult
}
