package etherman

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
)

var (
	// chain id of the simulated backend's dev genesis
	SimulatedChainID = big.NewInt(1337)

	// 100 ether per account
	SimulatedBalance = new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))
)

// SimulatedChain is an in-process chain with funded accounts, for tests.
// Nothing is mined until Commit is called.
type SimulatedChain struct {
	Backend  *simulated.Backend
	Keys     []*ecdsa.PrivateKey
	Accounts []*bind.TransactOpts
}

func NewSimulatedChain(keys []*ecdsa.PrivateKey) *SimulatedChain {
	sim := &SimulatedChain{Keys: keys}
	alloc := types.GenesisAlloc{}
	for _, sk := range keys {
		auth := NewAuth(sk, SimulatedChainID)
		sim.Accounts = append(sim.Accounts, auth)
		alloc[auth.From] = types.Account{Balance: new(big.Int).Set(SimulatedBalance)}
	}
	sim.Backend = simulated.NewBackend(alloc, simulated.WithBlockGasLimit(30_000_000))
	return sim
}

// Faucet returns an Etherman spending from account i.
func (sim *SimulatedChain) Faucet(i int) *Etherman {
	return NewEthermanWithClient(sim.Backend.Client(), sim.Keys[i], SimulatedChainID)
}

// Mine seals the pending txs into a block and returns its hash.
func (sim *SimulatedChain) Mine() common.Hash {
	return sim.Backend.Commit()
}

func (sim *SimulatedChain) Close() error {
	return sim.Backend.Close()
}
