package optimizer

import (
	"context"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"allocation-agent/graphclient"
	"allocation-agent/ipfshash"
	"allocation-agent/snapshot"
)

// ErrInvalidAllocationLifetime is returned when the configured allocation
// lifetime falls outside the protocol's [0,28] epoch bound.
var ErrInvalidAllocationLifetime = sdkerrors.Register("allocation-agent", 4, "allocation lifetime outside [0,28] epochs")

const maxLifetimeEpochs = 28

// Problem is the optimizer's complete input contract. Candidate is the
// filtered view the weight vector is aligned with; Full is the unfiltered
// market context.
type Problem struct {
	Indexer           graphclient.Indexer
	Candidate         snapshot.Repository
	Full              snapshot.Repository
	Params            graphclient.NetworkParameters
	MaxNewAllocations int
	Tau               float64
	GasBudget         math.Int
	LifetimeEpochs    int
	PinnedHashes      []ipfshash.IpfsHash
}

// Optimizer is the opaque numerical boundary. Implementations return a weight
// vector aligned with Problem.Candidate.Subgraphs: entry i is the target
// amount for subgraph i. Zero entries are no-op signals.
type Optimizer interface {
	Optimize(ctx context.Context, p Problem) ([]math.Int, error)
}

// ProposedAllocationSet maps deployment hashes to strictly positive target
// amounts, preserving the candidate repository's subgraph ordering.
type ProposedAllocationSet struct {
	Order   []ipfshash.IpfsHash
	Amounts map[ipfshash.IpfsHash]math.Int
}

func (p ProposedAllocationSet) Len() int {
	return len(p.Order)
}

// Amount returns the proposed amount for hash and whether hash is proposed.
func (p ProposedAllocationSet) Amount(hash ipfshash.IpfsHash) (math.Int, bool) {
	amount, ok := p.Amounts[hash]
	return amount, ok
}
