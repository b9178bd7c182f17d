package graphclient

import (
	"cosmossdk.io/math"

	"allocation-agent/ipfshash"
)

// Subgraph is one deployment as seen by the network source, with the signal
// data the optimizer weighs.
type Subgraph struct {
	ID              ipfshash.IpfsHash
	SignalledTokens math.Int
	StakedTokens    math.Int
}

// Allocation is an open on-chain commitment. ID is the opaque handle needed
// to close it.
type Allocation struct {
	ID                 string
	SubgraphDeployment ipfshash.IpfsHash
	AllocatedTokens    math.Int
	Indexer            string
}

// Indexer is a staking participant's record for one query window.
// IndexingRewardCut is expressed in parts per million.
type Indexer struct {
	ID                string
	StakedTokens      math.Int
	DelegatedTokens   math.Int
	IndexingRewardCut uint32
	Allocations       []Allocation
}

// AvailableStake is the total stake the indexer can commit.
func (i Indexer) AvailableStake() math.Int {
	return i.StakedTokens.Add(i.DelegatedTokens)
}

// NetworkParameters is the global numeric context required by the optimizer.
// The engine passes it through without interpreting it.
type NetworkParameters struct {
	TotalTokensSignalled math.Int
	TotalSupply          math.Int
	IssuancePerBlock     math.Int
	EpochLength          int64
}
