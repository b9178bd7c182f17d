package graphclient

import (
	"context"

	"cosmossdk.io/math"

	"allocation-agent/ipfshash"
)

// NetworkSource is the read-only query boundary to the network.
type NetworkSource interface {
	// SubgraphDeployments returns deployments whose hash is in include (all
	// deployments when include is empty), not in exclude, and whose signal
	// meets minSignal.
	SubgraphDeployments(ctx context.Context, include, exclude []ipfshash.IpfsHash, minSignal math.Int) ([]Subgraph, error)

	// IndexerByID returns one indexer's record: stake, cut, open allocations.
	IndexerByID(ctx context.Context, id string) (*Indexer, error)

	// IndexersForDeployments returns every indexer holding an open allocation
	// on any of the given deployments.
	IndexersForDeployments(ctx context.Context, deployments []ipfshash.IpfsHash) ([]Indexer, error)

	// Params returns the global network parameters.
	Params(ctx context.Context) (*NetworkParameters, error)
}

// Ensure Client implements NetworkSource
var _ NetworkSource = (*Client)(nil)
