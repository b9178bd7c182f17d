package snapshot

import (
	"cosmossdk.io/math"

	"allocation-agent/graphclient"
	"allocation-agent/ipfshash"
)

// Repository is an ordered set of subgraphs plus the indexers observed in one
// query window. Two instances exist per run: the candidate (filtered) view and
// the full (unfiltered) market context.
type Repository struct {
	Subgraphs []graphclient.Subgraph
	Indexers  []graphclient.Indexer
}

// Hashes returns the repository's subgraph hashes in order.
func (r Repository) Hashes() []ipfshash.IpfsHash {
	out := make([]ipfshash.IpfsHash, len(r.Subgraphs))
	for i, s := range r.Subgraphs {
		out[i] = s.ID
	}
	return out
}

// Severity of a Diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic is a structured, non-fatal finding produced while building a
// snapshot. Callers decide whether to surface, log or ignore it.
type Diagnostic struct {
	Severity Severity
	Message  string
}

// Snapshot is the immutable view of the network handed to the optimizer.
// Indexer is the target indexer's record, removed from Candidate's indexer
// set, with frozen stake already deducted from its stake.
type Snapshot struct {
	RunID        string
	Indexer      graphclient.Indexer
	Candidate    Repository
	Full         Repository
	Params       graphclient.NetworkParameters
	FrozenStake  math.Int
	FrozenHashes map[ipfshash.IpfsHash]struct{}
	Diagnostics  []Diagnostic
}

// OpenNonFrozenAllocations returns the target indexer's open allocations with
// the frozen ones removed. Frozen allocations stay open on chain and never
// enter reconciliation.
func (s *Snapshot) OpenNonFrozenAllocations() []graphclient.Allocation {
	out := make([]graphclient.Allocation, 0, len(s.Indexer.Allocations))
	for _, a := range s.Indexer.Allocations {
		if _, frozen := s.FrozenHashes[a.SubgraphDeployment]; frozen {
			continue
		}
		out = append(out, a)
	}
	return out
}
