package snapshot

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"allocation-agent/filterlist"
	"allocation-agent/graphclient"
	"allocation-agent/ipfshash"
	"allocation-agent/logging"
)

// Builder performs the two-pass read of the network source.
type Builder struct {
	source    graphclient.NetworkSource
	minSignal math.Int
}

func NewBuilder(source graphclient.NetworkSource, minSignal math.Int) *Builder {
	return &Builder{source: source, minSignal: minSignal}
}

// Build validates the filter lists, reads the candidate (filtered) and full
// (unfiltered) views of the market, isolates the target indexer and deducts
// its frozen stake. Any failure is fatal; no partial snapshot is produced.
func (b *Builder) Build(ctx context.Context, indexerID string, lists filterlist.Lists) (*Snapshot, error) {
	if err := lists.Validate(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		RunID:        uuid.NewString(),
		FrozenHashes: lists.FrozenSet(),
	}
	if len(lists.Pinnedlist) > 0 {
		snap.Diagnostics = append(snap.Diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Message: fmt.Sprintf("pinnedlist has %d entries; pinning is unsupported and confers no allocation guarantee",
				len(lists.Pinnedlist)),
		})
	}

	candidate, err := b.read(ctx, lists.InclusionSet(), lists.ExclusionSet())
	if err != nil {
		return nil, errors.Wrap(err, "candidate read")
	}
	full, err := b.read(ctx, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "full read")
	}

	indexer, err := b.source.IndexerByID(ctx, indexerID)
	if err != nil {
		return nil, errors.Wrap(err, "target indexer read")
	}

	// The optimizer reasons about the target indexer separately from the rest
	// of the market.
	candidate.Indexers = removeIndexer(candidate.Indexers, indexerID)

	frozenStake := math.ZeroInt()
	for _, a := range indexer.Allocations {
		if _, frozen := snap.FrozenHashes[a.SubgraphDeployment]; frozen {
			frozenStake = frozenStake.Add(a.AllocatedTokens)
		}
	}
	indexer.StakedTokens = indexer.StakedTokens.Sub(frozenStake)
	if frozenStake.IsPositive() {
		snap.Diagnostics = append(snap.Diagnostics, Diagnostic{
			Severity: SeverityInfo,
			Message: fmt.Sprintf("deducted %s frozen stake; %s remains usable",
				frozenStake.String(), indexer.StakedTokens.String()),
		})
	}

	params, err := b.source.Params(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "network parameters read")
	}

	snap.Indexer = *indexer
	snap.Candidate = *candidate
	snap.Full = *full
	snap.Params = *params
	snap.FrozenStake = frozenStake

	logging.Debug("snapshot built", logging.Snapshot,
		"run_id", snap.RunID,
		"candidate_subgraphs", len(snap.Candidate.Subgraphs),
		"full_subgraphs", len(snap.Full.Subgraphs),
		"open_allocations", len(snap.Indexer.Allocations))
	return snap, nil
}

func (b *Builder) read(ctx context.Context, include, exclude []ipfshash.IpfsHash) (*Repository, error) {
	subgraphs, err := b.source.SubgraphDeployments(ctx, include, exclude, b.minSignal)
	if err != nil {
		return nil, err
	}
	repo := &Repository{Subgraphs: subgraphs}
	indexers, err := b.source.IndexersForDeployments(ctx, repo.Hashes())
	if err != nil {
		return nil, err
	}
	repo.Indexers = indexers
	return repo, nil
}

func removeIndexer(indexers []graphclient.Indexer, id string) []graphclient.Indexer {
	out := make([]graphclient.Indexer, 0, len(indexers))
	for _, i := range indexers {
		if i.ID == id {
			continue
		}
		out = append(out, i)
	}
	return out
}
