package snapshot

import (
	"context"
	"strings"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allocation-agent/filterlist"
	"allocation-agent/graphclient"
	"allocation-agent/ipfshash"
)

const testIndexer = "0xindexer"

func mkHash(tag string) ipfshash.IpfsHash {
	return ipfshash.IpfsHash("Qm" + tag + strings.Repeat("a", 44-len(tag)))
}

func newTestSource() *graphclient.MockSource {
	source := graphclient.NewMockSource()
	source.Network = &graphclient.NetworkParameters{
		TotalTokensSignalled: math.NewInt(1000),
		TotalSupply:          math.NewInt(1_000_000),
		IssuancePerBlock:     math.NewInt(10),
		EpochLength:          100,
	}
	return source
}

func addDeployment(source *graphclient.MockSource, hash ipfshash.IpfsHash, signal int64) {
	source.Deployments = append(source.Deployments, graphclient.Subgraph{
		ID:              hash,
		SignalledTokens: math.NewInt(signal),
		StakedTokens:    math.NewInt(0),
	})
}

func setIndexer(source *graphclient.MockSource, id string, stake int64, allocations ...graphclient.Allocation) {
	source.Indexers[id] = &graphclient.Indexer{
		ID:           id,
		StakedTokens: math.NewInt(stake),
		Allocations:  allocations,
	}
}

func TestBuildFrozenStakeDeduction(t *testing.T) {
	a, b := mkHash("1"), mkHash("2")
	source := newTestSource()
	addDeployment(source, a, 100)
	addDeployment(source, b, 200)
	setIndexer(source, testIndexer, 100,
		graphclient.Allocation{ID: "h1", SubgraphDeployment: a, AllocatedTokens: math.NewInt(20), Indexer: testIndexer},
		graphclient.Allocation{ID: "h2", SubgraphDeployment: b, AllocatedTokens: math.NewInt(30), Indexer: testIndexer},
	)

	lists := filterlist.Lists{Frozenlist: []ipfshash.IpfsHash{a}}
	snap, err := NewBuilder(source, math.ZeroInt()).Build(context.Background(), testIndexer, lists)
	require.NoError(t, err)

	assert.Equal(t, math.NewInt(20), snap.FrozenStake)
	assert.Equal(t, math.NewInt(80), snap.Indexer.StakedTokens)
	require.Len(t, snap.Diagnostics, 1)
	assert.Equal(t, SeverityInfo, snap.Diagnostics[0].Severity)
	assert.Contains(t, snap.Diagnostics[0].Message, "frozen stake")
	// Frozen allocations stay open and invisible to reconciliation.
	assert.Len(t, snap.Indexer.Allocations, 2)
	nonFrozen := snap.OpenNonFrozenAllocations()
	require.Len(t, nonFrozen, 1)
	assert.Equal(t, b, nonFrozen[0].SubgraphDeployment)
}

func TestBuildCandidateSubsetOfFull(t *testing.T) {
	a, b, c := mkHash("1"), mkHash("2"), mkHash("3")
	source := newTestSource()
	addDeployment(source, a, 100)
	addDeployment(source, b, 200)
	addDeployment(source, c, 300)
	setIndexer(source, testIndexer, 100)

	lists := filterlist.Lists{
		Whitelist: []ipfshash.IpfsHash{a, b},
		Blacklist: []ipfshash.IpfsHash{b},
	}
	snap, err := NewBuilder(source, math.ZeroInt()).Build(context.Background(), testIndexer, lists)
	require.NoError(t, err)

	fullHashes := make(map[ipfshash.IpfsHash]bool)
	for _, s := range snap.Full.Subgraphs {
		fullHashes[s.ID] = true
	}
	require.Len(t, snap.Candidate.Subgraphs, 1)
	assert.Equal(t, a, snap.Candidate.Subgraphs[0].ID)
	for _, s := range snap.Candidate.Subgraphs {
		assert.True(t, fullHashes[s.ID], "candidate %s missing from full view", s.ID)
	}
	assert.Len(t, snap.Full.Subgraphs, 3)
}

func TestBuildEmptyListsSelectWholeMarket(t *testing.T) {
	a, b := mkHash("1"), mkHash("2")
	source := newTestSource()
	addDeployment(source, a, 100)
	addDeployment(source, b, 200)
	setIndexer(source, testIndexer, 100)

	snap, err := NewBuilder(source, math.ZeroInt()).Build(context.Background(), testIndexer, filterlist.Lists{})
	require.NoError(t, err)
	assert.Len(t, snap.Candidate.Subgraphs, 2)
	assert.Empty(t, snap.Diagnostics)
	assert.NotEmpty(t, snap.RunID)
}

func TestBuildPinnedlistWarning(t *testing.T) {
	a := mkHash("1")
	source := newTestSource()
	addDeployment(source, a, 100)
	setIndexer(source, testIndexer, 100)

	lists := filterlist.Lists{Pinnedlist: []ipfshash.IpfsHash{a}}
	snap, err := NewBuilder(source, math.ZeroInt()).Build(context.Background(), testIndexer, lists)
	require.NoError(t, err)

	require.Len(t, snap.Diagnostics, 1)
	assert.Equal(t, SeverityWarning, snap.Diagnostics[0].Severity)
	assert.Contains(t, snap.Diagnostics[0].Message, "no allocation guarantee")
	// Pinning changes nothing else.
	assert.Len(t, snap.Candidate.Subgraphs, 1)
}

func TestBuildTargetIndexerIsolated(t *testing.T) {
	a := mkHash("1")
	source := newTestSource()
	addDeployment(source, a, 100)
	setIndexer(source, testIndexer, 100,
		graphclient.Allocation{ID: "h1", SubgraphDeployment: a, AllocatedTokens: math.NewInt(10), Indexer: testIndexer})
	setIndexer(source, "0xother", 500,
		graphclient.Allocation{ID: "h9", SubgraphDeployment: a, AllocatedTokens: math.NewInt(50), Indexer: "0xother"})

	snap, err := NewBuilder(source, math.ZeroInt()).Build(context.Background(), testIndexer, filterlist.Lists{})
	require.NoError(t, err)

	assert.Equal(t, testIndexer, snap.Indexer.ID)
	for _, idx := range snap.Candidate.Indexers {
		assert.NotEqual(t, testIndexer, idx.ID)
	}
}

func TestBuildInvalidHashFailsBeforeNetwork(t *testing.T) {
	source := newTestSource()
	lists := filterlist.Lists{Whitelist: []ipfshash.IpfsHash{"bogus"}}

	_, err := NewBuilder(source, math.ZeroInt()).Build(context.Background(), testIndexer, lists)
	require.Error(t, err)
	assert.ErrorIs(t, err, ipfshash.ErrInvalidHashFormat)
	assert.Empty(t, source.DeploymentCalls, "validation failure must precede any network access")
}

func TestBuildNetworkFailurePropagates(t *testing.T) {
	source := newTestSource()
	source.SubgraphDeploymentsError = graphclient.ErrNetworkSource

	_, err := NewBuilder(source, math.ZeroInt()).Build(context.Background(), testIndexer, filterlist.Lists{})
	require.Error(t, err)
	assert.ErrorIs(t, err, graphclient.ErrNetworkSource)
}
