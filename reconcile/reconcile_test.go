package reconcile

import (
	"strings"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allocation-agent/graphclient"
	"allocation-agent/ipfshash"
	"allocation-agent/optimizer"
)

func mkHash(tag string) ipfshash.IpfsHash {
	return ipfshash.IpfsHash("Qm" + tag + strings.Repeat("a", 44-len(tag)))
}

type proposedEntry struct {
	hash   ipfshash.IpfsHash
	amount int64
}

func entry(hash ipfshash.IpfsHash, amount int64) proposedEntry {
	return proposedEntry{hash: hash, amount: amount}
}

func proposedSet(entries ...proposedEntry) optimizer.ProposedAllocationSet {
	set := optimizer.ProposedAllocationSet{Amounts: map[ipfshash.IpfsHash]math.Int{}}
	for _, e := range entries {
		set.Order = append(set.Order, e.hash)
		set.Amounts[e.hash] = math.NewInt(e.amount)
	}
	return set
}

func open(hash ipfshash.IpfsHash, handle string) graphclient.Allocation {
	return graphclient.Allocation{
		ID:                 handle,
		SubgraphDeployment: hash,
		AllocatedTokens:    math.NewInt(1),
	}
}

func frozen(hashes ...ipfshash.IpfsHash) map[ipfshash.IpfsHash]struct{} {
	set := make(map[ipfshash.IpfsHash]struct{}, len(hashes))
	for _, h := range hashes {
		set[h] = struct{}{}
	}
	return set
}

func TestReconcileOverlapAndNew(t *testing.T) {
	a, b := mkHash("A"), mkHash("B")

	actions := Reconcile(
		proposedSet(entry(a, 5), entry(b, 3)),
		[]graphclient.Allocation{open(a, "handle1")},
		frozen(),
	)

	require.Len(t, actions, 2)
	assert.Equal(t, Action{Type: ActionReallocate, Hash: a, Amount: math.NewInt(5), CloseHandle: "handle1"}, actions[0])
	assert.Equal(t, Action{Type: ActionAllocate, Hash: b, Amount: math.NewInt(3)}, actions[1])
}

func TestReconcileFrozenUntouched(t *testing.T) {
	a, b, c := mkHash("A"), mkHash("B"), mkHash("C")

	actions := Reconcile(
		proposedSet(entry(b, 3)),
		[]graphclient.Allocation{open(a, "handle1"), open(c, "handle2")},
		frozen(c),
	)

	require.Len(t, actions, 2)
	assert.Equal(t, Action{Type: ActionAllocate, Hash: b, Amount: math.NewInt(3)}, actions[0])
	assert.Equal(t, Action{Type: ActionUnallocate, Hash: a, CloseHandle: "handle1"}, actions[1])
}

func TestReconcileEqualAmountStillReallocates(t *testing.T) {
	a := mkHash("A")

	// The engine never compares amounts: any overlap reallocates, even when
	// the proposed amount equals the open amount.
	actions := Reconcile(
		proposedSet(entry(a, 7)),
		[]graphclient.Allocation{{
			ID:                 "handle1",
			SubgraphDeployment: a,
			AllocatedTokens:    math.NewInt(7),
		}},
		frozen(),
	)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionReallocate, actions[0].Type)
	assert.Equal(t, math.NewInt(7), actions[0].Amount)
}

func TestReconcileFrozenInBothInputs(t *testing.T) {
	a := mkHash("A")

	// Defensive re-exclusion: a frozen hash that leaked into both inputs by
	// construction error still produces zero actions.
	actions := Reconcile(
		proposedSet(entry(a, 5)),
		[]graphclient.Allocation{open(a, "handle1")},
		frozen(a),
	)
	assert.Empty(t, actions)
}

func TestReconcileEmptyInputs(t *testing.T) {
	assert.Empty(t, Reconcile(proposedSet(), nil, frozen()))
}

func TestReconcileGroupOrdering(t *testing.T) {
	a, b, c, d, e := mkHash("A"), mkHash("B"), mkHash("C"), mkHash("D"), mkHash("E")

	actions := Reconcile(
		proposedSet(entry(b, 2), entry(a, 1), entry(c, 3)),
		[]graphclient.Allocation{open(d, "h4"), open(a, "h1"), open(b, "h2"), open(e, "h5")},
		frozen(),
	)

	types := make([]ActionType, len(actions))
	hashes := make([]ipfshash.IpfsHash, len(actions))
	for i, action := range actions {
		types[i] = action.Type
		hashes[i] = action.Hash
	}
	// Reallocates first in proposed order, then allocates in proposed order,
	// then unallocates in existing order.
	assert.Equal(t, []ActionType{ActionReallocate, ActionReallocate, ActionAllocate, ActionUnallocate, ActionUnallocate}, types)
	assert.Equal(t, []ipfshash.IpfsHash{b, a, c, d, e}, hashes)
}

func TestReconcilePartitionProperty(t *testing.T) {
	hashes := make([]ipfshash.IpfsHash, 12)
	for i := range hashes {
		hashes[i] = mkHash(string(rune('A' + i)))
	}

	// existing: indices 0..7, proposed: 4..11, frozen: every third hash.
	var existing []graphclient.Allocation
	for i := 0; i < 8; i++ {
		existing = append(existing, open(hashes[i], "h"+string(rune('0'+i))))
	}
	var proposedEntries []proposedEntry
	for i := 4; i < 12; i++ {
		proposedEntries = append(proposedEntries, entry(hashes[i], int64(i)))
	}
	frozenSet := frozen(hashes[0], hashes[3], hashes[6], hashes[9])

	proposed := proposedSet(proposedEntries...)
	actions := Reconcile(proposed, existing, frozenSet)

	existingSet := make(map[ipfshash.IpfsHash]bool)
	for _, a := range existing {
		existingSet[a.SubgraphDeployment] = true
	}

	for _, action := range actions {
		_, isFrozen := frozenSet[action.Hash]
		require.False(t, isFrozen, "frozen hash %s appeared in actions", action.Hash)

		_, isProposed := proposed.Amounts[action.Hash]
		switch action.Type {
		case ActionReallocate:
			assert.True(t, existingSet[action.Hash] && isProposed)
		case ActionAllocate:
			assert.True(t, !existingSet[action.Hash] && isProposed)
		case ActionUnallocate:
			assert.True(t, existingSet[action.Hash] && !isProposed)
		}
	}

	// Every non-frozen hash of either input appears exactly once.
	seen := make(map[ipfshash.IpfsHash]int)
	for _, action := range actions {
		seen[action.Hash]++
	}
	for h := range existingSet {
		if _, isFrozen := frozenSet[h]; !isFrozen {
			assert.Equal(t, 1, seen[h], "existing hash %s", h)
		}
	}
	for _, h := range proposed.Order {
		if _, isFrozen := frozenSet[h]; !isFrozen {
			assert.Equal(t, 1, seen[h], "proposed hash %s", h)
		}
	}
}
