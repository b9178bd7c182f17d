package reconcile

import (
	"cosmossdk.io/math"

	"allocation-agent/graphclient"
	"allocation-agent/ipfshash"
	"allocation-agent/optimizer"
)

// ActionType discriminates the three state transitions the engine emits.
type ActionType string

const (
	ActionReallocate ActionType = "reallocate"
	ActionAllocate   ActionType = "allocate"
	ActionUnallocate ActionType = "unallocate"
)

// Action is one immutable state transition against the open allocation set.
// Amount is set for Allocate and Reallocate; CloseHandle for Reallocate and
// Unallocate.
type Action struct {
	Type        ActionType
	Hash        ipfshash.IpfsHash
	Amount      math.Int
	CloseHandle string
}

// Reconcile partitions the hash domain three ways and emits the ordered
// action list: all Reallocates, then Allocates, then Unallocates.
//
// Any overlap between existing and proposed triggers a Reallocate regardless
// of whether the proposed amount equals the open amount; reallocation is
// always expressed as close-then-reopen. Hashes in frozen never produce an
// action, even if a construction error let one into either input.
func Reconcile(proposed optimizer.ProposedAllocationSet, existing []graphclient.Allocation, frozen map[ipfshash.IpfsHash]struct{}) []Action {
	existingByHash := make(map[ipfshash.IpfsHash]graphclient.Allocation, len(existing))
	for _, a := range existing {
		existingByHash[a.SubgraphDeployment] = a
	}
	isFrozen := func(h ipfshash.IpfsHash) bool {
		_, ok := frozen[h]
		return ok
	}

	var reallocates, allocates, unallocates []Action

	// Proposed iteration order drives the Reallocate and Allocate groups.
	for _, hash := range proposed.Order {
		if isFrozen(hash) {
			continue
		}
		amount := proposed.Amounts[hash]
		if open, ok := existingByHash[hash]; ok {
			reallocates = append(reallocates, Action{
				Type:        ActionReallocate,
				Hash:        hash,
				Amount:      amount,
				CloseHandle: open.ID,
			})
		} else {
			allocates = append(allocates, Action{
				Type:   ActionAllocate,
				Hash:   hash,
				Amount: amount,
			})
		}
	}

	// Existing iteration order drives the Unallocate group.
	for _, a := range existing {
		if isFrozen(a.SubgraphDeployment) {
			continue
		}
		if _, ok := proposed.Amounts[a.SubgraphDeployment]; ok {
			continue
		}
		unallocates = append(unallocates, Action{
			Type:        ActionUnallocate,
			Hash:        a.SubgraphDeployment,
			CloseHandle: a.ID,
		})
	}

	actions := make([]Action, 0, len(reallocates)+len(allocates)+len(unallocates))
	actions = append(actions, reallocates...)
	actions = append(actions, allocates...)
	actions = append(actions, unallocates...)
	return actions
}
