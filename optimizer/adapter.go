package optimizer

import (
	"context"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/pkg/errors"

	"allocation-agent/ipfshash"
	"allocation-agent/logging"
)

// Adapter invokes the opaque optimizer once, synchronously, and projects its
// weight vector onto deployment hashes.
type Adapter struct {
	optimizer Optimizer
}

func NewAdapter(optimizer Optimizer) *Adapter {
	return &Adapter{optimizer: optimizer}
}

// Propose validates the problem, runs the optimizer and keeps only strictly
// positive entries of the returned vector. A lifetime outside [0,28] epochs
// is rejected before the optimizer runs.
func (a *Adapter) Propose(ctx context.Context, p Problem) (ProposedAllocationSet, error) {
	if p.LifetimeEpochs < 0 || p.LifetimeEpochs > maxLifetimeEpochs {
		return ProposedAllocationSet{}, sdkerrors.Wrapf(ErrInvalidAllocationLifetime, "got %d", p.LifetimeEpochs)
	}

	weights, err := a.optimizer.Optimize(ctx, p)
	if err != nil {
		return ProposedAllocationSet{}, errors.Wrap(err, "optimizer")
	}
	if len(weights) != len(p.Candidate.Subgraphs) {
		return ProposedAllocationSet{}, errors.Errorf(
			"optimizer returned %d weights for %d candidate subgraphs", len(weights), len(p.Candidate.Subgraphs))
	}

	proposed := ProposedAllocationSet{
		Amounts: make(map[ipfshash.IpfsHash]math.Int, len(weights)),
	}
	for i, amount := range weights {
		if amount.IsNil() || !amount.IsPositive() {
			continue
		}
		hash := p.Candidate.Subgraphs[i].ID
		proposed.Order = append(proposed.Order, hash)
		proposed.Amounts[hash] = amount
	}

	logging.Debug("optimizer proposal built", logging.Optimizer,
		"candidates", len(p.Candidate.Subgraphs), "proposed", proposed.Len())
	return proposed, nil
}
