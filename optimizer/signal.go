package optimizer

import (
	"context"
	"sort"

	"cosmossdk.io/math"

	"allocation-agent/logging"
)

// SignalOptimizer is the built-in Optimizer implementation. It evaluates one
// scenario per support size k in 1..MaxNewAllocations on the scenario pool,
// scores each by estimated indexing rewards over the allocation lifetime
// minus transaction gas, and returns the weight vector of the best scenario.
//
// Within a scenario the support is the k highest-signal candidate
// deployments. Tau interpolates between concentrating the whole stake on the
// highest-signal deployment (tau=0) and spreading it signal-proportionally
// across the support (tau=1).
type SignalOptimizer struct{}

func NewSignalOptimizer() *SignalOptimizer {
	return &SignalOptimizer{}
}

var _ Optimizer = (*SignalOptimizer)(nil)

type scenario struct {
	weights []math.Int
	profit  math.LegacyDec
	actions int
}

func (o *SignalOptimizer) Optimize(ctx context.Context, p Problem) ([]math.Int, error) {
	candidates := p.Candidate.Subgraphs
	if len(candidates) == 0 || !p.Indexer.StakedTokens.IsPositive() {
		return make([]math.Int, len(candidates)), nil
	}

	maxSupport := p.MaxNewAllocations
	if maxSupport <= 0 || maxSupport > len(candidates) {
		maxSupport = len(candidates)
	}

	// Candidate indices ranked by signal, ties kept in repository order.
	ranked := make([]int, len(candidates))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return candidates[ranked[a]].SignalledTokens.GT(candidates[ranked[b]].SignalledTokens)
	})

	scenarios, err := runScenarios(ctx, maxSupport, func(ctx context.Context, k int) (scenario, error) {
		return o.evaluate(p, ranked[:k]), nil
	})
	if err != nil {
		return nil, err
	}

	best := scenarios[0]
	for _, s := range scenarios[1:] {
		if s.profit.GT(best.profit) {
			best = s
		}
	}
	logging.Debug("scenario selected", logging.Optimizer,
		"support", best.actions, "estimated_profit", best.profit.String())
	return best.weights, nil
}

// evaluate builds the weight vector for one support and scores it.
func (o *SignalOptimizer) evaluate(p Problem, support []int) scenario {
	candidates := p.Candidate.Subgraphs
	weights := make([]math.Int, len(candidates))
	for i := range weights {
		weights[i] = math.ZeroInt()
	}

	totalSignal := math.LegacyZeroDec()
	for _, i := range support {
		totalSignal = totalSignal.Add(math.LegacyNewDecFromInt(candidates[i].SignalledTokens))
	}

	stake := math.LegacyNewDecFromInt(p.Indexer.StakedTokens)
	tau := math.LegacyMustNewDecFromStr(formatTau(p.Tau))

	// weight_i = stake * ((1-tau)*[i is top] + tau*signalShare_i)
	assigned := math.ZeroInt()
	for rank, i := range support {
		fraction := math.LegacyZeroDec()
		if rank == 0 {
			fraction = math.LegacyOneDec().Sub(tau)
		}
		if totalSignal.IsPositive() {
			share := math.LegacyNewDecFromInt(candidates[i].SignalledTokens).Quo(totalSignal)
			fraction = fraction.Add(tau.Mul(share))
		} else if rank == 0 {
			fraction = math.LegacyOneDec()
		}
		weights[i] = stake.Mul(fraction).TruncateInt()
		assigned = assigned.Add(weights[i])
	}
	// Truncation dust goes to the top-ranked deployment.
	if dust := p.Indexer.StakedTokens.Sub(assigned); dust.IsPositive() {
		weights[support[0]] = weights[support[0]].Add(dust)
	}

	return scenario{
		weights: weights,
		profit:  o.score(p, weights, len(support)),
		actions: len(support),
	}
}

// score estimates rewards earned over the allocation lifetime minus the gas
// spent opening and closing the allocations. The numbers only rank scenarios
// against each other.
func (o *SignalOptimizer) score(p Problem, weights []math.Int, actions int) math.LegacyDec {
	totalSignal := math.LegacyNewDecFromInt(p.Params.TotalTokensSignalled)
	if !totalSignal.IsPositive() {
		return math.LegacyZeroDec()
	}

	issuancePerEpoch := math.LegacyNewDecFromInt(p.Params.IssuancePerBlock).
		MulInt64(p.Params.EpochLength)
	lifetime := math.LegacyNewDec(int64(p.LifetimeEpochs))

	rewards := math.LegacyZeroDec()
	for i, s := range p.Candidate.Subgraphs {
		if !weights[i].IsPositive() {
			continue
		}
		alloc := math.LegacyNewDecFromInt(weights[i])
		staked := math.LegacyNewDecFromInt(s.StakedTokens).Add(alloc)
		if !staked.IsPositive() {
			continue
		}
		signalShare := math.LegacyNewDecFromInt(s.SignalledTokens).Quo(totalSignal)
		allocShare := alloc.Quo(staked)
		rewards = rewards.Add(issuancePerEpoch.Mul(lifetime).Mul(signalShare).Mul(allocShare))
	}

	// Each allocation in the support is opened now and closed at end of life.
	gas := math.LegacyNewDecFromInt(p.GasBudget).MulInt64(int64(actions) * 2)
	return rewards.Sub(gas)
}

func formatTau(tau float64) string {
	switch {
	case tau <= 0:
		return "0"
	case tau >= 1:
		return "1"
	default:
		return math.LegacyNewDecWithPrec(int64(tau*1_000_000), 6).String()
	}
}
