package cmd

import (
	"context"

	"github.com/pkg/errors"

	"allocation-agent/actionqueue"
	"allocation-agent/agentconfig"
	"allocation-agent/filterlist"
	"allocation-agent/graphclient"
	"allocation-agent/logging"
	"allocation-agent/optimizer"
	"allocation-agent/reconcile"
	"allocation-agent/snapshot"
)

// runPipeline is one complete run: snapshot, optimize, reconcile, deliver.
// Strictly sequential; any failure aborts with no partial effects.
func runPipeline(ctx context.Context, cfg agentconfig.Config, source graphclient.NetworkSource, sink actionqueue.Sink) error {
	lists, err := filterlist.ParseFile(cfg.FilterListPath)
	if err != nil {
		return err
	}

	minSignal, err := cfg.MinSignalInt()
	if err != nil {
		return err
	}
	maxGas, err := cfg.MaxGasInt()
	if err != nil {
		return err
	}

	builder := snapshot.NewBuilder(source, minSignal)
	snap, err := builder.Build(ctx, cfg.IndexerID, lists)
	if err != nil {
		return errors.Wrap(err, "building snapshot")
	}
	for _, d := range snap.Diagnostics {
		switch d.Severity {
		case snapshot.SeverityWarning:
			logging.Warn(d.Message, logging.Snapshot, "run_id", snap.RunID)
		default:
			logging.Info(d.Message, logging.Snapshot, "run_id", snap.RunID)
		}
	}

	adapter := optimizer.NewAdapter(optimizer.NewSignalOptimizer())
	proposed, err := adapter.Propose(ctx, optimizer.Problem{
		Indexer:           snap.Indexer,
		Candidate:         snap.Candidate,
		Full:              snap.Full,
		Params:            snap.Params,
		MaxNewAllocations: cfg.MaxNewAllocations,
		Tau:               cfg.Tau,
		GasBudget:         maxGas,
		LifetimeEpochs:    cfg.LifetimeEpochs,
		PinnedHashes:      lists.Pinnedlist,
	})
	if err != nil {
		return errors.Wrap(err, "computing proposal")
	}

	actions := reconcile.Reconcile(proposed, snap.OpenNonFrozenAllocations(), snap.FrozenHashes)
	summary := map[reconcile.ActionType]int{}
	for _, a := range actions {
		summary[a.Type]++
	}
	logging.Info("reconciliation complete", logging.Reconciler,
		"run_id", snap.RunID,
		"reallocate", summary[reconcile.ActionReallocate],
		"allocate", summary[reconcile.ActionAllocate],
		"unallocate", summary[reconcile.ActionUnallocate])

	if err := sink.Deliver(ctx, actions); err != nil {
		return errors.Wrap(err, "delivering actions")
	}
	return nil
}
