package actionqueue

import (
	"context"

	"allocation-agent/reconcile"
)

// Sink consumes the reconciler's ordered action list exactly once. Sinks must
// not reorder or alter the actions.
type Sink interface {
	Deliver(ctx context.Context, actions []reconcile.Action) error
}
