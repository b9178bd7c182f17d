package actionqueue

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"allocation-agent/reconcile"
)

// LocalSink renders each action as a standalone directive for manual
// execution. It performs no network I/O.
type LocalSink struct {
	out io.Writer
}

func NewLocalSink(out io.Writer) *LocalSink {
	return &LocalSink{out: out}
}

var _ Sink = (*LocalSink)(nil)

func (s *LocalSink) Deliver(_ context.Context, actions []reconcile.Action) error {
	for _, a := range actions {
		if _, err := fmt.Fprintln(s.out, Directive(a)); err != nil {
			return errors.Wrap(err, "writing directive")
		}
	}
	return nil
}

// Directive formats one action as an indexer-management CLI invocation.
func Directive(a reconcile.Action) string {
	switch a.Type {
	case reconcile.ActionReallocate:
		return fmt.Sprintf("graph indexer actions queue reallocate %s %s %s",
			a.Hash, a.CloseHandle, a.Amount)
	case reconcile.ActionAllocate:
		return fmt.Sprintf("graph indexer actions queue allocate %s %s", a.Hash, a.Amount)
	case reconcile.ActionUnallocate:
		return fmt.Sprintf("graph indexer actions queue unallocate %s %s", a.Hash, a.CloseHandle)
	default:
		return fmt.Sprintf("# unknown action %q for %s", a.Type, a.Hash)
	}
}
