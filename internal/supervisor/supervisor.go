package supervisor

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Supervisor runs a fixed set of CadenceRunners concurrently and returns
// when ctx is cancelled or any runner reports a fatal (non-restartable)
// error. In practice CadenceRunner.Run never returns a fatal error on its
// own — it restarts internally — so Supervisor's job is purely to fan
// the runners out and wait for shutdown.
type Supervisor struct {
	runners []*CadenceRunner
}

// New builds a Supervisor over the given cadence runners.
func New(runners ...*CadenceRunner) *Supervisor {
	return &Supervisor{runners: runners}
}

// Run starts every cadence runner and blocks until ctx is cancelled (or a
// runner returns a fatal error), then waits for all runners to exit.
// Callers cancel ctx to request graceful shutdown; runners are expected
// to observe cancellation within their current sleep or in-flight
// collect() call.
func (s *Supervisor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range s.runners {
		r := r
		g.Go(func() error {
			return r.Run(gctx)
		})
	}
	return g.Wait()
}
