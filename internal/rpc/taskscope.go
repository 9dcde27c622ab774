package rpc

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// taskScope owns every handler goroutine spawned for one peer connection,
// the Go analogue of spec.md §5's "task scope": an errgroup.Group derived
// context plus the CancelFunc that tears the whole scope down, grounded on
// the errgroup.WithContext fan-out pattern the pack's RPC monitor uses for
// its concurrent provider calls.
type taskScope struct {
	group      *errgroup.Group
	ctx        context.Context
	cancel     context.CancelFunc
	autoCancel bool
}

// newTaskScope derives a cancellable child of parent. When autoCancel is
// true (spec.md's default), Close cancels outstanding handlers immediately;
// when false, Close only stops accepting new work and callers must Wait
// themselves to let in-flight handlers drain.
func newTaskScope(parent context.Context, autoCancel bool) *taskScope {
	ctx, cancel := context.WithCancel(parent)
	g, gctx := errgroup.WithContext(ctx)
	return &taskScope{group: g, ctx: gctx, cancel: cancel, autoCancel: autoCancel}
}

// Go spawns fn as a cooperative task under the scope.
func (s *taskScope) Go(fn func(ctx context.Context) error) {
	s.group.Go(func() error {
		return fn(s.ctx)
	})
}

// Wait blocks until every spawned task has returned.
func (s *taskScope) Wait() error {
	return s.group.Wait()
}

// Close tears the scope down. With AutoCancel it cancels immediately,
// aborting any task still waiting on ctx.Done(); without it, Close leaves
// running tasks to finish on their own and only Wait (called separately)
// observes their completion.
func (s *taskScope) Close() {
	if s.autoCancel {
		s.cancel()
	}
}

// cancelNow force-cancels the scope's context regardless of AutoCancel.
func (s *taskScope) cancelNow() {
	s.cancel()
}
