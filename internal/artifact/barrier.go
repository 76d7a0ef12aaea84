package artifact

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrResetFailed is returned to waiting workers when the coordinator could
// not prepare the namespace.
var ErrResetFailed = errors.New("namespace reset failed")

// Barrier holds every non-coordinator worker until the coordinator has
// reset the namespace directory.
type Barrier interface {
	// Release is called once by the coordinator after the reset. A non-nil
	// resetErr releases waiters with ErrResetFailed.
	Release(ctx context.Context, namespace string, resetErr error) error

	// Await blocks until namespace is released or ctx ends.
	Await(ctx context.Context, namespace string) error
}

// LocalBarrier synchronizes workers running in one process. Each namespace
// can be released once per barrier.
type LocalBarrier struct {
	mu    sync.Mutex
	gates map[string]*gate
}

type gate struct {
	done chan struct{}
	err  error
}

// NewLocalBarrier returns an empty in-process barrier.
func NewLocalBarrier() *LocalBarrier {
	return &LocalBarrier{gates: make(map[string]*gate)}
}

func (b *LocalBarrier) gate(namespace string) *gate {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.gates[namespace]
	if !ok {
		g = &gate{done: make(chan struct{})}
		b.gates[namespace] = g
	}
	return g
}

func (b *LocalBarrier) Release(_ context.Context, namespace string, resetErr error) error {
	g := b.gate(namespace)
	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case <-g.done:
		return fmt.Errorf("namespace %q already released", namespace)
	default:
	}
	if resetErr != nil {
		g.err = fmt.Errorf("%w: %s", ErrResetFailed, resetErr.Error())
	}
	close(g.done)
	return nil
}

func (b *LocalBarrier) Await(ctx context.Context, namespace string) error {
	g := b.gate(namespace)
	select {
	case <-ctx.Done():
		return fmt.Errorf("await reset of %q: %w", namespace, ctx.Err())
	case <-g.done:
		return g.err
	}
}
