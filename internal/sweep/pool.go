package sweep

import (
	"context"
	"errors"
	"sync"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
)

// Pool runs several workers of one pool inside a single process. A failing
// worker never cancels its siblings.
type Pool struct {
	workers []*Worker
}

// NewPool groups workers that share a coordinator and barrier.
func NewPool(workers ...*Worker) *Pool {
	return &Pool{workers: workers}
}

// Sweep runs sc on every worker concurrently and joins their errors.
func (p *Pool) Sweep(ctx context.Context, sc domain.ScenarioConfig) ([]Summary, error) {
	// Fail before any worker can reach the reset.
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if len(p.workers) == 0 {
		return nil, errors.New("pool has no workers")
	}

	summaries := make([]Summary, len(p.workers))
	errs := make([]error, len(p.workers))
	var wg sync.WaitGroup
	for i, w := range p.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			summaries[i], errs[i] = w.Sweep(ctx, sc)
		}()
	}
	wg.Wait()
	return summaries, errors.Join(errs...)
}

// CheckReadiness returns nil once every worker has passed its reset barrier.
func (p *Pool) CheckReadiness(ctx context.Context) error {
	for _, w := range p.workers {
		if err := w.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
