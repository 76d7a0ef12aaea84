package domain

import "fmt"

// WorkerIdentity identifies one worker of a sweep. It is passed explicitly to
// every component instead of being read from process state.
type WorkerIdentity struct {
	Index         int
	Count         int
	IsCoordinator bool
}

// NewWorkerIdentity returns the identity of worker index out of count.
// Worker 0 is the coordinator that resets the output namespace.
func NewWorkerIdentity(index, count int) WorkerIdentity {
	return WorkerIdentity{Index: index, Count: count, IsCoordinator: index == 0}
}

// Validate reports whether the identity describes a real slot in the pool.
func (w WorkerIdentity) Validate() error {
	if w.Count < 1 {
		return fmt.Errorf("%w: worker count %d, need at least 1", ErrInvalidIdentity, w.Count)
	}
	if w.Index < 0 || w.Index >= w.Count {
		return fmt.Errorf("%w: worker index %d outside [0, %d)", ErrInvalidIdentity, w.Index, w.Count)
	}
	return nil
}

func (w WorkerIdentity) String() string {
	return fmt.Sprintf("%d/%d", w.Index, w.Count)
}
