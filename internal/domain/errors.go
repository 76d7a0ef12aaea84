package domain

import "errors"

var (
	// ErrInvalidScenario marks a scenario that cannot be swept.
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrInvalidIdentity marks a worker index/count pair outside [0, count).
	ErrInvalidIdentity = errors.New("invalid worker identity")
	// ErrInvalidNamespace marks an output namespace that is not a safe directory or key name.
	ErrInvalidNamespace = errors.New("invalid namespace")
)
