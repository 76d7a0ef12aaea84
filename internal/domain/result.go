package domain

import (
	"time"

	"github.com/ctessum/sparse"
)

// JobStatus is the outcome of one job as recorded in a worker artifact.
type JobStatus int32

const (
	JobPending  JobStatus = 0
	JobComplete JobStatus = 1
	JobSkipped  JobStatus = 2 // too few measurements, every bin left empty
	JobFailed   JobStatus = 3
)

func (s JobStatus) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobComplete:
		return "complete"
	case JobSkipped:
		return "skipped"
	case JobFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// JobResult holds the dense arrays produced by sweeping one job.
//
// Result and Error are shaped [NumACFComponents, n_tod, n_height]. Valid is
// shaped [n_tod, n_height] and is 1 where the estimator solved the bin, so a
// zero in Result is never ambiguous.
type JobResult struct {
	Job          Job
	Status       JobStatus
	Result       *sparse.DenseArray
	Error        *sparse.DenseArray
	Valid        *sparse.DenseArray
	Measurements int
	BinsComputed int
}

// NewJobResult returns a zero-filled result shaped for sc.
func NewJobResult(job Job, sc ScenarioConfig) JobResult {
	nTod, nHeight := sc.Shape()
	return JobResult{
		Job:    job,
		Status: JobComplete,
		Result: sparse.ZerosDense(NumACFComponents, nTod, nHeight),
		Error:  sparse.ZerosDense(NumACFComponents, nTod, nHeight),
		Valid:  sparse.ZerosDense(nTod, nHeight),
	}
}

// Store writes one bin estimate into the (ti, hi) cell.
func (r *JobResult) Store(ti, hi int, est Estimate) {
	for c := 0; c < NumACFComponents; c++ {
		r.Result.Set(est.ACF[c], c, ti, hi)
		r.Error.Set(est.Err[c], c, ti, hi)
	}
	if est.Solved {
		r.Valid.Set(1, ti, hi)
	}
}

// JobEvent reports the outcome of one job to an external observer.
type JobEvent struct {
	Namespace    string        `json:"namespace"`
	Worker       int           `json:"worker"`
	Workers      int           `json:"workers"`
	Job          Job           `json:"job"`
	Status       string        `json:"status"`
	Measurements int           `json:"measurements"`
	BinsComputed int           `json:"bins_computed"`
	Duration     time.Duration `json:"duration_ns"`
	Error        string        `json:"error,omitempty"`
	At           time.Time     `json:"at"`
}
