// Package artifact owns the output side of a sweep: the namespace directory
// lifecycle, the reset barrier and the per-worker NetCDF artifact.
//
// Each worker writes exactly one file, <root>/<namespace>/ke_res-NNNNNN.nc,
// holding every job assigned to it along a leading job axis. The file is
// rewritten after each job so it is always a consistent checkpoint; jobs not
// yet reached are marked pending and a job that failed is marked failed.
package artifact

import (
	"fmt"

	"github.com/ctessum/sparse"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
)

// Artifact is the in-memory form of one worker's output file.
type Artifact struct {
	Namespace       string
	Worker          domain.WorkerIdentity
	Tods            []float64
	Heights         []float64
	HorizontalScale float64

	Jobs   []domain.Job
	Status []domain.JobStatus
	Result *sparse.DenseArray // [job, component, tod, height]
	Error  *sparse.DenseArray // [job, component, tod, height]
	Valid  *sparse.DenseArray // [job, tod, height], 1 where estimated
}

// New returns an artifact for jobs with every job pending and all cells zero.
func New(sc domain.ScenarioConfig, id domain.WorkerIdentity, jobs []domain.Job) *Artifact {
	nTod, nHeight := sc.Shape()
	return &Artifact{
		Namespace:       sc.Name,
		Worker:          id,
		Tods:            append([]float64(nil), sc.Tods...),
		Heights:         append([]float64(nil), sc.Heights...),
		HorizontalScale: sc.HorizontalScale,
		Jobs:            append([]domain.Job(nil), jobs...),
		Status:          make([]domain.JobStatus, len(jobs)),
		Result:          sparse.ZerosDense(len(jobs), domain.NumACFComponents, nTod, nHeight),
		Error:           sparse.ZerosDense(len(jobs), domain.NumACFComponents, nTod, nHeight),
		Valid:           sparse.ZerosDense(len(jobs), nTod, nHeight),
	}
}

// Record copies the arrays of the i-th job's result into the artifact.
func (a *Artifact) Record(i int, r domain.JobResult) error {
	if i < 0 || i >= len(a.Jobs) {
		return fmt.Errorf("job index %d outside artifact of %d jobs", i, len(a.Jobs))
	}
	if r.Job != a.Jobs[i] {
		return fmt.Errorf("job %s recorded in slot of %s", r.Job, a.Jobs[i])
	}
	cells := len(a.Tods) * len(a.Heights)
	if len(r.Result.Elements) != domain.NumACFComponents*cells || len(r.Valid.Elements) != cells {
		return fmt.Errorf("job %s result shape %v does not match grid %dx%d", r.Job, r.Result.Shape, len(a.Tods), len(a.Heights))
	}

	block := domain.NumACFComponents * cells
	copy(a.Result.Elements[i*block:(i+1)*block], r.Result.Elements)
	copy(a.Error.Elements[i*block:(i+1)*block], r.Error.Elements)
	copy(a.Valid.Elements[i*cells:(i+1)*cells], r.Valid.Elements)
	a.Status[i] = r.Status
	return nil
}

// MarkFailed records that the i-th job did not finish. Its cells stay zero.
func (a *Artifact) MarkFailed(i int) {
	a.Status[i] = domain.JobFailed
}

// JobResult extracts the i-th job's arrays as a standalone result.
func (a *Artifact) JobResult(i int) domain.JobResult {
	nTod, nHeight := len(a.Tods), len(a.Heights)
	cells := nTod * nHeight
	block := domain.NumACFComponents * cells

	r := domain.JobResult{
		Job:    a.Jobs[i],
		Status: a.Status[i],
		Result: sparse.ZerosDense(domain.NumACFComponents, nTod, nHeight),
		Error:  sparse.ZerosDense(domain.NumACFComponents, nTod, nHeight),
		Valid:  sparse.ZerosDense(nTod, nHeight),
	}
	copy(r.Result.Elements, a.Result.Elements[i*block:(i+1)*block])
	copy(r.Error.Elements, a.Error.Elements[i*block:(i+1)*block])
	copy(r.Valid.Elements, a.Valid.Elements[i*cells:(i+1)*cells])
	for _, v := range r.Valid.Elements {
		if v != 0 {
			r.BinsComputed++
		}
	}
	return r
}

// Counts tallies jobs by status.
func (a *Artifact) Counts() map[domain.JobStatus]int {
	out := make(map[domain.JobStatus]int, 4)
	for _, s := range a.Status {
		out[s]++
	}
	return out
}
