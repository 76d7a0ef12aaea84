package sweep

import "github.com/couchcryptid/meteor-ke-sweep/internal/domain"

// Assign returns the jobs at positions index, index+count, index+2*count, ...
// Every job lands on exactly one worker and keeps its relative order. A worker
// whose index is past the end of jobs gets nothing.
func Assign(jobs []domain.Job, count, index int) []domain.Job {
	if count < 1 || index < 0 || index >= len(jobs) {
		return nil
	}
	out := make([]domain.Job, 0, (len(jobs)-index+count-1)/count)
	for i := index; i < len(jobs); i += count {
		out = append(out, jobs[i])
	}
	return out
}
