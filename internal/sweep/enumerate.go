// Package sweep runs a scenario: it enumerates the calendar-window jobs,
// gives each worker its fixed-stride share, sweeps the (time-of-day, height)
// grid of every job and checkpoints the worker's artifact as it goes.
package sweep

import "github.com/couchcryptid/meteor-ke-sweep/internal/domain"

// Enumerate returns four weekly jobs for every (year, month) pair, years
// outermost, in the order given. Duplicate inputs yield duplicate jobs.
func Enumerate(years, months []int) []domain.Job {
	jobs := make([]domain.Job, 0, len(domain.DayOffsets)*len(years)*len(months))
	for _, y := range years {
		for _, m := range months {
			for _, d := range domain.DayOffsets {
				jobs = append(jobs, domain.Job{Year: y, Month: m, Day: d})
			}
		}
	}
	return jobs
}
