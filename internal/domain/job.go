package domain

import (
	"fmt"
	"time"
)

// WindowLength is the span of one calendar-window job.
const WindowLength = 7 * 24 * time.Hour

// WindowPad widens the read on both sides so bins straddling the window edge
// still see their neighbours.
const WindowPad = time.Hour

// DayOffsets are the starting days of the four weekly windows in a month.
var DayOffsets = [...]int{1, 8, 15, 22}

// Job identifies one 7-day analysis window starting at Day of Month/Year.
type Job struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Start returns midnight of the job's first day in loc.
func (j Job) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(j.Year, time.Month(j.Month), j.Day, 0, 0, 0, 0, loc)
}

// Window returns the padded read range [start-1h, start+7d+1h].
func (j Job) Window(loc *time.Location) (time.Time, time.Time) {
	start := j.Start(loc)
	return start.Add(-WindowPad), start.Add(WindowLength + WindowPad)
}

// Key is a stable, sortable label for logs and event keys.
func (j Job) Key() string {
	return fmt.Sprintf("%04d-%02d-%02d", j.Year, j.Month, j.Day)
}

func (j Job) String() string {
	return j.Key()
}
