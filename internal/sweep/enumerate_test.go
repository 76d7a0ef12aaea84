package sweep_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
	"github.com/couchcryptid/meteor-ke-sweep/internal/sweep"
)

func TestEnumerate_Order(t *testing.T) {
	jobs := sweep.Enumerate([]int{2019, 2018}, []int{12, 1})

	want := []domain.Job{
		{Year: 2019, Month: 12, Day: 1}, {Year: 2019, Month: 12, Day: 8}, {Year: 2019, Month: 12, Day: 15}, {Year: 2019, Month: 12, Day: 22},
		{Year: 2019, Month: 1, Day: 1}, {Year: 2019, Month: 1, Day: 8}, {Year: 2019, Month: 1, Day: 15}, {Year: 2019, Month: 1, Day: 22},
		{Year: 2018, Month: 12, Day: 1}, {Year: 2018, Month: 12, Day: 8}, {Year: 2018, Month: 12, Day: 15}, {Year: 2018, Month: 12, Day: 22},
		{Year: 2018, Month: 1, Day: 1}, {Year: 2018, Month: 1, Day: 8}, {Year: 2018, Month: 1, Day: 15}, {Year: 2018, Month: 1, Day: 22},
	}
	if diff := cmp.Diff(want, jobs); diff != "" {
		t.Fatalf("jobs mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumerate_CountAndDistinct(t *testing.T) {
	years := []int{2018, 2019, 2020}
	months := []int{5, 6, 7}
	jobs := sweep.Enumerate(years, months)

	assert.Len(t, jobs, 4*len(years)*len(months))
	seen := make(map[domain.Job]bool)
	for _, j := range jobs {
		assert.False(t, seen[j], "duplicate job %s", j)
		seen[j] = true
	}
}

func TestEnumerate_DuplicatesPropagate(t *testing.T) {
	jobs := sweep.Enumerate([]int{2020, 2020}, []int{6})
	assert.Len(t, jobs, 8)
	assert.Equal(t, jobs[:4], jobs[4:])
}

func TestEnumerate_Empty(t *testing.T) {
	assert.Empty(t, sweep.Enumerate(nil, []int{6}))
	assert.Empty(t, sweep.Enumerate([]int{2020}, nil))
}

func TestAssign_Stride(t *testing.T) {
	jobs := sweep.Enumerate([]int{2020}, []int{6, 7}) // 8 jobs

	assert.Equal(t, []domain.Job{jobs[1], jobs[4], jobs[7]}, sweep.Assign(jobs, 3, 1))
	assert.Equal(t, jobs, sweep.Assign(jobs, 1, 0))
}

func TestAssign_PartitionsEveryJobOnce(t *testing.T) {
	for _, n := range []int{1, 4, 12, 37} {
		for _, count := range []int{1, 2, 3, 5, 8, 40} {
			jobs := make([]domain.Job, n)
			for i := range jobs {
				jobs[i] = domain.Job{Year: 2000 + i, Month: 1, Day: 1}
			}

			owner := make(map[domain.Job]int)
			for idx := 0; idx < count; idx++ {
				share := sweep.Assign(jobs, count, idx)
				prev := -1
				for _, j := range share {
					_, dup := owner[j]
					assert.False(t, dup, "n=%d count=%d: job %s assigned twice", n, count, j)
					owner[j] = idx
					pos := j.Year - 2000
					assert.Greater(t, pos, prev, "relative order kept")
					prev = pos
				}
			}
			assert.Len(t, owner, n, "n=%d count=%d", n, count)
		}
	}
}

func TestAssign_MoreWorkersThanJobs(t *testing.T) {
	jobs := sweep.Enumerate([]int{2020}, []int{6})
	assert.Empty(t, sweep.Assign(jobs, 8, 4))
	assert.Empty(t, sweep.Assign(jobs, 8, 7))
	assert.Equal(t, []domain.Job{jobs[3]}, sweep.Assign(jobs, 8, 3))
}
