// Package store provides MeasurementStore implementations: a directory of
// daily NetCDF files and an in-memory store.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
)

// ErrNoData is returned by Bounds when the store holds no measurements.
var ErrNoData = errors.New("store holds no measurements")

// DirStore reads measurements from a directory of meteors-YYYYMMDD.nc files,
// one per UTC day. Days without a file simply contribute nothing.
type DirStore struct {
	dir    string
	cache  *dayCache
	logger *slog.Logger
}

// NewDirStore opens a directory store keeping up to cacheSize decoded days.
func NewDirStore(dir string, cacheSize int, logger *slog.Logger) *DirStore {
	return &DirStore{
		dir:    dir,
		cache:  newDayCache(cacheSize),
		logger: logger,
	}
}

// Bounds returns the earliest and latest measurement times in the directory.
func (s *DirStore) Bounds(_ context.Context) (time.Time, time.Time, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "meteors-*.nc"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("list day files: %w", err)
	}
	if len(files) == 0 {
		return time.Time{}, time.Time{}, ErrNoData
	}
	sort.Strings(files)

	first, err := s.day(files[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	last, err := s.day(files[len(files)-1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(first) == 0 || len(last) == 0 {
		return time.Time{}, time.Time{}, ErrNoData
	}
	lo, _ := span(first)
	_, hi := span(last)
	return domain.Measurement{T: lo}.Time(), domain.Measurement{T: hi}.Time(), nil
}

// Read returns every measurement with t0 <= t <= t1, ordered by time.
func (s *DirStore) Read(ctx context.Context, t0, t1 time.Time) (domain.MeasurementSet, error) {
	set := domain.MeasurementSet{From: t0, To: t1}
	if t1.Before(t0) {
		return set, nil
	}
	lo, hi := float64(t0.UnixNano())/1e9, float64(t1.UnixNano())/1e9

	first := t0.UTC().Truncate(24 * time.Hour)
	for day := first; !day.After(t1.UTC()); day = day.Add(24 * time.Hour) {
		if err := ctx.Err(); err != nil {
			return domain.MeasurementSet{}, err
		}
		ms, err := s.day(filepath.Join(s.dir, DayFileName(day)))
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("no day file", "day", day.Format(time.DateOnly))
			continue
		}
		if err != nil {
			return domain.MeasurementSet{}, err
		}
		for _, m := range ms {
			if m.T >= lo && m.T <= hi {
				set.Measurements = append(set.Measurements, m)
			}
		}
	}

	sort.SliceStable(set.Measurements, func(i, j int) bool {
		return set.Measurements[i].T < set.Measurements[j].T
	})
	return set, nil
}

// day decodes one day file, reusing the cached decode while the file is
// unchanged on disk.
func (s *DirStore) day(path string) ([]domain.Measurement, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	stamp := stampOf(info)
	if ms, ok := s.cache.lookup(path, stamp); ok {
		return ms, nil
	}
	ms, err := readDayFile(path)
	if err != nil {
		return nil, err
	}
	s.cache.store(path, stamp, ms)
	return ms, nil
}

// span returns the earliest and latest T of a non-empty slice.
func span(ms []domain.Measurement) (float64, float64) {
	lo, hi := ms[0].T, ms[0].T
	for _, m := range ms[1:] {
		lo = min(lo, m.T)
		hi = max(hi, m.T)
	}
	return lo, hi
}
