package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ctessum/cdf"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
)

const dayLayout = "20060102"

// Variables of a day file, each a double along the "meteor" dimension.
var dayVars = []string{"t", "east", "north", "up", "kx", "ky", "kz", "v"}

var errEmptyDay = errors.New("day has no measurements")

// DayFileName returns the file name holding the UTC day containing t.
func DayFileName(t time.Time) string {
	return "meteors-" + t.UTC().Format(dayLayout) + ".nc"
}

// WriteDay writes measurements as the day file for day in dir. The caller is
// responsible for every measurement belonging to that UTC day.
func WriteDay(dir string, day time.Time, ms []domain.Measurement) error {
	if len(ms) == 0 {
		// A zero-length dimension would be read back as the record dimension.
		return fmt.Errorf("write %s: %w", DayFileName(day), errEmptyDay)
	}

	h := cdf.NewHeader([]string{"meteor"}, []int{len(ms)})
	h.AddAttribute("", "comment", "Specular meteor radar wind measurements")
	h.AddAttribute("", "day", day.UTC().Format(dayLayout))
	for _, name := range dayVars {
		h.AddVariable(name, []string{"meteor"}, []float64{0})
	}
	h.AddAttribute("t", "units", "seconds since 1970-01-01 00:00:00 UTC")
	h.AddAttribute("east", "units", "km")
	h.AddAttribute("north", "units", "km")
	h.AddAttribute("up", "units", "km")
	h.AddAttribute("v", "units", "m s-1")
	h.AddAttribute("v", "description", "Radial Doppler velocity along (kx, ky, kz)")
	h.Define()

	path := filepath.Join(dir, DayFileName(day))
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create day file: %w", err)
	}
	defer os.Remove(tmp) //nolint:errcheck // no-op after a successful rename

	nf, err := cdf.Create(f, h)
	if err != nil {
		f.Close()
		return fmt.Errorf("write day header: %w", err)
	}
	columns := splitColumns(ms)
	for i, name := range dayVars {
		if err := writeColumn(nf, name, columns[i]); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close day file: %w", err)
	}
	return os.Rename(tmp, path)
}

func splitColumns(ms []domain.Measurement) [][]float64 {
	cols := make([][]float64, len(dayVars))
	for i := range cols {
		cols[i] = make([]float64, len(ms))
	}
	for j, m := range ms {
		cols[0][j] = m.T
		cols[1][j] = m.East
		cols[2][j] = m.North
		cols[3][j] = m.Up
		cols[4][j] = m.K[0]
		cols[5][j] = m.K[1]
		cols[6][j] = m.K[2]
		cols[7][j] = m.V
	}
	return cols
}

func writeColumn(f *cdf.File, name string, data []float64) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// readDayFile decodes one day file. A missing file yields os.ErrNotExist.
func readDayFile(path string) ([]domain.Measurement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	nf, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}

	cols := make([][]float64, len(dayVars))
	for i, name := range dayVars {
		col, err := readColumn(nf, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		cols[i] = col
	}

	n := len(cols[0])
	ms := make([]domain.Measurement, n)
	for j := 0; j < n; j++ {
		ms[j] = domain.Measurement{
			T:     cols[0][j],
			East:  cols[1][j],
			North: cols[2][j],
			Up:    cols[3][j],
			K:     [3]float64{cols[4][j], cols[5][j], cols[6][j]},
			V:     cols[7][j],
		}
	}
	return ms, nil
}

func readColumn(f *cdf.File, name string) ([]float64, error) {
	end := f.Header.Lengths(name)
	if len(end) != 1 {
		return nil, fmt.Errorf("variable %s missing or not 1-D", name)
	}
	r := f.Reader(name, make([]int, 1), end)
	buf := r.Zero(end[0])
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	col, ok := buf.([]float64)
	if !ok {
		return nil, fmt.Errorf("variable %s is not double", name)
	}
	return col, nil
}
