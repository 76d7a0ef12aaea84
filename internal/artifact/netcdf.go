package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
)

// Component order of the second axis of acfs and errs.
const componentNames = "uu vv ww uv uw vw"

var (
	cellDims = []string{"job", "component", "tod", "height"}
	maskDims = []string{"job", "tod", "height"}
	jobVars  = []string{"job_year", "job_month", "job_day", "job_status"}
)

func (a *Artifact) header() *cdf.Header {
	h := cdf.NewHeader(
		[]string{"job", "component", "tod", "height"},
		[]int{len(a.Jobs), domain.NumACFComponents, len(a.Tods), len(a.Heights)},
	)
	h.AddAttribute("", "namespace", a.Namespace)
	h.AddAttribute("", "worker_index", []int32{int32(a.Worker.Index)})
	h.AddAttribute("", "worker_count", []int32{int32(a.Worker.Count)})
	h.AddAttribute("", "ds_h", []float64{a.HorizontalScale})
	h.AddAttribute("", "components", componentNames)

	h.AddVariable("acfs", cellDims, []float64{0})
	h.AddAttribute("acfs", "units", "m2 s-2")
	h.AddVariable("errs", cellDims, []float64{0})
	h.AddAttribute("errs", "description", "One-sigma least-squares error of acfs")
	h.AddVariable("valid", maskDims, []int32{0})
	h.AddAttribute("valid", "description", "1 where the bin held enough pairs to estimate")

	h.AddVariable("tods", []string{"tod"}, []float64{0})
	h.AddAttribute("tods", "units", "hours")
	h.AddVariable("heights", []string{"height"}, []float64{0})
	h.AddAttribute("heights", "units", "km")
	for _, name := range jobVars {
		h.AddVariable(name, []string{"job"}, []int32{0})
	}
	h.AddAttribute("job_status", "flag_meanings", "pending complete skipped failed")
	h.Define()
	return h
}

// WriteFile encodes the artifact at path, replacing any previous version
// atomically so readers only ever see a complete checkpoint.
func (a *Artifact) WriteFile(path string) error {
	if len(a.Jobs) == 0 {
		return fmt.Errorf("write %s: artifact has no jobs", filepath.Base(path))
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	defer os.Remove(tmp) //nolint:errcheck // no-op after a successful rename

	nf, err := cdf.Create(f, a.header())
	if err != nil {
		f.Close()
		return fmt.Errorf("write artifact header: %w", err)
	}

	years := make([]int32, len(a.Jobs))
	months := make([]int32, len(a.Jobs))
	days := make([]int32, len(a.Jobs))
	status := make([]int32, len(a.Jobs))
	for i, j := range a.Jobs {
		years[i], months[i], days[i] = int32(j.Year), int32(j.Month), int32(j.Day)
		status[i] = int32(a.Status[i])
	}
	valid := make([]int32, len(a.Valid.Elements))
	for i, v := range a.Valid.Elements {
		valid[i] = int32(v)
	}

	writes := []struct {
		name string
		data interface{}
	}{
		{"acfs", a.Result.Elements},
		{"errs", a.Error.Elements},
		{"valid", valid},
		{"tods", a.Tods},
		{"heights", a.Heights},
		{"job_year", years},
		{"job_month", months},
		{"job_day", days},
		{"job_status", status},
	}
	for _, w := range writes {
		if err := writeVar(nf, w.name, w.data); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	return os.Rename(tmp, path)
}

func writeVar(f *cdf.File, name string, data interface{}) error {
	end := f.Header.Lengths(name)
	w := f.Writer(name, make([]int, len(end)), end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func readVar(f *cdf.File, name string) (interface{}, []int, error) {
	end := f.Header.Lengths(name)
	if len(end) == 0 {
		return nil, nil, fmt.Errorf("variable %s missing", name)
	}
	n := 1
	for _, l := range end {
		n *= l
	}
	r := f.Reader(name, make([]int, len(end)), end)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", name, err)
	}
	return buf, end, nil
}

func readFloats(f *cdf.File, name string) ([]float64, []int, error) {
	buf, shape, err := readVar(f, name)
	if err != nil {
		return nil, nil, err
	}
	v, ok := buf.([]float64)
	if !ok {
		return nil, nil, fmt.Errorf("variable %s is not double", name)
	}
	return v, shape, nil
}

func readInts(f *cdf.File, name string) ([]int32, error) {
	buf, _, err := readVar(f, name)
	if err != nil {
		return nil, err
	}
	v, ok := buf.([]int32)
	if !ok {
		return nil, fmt.Errorf("variable %s is not int", name)
	}
	return v, nil
}

func intAttr(h *cdf.Header, name string) (int, error) {
	v, ok := h.GetAttribute("", name).([]int32)
	if !ok || len(v) != 1 {
		return 0, fmt.Errorf("global attribute %s missing", name)
	}
	return int(v[0]), nil
}

// ReadFile decodes an artifact written by WriteFile.
func ReadFile(path string) (*Artifact, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := cdf.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}

	a := &Artifact{}
	if ns, ok := f.Header.GetAttribute("", "namespace").(string); ok {
		a.Namespace = ns
	}
	if a.Worker.Index, err = intAttr(f.Header, "worker_index"); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if a.Worker.Count, err = intAttr(f.Header, "worker_count"); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	a.Worker.IsCoordinator = a.Worker.Index == 0
	if dsh, ok := f.Header.GetAttribute("", "ds_h").([]float64); ok && len(dsh) == 1 {
		a.HorizontalScale = dsh[0]
	}

	if a.Tods, _, err = readFloats(f, "tods"); err != nil {
		return nil, err
	}
	if a.Heights, _, err = readFloats(f, "heights"); err != nil {
		return nil, err
	}

	cols := make([][]int32, len(jobVars))
	for i, name := range jobVars {
		if cols[i], err = readInts(f, name); err != nil {
			return nil, err
		}
	}
	nJobs := len(cols[0])
	a.Jobs = make([]domain.Job, nJobs)
	a.Status = make([]domain.JobStatus, nJobs)
	for i := 0; i < nJobs; i++ {
		a.Jobs[i] = domain.Job{Year: int(cols[0][i]), Month: int(cols[1][i]), Day: int(cols[2][i])}
		a.Status[i] = domain.JobStatus(cols[3][i])
	}

	a.Result = sparse.ZerosDense(nJobs, domain.NumACFComponents, len(a.Tods), len(a.Heights))
	a.Error = sparse.ZerosDense(nJobs, domain.NumACFComponents, len(a.Tods), len(a.Heights))
	for _, v := range []struct {
		name string
		dst  *sparse.DenseArray
	}{{"acfs", a.Result}, {"errs", a.Error}} {
		data, _, err := readFloats(f, v.name)
		if err != nil {
			return nil, err
		}
		if len(data) != len(v.dst.Elements) {
			return nil, fmt.Errorf("%s: %s has %d cells, want %d", filepath.Base(path), v.name, len(data), len(v.dst.Elements))
		}
		copy(v.dst.Elements, data)
	}

	valid, err := readInts(f, "valid")
	if err != nil {
		return nil, err
	}
	a.Valid = sparse.ZerosDense(nJobs, len(a.Tods), len(a.Heights))
	if len(valid) != len(a.Valid.Elements) {
		return nil, fmt.Errorf("%s: valid mask has %d cells, want %d", filepath.Base(path), len(valid), len(a.Valid.Elements))
	}
	for i, v := range valid {
		a.Valid.Elements[i] = float64(v)
	}
	return a, nil
}
