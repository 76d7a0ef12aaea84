package domain

import (
	"fmt"
	"math"
	"regexp"
)

var namespaceRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ScenarioConfig fully determines one sweep: its calendar windows, its
// (time-of-day, height) grid and its output namespace. It is not modified
// once the sweep begins.
type ScenarioConfig struct {
	Name            string    `yaml:"name" json:"name"`
	Years           []int     `yaml:"years" json:"years"`
	Months          []int     `yaml:"months" json:"months"`
	Tods            []float64 `yaml:"tods" json:"tods"`               // hours
	DT              float64   `yaml:"dt" json:"dt"`                   // hours, bin half-width
	Heights         []float64 `yaml:"heights" json:"heights"`         // km
	HorizontalScale float64   `yaml:"ds_h" json:"ds_h"`               // horizontal lag scale
	DCosThreshold   float64   `yaml:"dcos_thresh" json:"dcos_thresh"` // direction-cosine cut
}

// Shape returns the (n_tod, n_height) size of the bin grid.
func (sc ScenarioConfig) Shape() (int, int) {
	return len(sc.Tods), len(sc.Heights)
}

// Validate rejects scenarios that would reset a namespace and then fail.
func (sc ScenarioConfig) Validate() error {
	if err := ValidateNamespace(sc.Name); err != nil {
		return err
	}
	if len(sc.Years) == 0 {
		return fmt.Errorf("%w %q: no years", ErrInvalidScenario, sc.Name)
	}
	if len(sc.Months) == 0 {
		return fmt.Errorf("%w %q: no months", ErrInvalidScenario, sc.Name)
	}
	for _, m := range sc.Months {
		if m < 1 || m > 12 {
			return fmt.Errorf("%w %q: month %d outside 1..12", ErrInvalidScenario, sc.Name, m)
		}
	}
	if len(sc.Tods) == 0 {
		return fmt.Errorf("%w %q: no times of day", ErrInvalidScenario, sc.Name)
	}
	for _, tod := range sc.Tods {
		if !(tod >= 0 && tod < 24) {
			return fmt.Errorf("%w %q: time of day %g outside [0, 24)", ErrInvalidScenario, sc.Name, tod)
		}
	}
	if len(sc.Heights) == 0 {
		return fmt.Errorf("%w %q: no heights", ErrInvalidScenario, sc.Name)
	}
	for _, h := range sc.Heights {
		if !finite(h) {
			return fmt.Errorf("%w %q: height %g is not finite", ErrInvalidScenario, sc.Name, h)
		}
	}
	// Comparisons with NaN are false, so each bound is written to fail on it.
	if !(sc.DT > 0) || !finite(sc.DT) {
		return fmt.Errorf("%w %q: dt %g must be positive and finite", ErrInvalidScenario, sc.Name, sc.DT)
	}
	if !(sc.HorizontalScale > 0) || !finite(sc.HorizontalScale) {
		return fmt.Errorf("%w %q: ds_h %g must be positive and finite", ErrInvalidScenario, sc.Name, sc.HorizontalScale)
	}
	if !(sc.DCosThreshold >= 0 && sc.DCosThreshold <= 1) {
		return fmt.Errorf("%w %q: dcos_thresh %g outside [0, 1]", ErrInvalidScenario, sc.Name, sc.DCosThreshold)
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// ValidateNamespace accepts names usable both as a directory and as a KV key token.
func ValidateNamespace(name string) error {
	if !namespaceRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, name)
	}
	return nil
}
