package domain

import (
	"fmt"
	"sort"
)

const defaultDCosThreshold = 0.8

// hourly returns 0, 1, ..., n-1 as hours.
func hourly(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// kmRange returns lo, lo+1, ..., hi-1.
func kmRange(lo, hi int) []float64 {
	out := make([]float64, 0, hi-lo)
	for h := lo; h < hi; h++ {
		out = append(out, float64(h))
	}
	return out
}

func smallScale(name string, years, months []int, dsH float64) ScenarioConfig {
	return ScenarioConfig{
		Name:            name,
		Years:           years,
		Months:          months,
		Tods:            hourly(24),
		DT:              1.0,
		Heights:         kmRange(70, 120),
		HorizontalScale: dsH,
		DCosThreshold:   defaultDCosThreshold,
	}
}

// SummerSmall is small-scale kinetic energy over the northern summer months.
func SummerSmall() []ScenarioConfig {
	return []ScenarioConfig{smallScale("summer_small_ke", []int{2018, 2019}, []int{5, 6, 7}, 50)}
}

// WinterSmall is small-scale kinetic energy over the northern winter months.
func WinterSmall() []ScenarioConfig {
	return []ScenarioConfig{smallScale("winter_small_ke", []int{2018, 2019, 2020}, []int{11, 12, 1}, 50)}
}

// MonthlySmall is one small-scale scenario per calendar month.
func MonthlySmall() []ScenarioConfig {
	return monthly("small", 50)
}

// MonthlyLarge is one large-scale scenario per calendar month.
func MonthlyLarge() []ScenarioConfig {
	return monthly("large", 500)
}

func monthly(scale string, dsH float64) []ScenarioConfig {
	out := make([]ScenarioConfig, 0, 12)
	for mi := 0; mi < 12; mi++ {
		name := fmt.Sprintf("%02d_%s_ke", mi, scale)
		out = append(out, smallScale(name, []int{2018, 2019, 2020}, []int{mi + 1}, dsH))
	}
	return out
}

var presets = map[string]func() []ScenarioConfig{
	"summer_small":  SummerSmall,
	"winter_small":  WinterSmall,
	"monthly_small": MonthlySmall,
	"monthly_large": MonthlyLarge,
}

// Preset returns the scenarios of a named preset.
func Preset(name string) ([]ScenarioConfig, error) {
	fn, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidScenario, name)
	}
	return fn(), nil
}

// PresetNames lists the known preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
