// Command gensynth writes synthetic daily meteor files in the layout read by
// kesweep, optionally with a scenario file covering the generated months.
//
// Usage:
//
//	go run ./cmd/gensynth \
//	  -out data \
//	  -start 2018-06-01 -days 30 \
//	  -scenario-out scenarios.yaml
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
	"github.com/couchcryptid/meteor-ke-sweep/internal/store"
	"github.com/couchcryptid/meteor-ke-sweep/internal/synth"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	def := synth.DefaultConfig()

	out := flag.String("out", "data", "directory for meteors-YYYYMMDD.nc files")
	startFlag := flag.String("start", "2018-06-01", "first UTC day (YYYY-MM-DD)")
	days := flag.Int("days", 30, "number of days to write")
	perHour := flag.Int("per-hour", def.PerHour, "echoes per hour")
	seed := flag.Uint64("seed", def.Seed, "random seed")
	wind := flag.String("wind", "10,-5,0", "mean wind east,north,up in m/s")
	gust := flag.String("gust", "15,15,1", "hourly perturbation std dev east,north,up in m/s")
	noise := flag.Float64("noise", def.Noise, "Doppler noise std dev in m/s")
	scenarioOut := flag.String("scenario-out", "", "optional path for a matching scenario YAML")
	flag.Parse()

	start, err := time.Parse(time.DateOnly, *startFlag)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	if *days < 1 || *perHour < 1 {
		flag.Usage()
		return fmt.Errorf("-days and -per-hour must be positive")
	}

	cfg := def
	cfg.PerHour = *perHour
	cfg.Seed = *seed
	cfg.Noise = *noise
	if cfg.Wind, err = parseVector(*wind); err != nil {
		return fmt.Errorf("invalid -wind: %w", err)
	}
	if cfg.Gust, err = parseVector(*gust); err != nil {
		return fmt.Errorf("invalid -gust: %w", err)
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	gen := synth.NewGenerator(cfg)
	total := 0
	for i := 0; i < *days; i++ {
		day := start.AddDate(0, 0, i)
		ms := gen.Day(day)
		if err := store.WriteDay(*out, day, ms); err != nil {
			return err
		}
		total += len(ms)
	}
	log.Printf("wrote %d days, %d echoes to %s", *days, total, *out)

	if *scenarioOut != "" {
		sc := coveringScenario(start, start.AddDate(0, 0, *days-1))
		if err := writeYAML(*scenarioOut, []domain.ScenarioConfig{sc}); err != nil {
			return err
		}
		log.Printf("wrote scenario %q to %s", sc.Name, *scenarioOut)
	}
	return nil
}

func parseVector(s string) ([3]float64, error) {
	var v [3]float64
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("want three comma-separated values, got %q", s)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

// coveringScenario sweeps every month touched by [first, last] with a coarse
// 3-hour grid.
func coveringScenario(first, last time.Time) domain.ScenarioConfig {
	var years, months []int
	seenYear := map[int]bool{}
	seenMonth := map[int]bool{}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if !seenYear[d.Year()] {
			seenYear[d.Year()] = true
			years = append(years, d.Year())
		}
		if m := int(d.Month()); !seenMonth[m] {
			seenMonth[m] = true
			months = append(months, m)
		}
	}

	var tods []float64
	for h := 0; h < 24; h += 3 {
		tods = append(tods, float64(h))
	}
	var heights []float64
	for h := 80; h <= 100; h += 2 {
		heights = append(heights, float64(h))
	}
	return domain.ScenarioConfig{
		Name:            fmt.Sprintf("synth_%s_ke", first.Format("20060102")),
		Years:           years,
		Months:          months,
		Tods:            tods,
		DT:              1.5,
		Heights:         heights,
		HorizontalScale: 50,
		DCosThreshold:   0.5,
	}
}

func writeYAML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
