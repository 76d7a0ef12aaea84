// Command inspect checks the worker artifacts of one namespace against the
// scenario that produced them: every file decodes, axes match the scenario,
// each worker holds exactly its fixed-stride share of the jobs, and every job
// appears in exactly one artifact.
//
// Usage:
//
//	go run ./cmd/inspect \
//	  -output-dir mpi \
//	  -scenario summer_small \
//	  -workers 8
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/couchcryptid/meteor-ke-sweep/internal/artifact"
	"github.com/couchcryptid/meteor-ke-sweep/internal/config"
	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
	"github.com/couchcryptid/meteor-ke-sweep/internal/sweep"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	outputDir := flag.String("output-dir", "mpi", "root of the namespace directories")
	preset := flag.String("scenario", "summer_small", "scenario preset name")
	scenarioFile := flag.String("scenario-file", "", "YAML scenario file; overrides -scenario")
	workers := flag.Int("workers", 1, "worker count the sweep ran with")
	flag.Parse()

	if *workers < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := &config.Config{Scenario: *preset, ScenarioFile: *scenarioFile}
	scenarios, err := cfg.Scenarios()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	code := 0
	for _, sc := range scenarios {
		if run(*outputDir, sc, *workers) != 0 {
			code = 1
		}
	}
	os.Exit(code)
}

func run(outputDir string, sc domain.ScenarioConfig, workers int) int {
	fmt.Printf("=== Namespace %s (%d workers) ===\n\n", sc.Name, workers)

	paths, err := artifact.Discover(outputDir, sc.Name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: discover %s: %v\n", sc.Name, err)
		return 1
	}

	decode := &phase{name: "Artifacts decode"}
	artifacts := make(map[int]*artifact.Artifact, len(paths))
	for _, p := range paths {
		a, err := artifact.ReadFile(p)
		if err != nil {
			decode.errorf("%s: %v", p, err)
			continue
		}
		artifacts[a.Worker.Index] = a
	}

	phases := []*phase{
		decode,
		validateAxes(artifacts, sc, workers),
		validateCoverage(artifacts, sc, workers),
		validateCells(artifacts),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	counts := map[domain.JobStatus]int{}
	for _, a := range artifacts {
		for s, n := range a.Counts() {
			counts[s] += n
		}
	}
	fmt.Println()
	fmt.Printf("Jobs: %d complete, %d skipped, %d failed, %d pending across %d artifacts\n",
		counts[domain.JobComplete], counts[domain.JobSkipped], counts[domain.JobFailed], counts[domain.JobPending], len(artifacts))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll checks passed.")
		return 0
	}
	fmt.Println("\nInspection FAILED.")
	return 1
}

func validateAxes(artifacts map[int]*artifact.Artifact, sc domain.ScenarioConfig, workers int) *phase {
	p := &phase{name: "Axes match scenario"}
	for idx, a := range artifacts {
		if a.Worker.Count != workers {
			p.errorf("worker %d: written by a pool of %d", idx, a.Worker.Count)
		}
		if a.Namespace != sc.Name {
			p.errorf("worker %d: namespace attribute %q", idx, a.Namespace)
		}
		if !slices.Equal(a.Tods, sc.Tods) {
			p.errorf("worker %d: tods %v, want %v", idx, a.Tods, sc.Tods)
		}
		if !slices.Equal(a.Heights, sc.Heights) {
			p.errorf("worker %d: heights %v, want %v", idx, a.Heights, sc.Heights)
		}
		if a.HorizontalScale != sc.HorizontalScale {
			p.errorf("worker %d: ds_h %g, want %g", idx, a.HorizontalScale, sc.HorizontalScale)
		}
		want := []int{len(a.Jobs), domain.NumACFComponents, len(sc.Tods), len(sc.Heights)}
		if !slices.Equal(a.Result.Shape, want) {
			p.errorf("worker %d: acfs shape %v, want %v", idx, a.Result.Shape, want)
		}
	}
	return p
}

func validateCoverage(artifacts map[int]*artifact.Artifact, sc domain.ScenarioConfig, workers int) *phase {
	p := &phase{name: "Every job in exactly one artifact"}
	jobs := sweep.Enumerate(sc.Years, sc.Months)

	for idx := 0; idx < workers; idx++ {
		share := sweep.Assign(jobs, workers, idx)
		a, ok := artifacts[idx]
		switch {
		case !ok && len(share) > 0:
			p.errorf("worker %d: missing artifact for %d jobs", idx, len(share))
		case ok && !slices.Equal(a.Jobs, share):
			p.errorf("worker %d: holds %d jobs, want its %d-job share", idx, len(a.Jobs), len(share))
		}
	}
	for idx := range artifacts {
		if idx >= workers {
			p.errorf("unexpected artifact for worker %d", idx)
		}
	}
	return p
}

func validateCells(artifacts map[int]*artifact.Artifact) *phase {
	p := &phase{name: "Cells consistent with status and mask"}
	for idx, a := range artifacts {
		cells := len(a.Tods) * len(a.Heights)
		for j, job := range a.Jobs {
			if a.Status[j] == domain.JobComplete {
				continue
			}
			for c := j * cells; c < (j+1)*cells; c++ {
				if a.Valid.Elements[c] != 0 {
					p.errorf("worker %d job %s: %s job has valid cells", idx, job, a.Status[j])
					break
				}
			}
		}
		for _, v := range a.Result.Elements {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				p.errorf("worker %d: non-finite ACF value", idx)
				break
			}
		}
	}
	return p
}
