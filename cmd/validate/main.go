// Command validate performs integrity checks on a regional dataset and,
// optionally, a region update fixture produced by genmock. It verifies field
// ranges, grade consistency, the published national figures, and that every
// value renders to its formatted text under every count-up style.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -dataset internal/domain/regions.yaml \
//	  -updates data/mock/region_updates.json
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/safety-dashboard/internal/countup"
	"github.com/couchcryptid/safety-dashboard/internal/domain"
)

// expectedRegions is the number of first-tier administrative divisions.
const expectedRegions = 17

// maxNationalDrift is how far published national averages may stray from the
// regional mean before it is flagged.
const maxNationalDrift = 5.0

var styles = []countup.Style{
	countup.StyleSmooth,
	countup.StyleSequential,
	countup.StyleRolling,
	countup.StyleCascade,
	countup.StyleCounter,
}

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
	datasetPath := flag.String("dataset", "", "dataset YAML file (default: embedded dataset)")
	updatesPath := flag.String("updates", "", "region update JSON fixture (optional)")
	flag.Parse()

	os.Exit(run(*datasetPath, *updatesPath))
}

func run(datasetPath, updatesPath string) int {
	fmt.Println("=== Safety Dashboard Data Validation ===")
	fmt.Println()

	ds, err := loadRaw(datasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRecords(ds),
		validateGrades(ds),
		validateNational(ds),
		validateRendering(ds),
	}

	var updates []domain.RegionUpdate
	if updatesPath != "" {
		updates, err = loadJSON[domain.RegionUpdate](updatesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load updates: %v\n", err)
			return 1
		}
		phases = append(phases, validateUpdates(ds, updates))
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

	fmt.Println()
	message.NewPrinter(language.Korean).Printf("Records: %d regions as of %s, %d updates\n", len(ds.Regions), ds.AsOf, len(updates))

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
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// loadRaw decodes a dataset without validating it so every problem can be
// reported, not just the first.
func loadRaw(path string) (domain.Dataset, error) {
	var data []byte
	if path == "" {
		ds, err := domain.DefaultDataset()
		if err != nil {
			return domain.Dataset{}, err
		}
		if data, err = yaml.Marshal(ds); err != nil {
			return domain.Dataset{}, err
		}
	} else {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return domain.Dataset{}, err
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var ds domain.Dataset
	if err := dec.Decode(&ds); err != nil {
		return domain.Dataset{}, fmt.Errorf("decode: %w", err)
	}
	return ds, nil
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ── Phase 1: records ──

func validateRecords(ds domain.Dataset) *phase {
	p := &phase{name: "Phase 1: Region records"}

	if !domain.IsAsOf(ds.AsOf) {
		p.errorf("as_of %q is not YYYY.MM", ds.AsOf)
	}
	if len(ds.Regions) != expectedRegions {
		p.errorf("expected %d regions, got %d", expectedRegions, len(ds.Regions))
	}

	codes := make(map[string]int)
	names := make(map[string]int)
	for i, r := range ds.Regions {
		// Grade problems are reported by phase 2.
		r.Grade = ""
		if err := r.Validate(); err != nil {
			p.errorf("region %d: %v", i+1, err)
		}
		if prev, ok := codes[r.Code]; ok {
			p.errorf("region %d: code %q already used by region %d", i+1, r.Code, prev)
		}
		if prev, ok := names[r.Name]; ok {
			p.errorf("region %d: name %q already used by region %d", i+1, r.Name, prev)
		}
		codes[r.Code] = i + 1
		names[r.Name] = i + 1
	}
	return p
}

// ── Phase 2: grades ──

func validateGrades(ds domain.Dataset) *phase {
	p := &phase{name: "Phase 2: Grade consistency"}
	for _, r := range ds.Regions {
		if r.Grade == "" {
			continue
		}
		if _, err := domain.ParseGrade(string(r.Grade)); err != nil {
			p.errorf("%s: %v", r.Code, err)
			continue
		}
		if want := domain.GradeFor(r.Index); r.Grade != want {
			p.errorf("%s: grade %s, index %g is %s", r.Code, r.Grade, r.Index, want)
		}
	}
	return p
}

// ── Phase 3: national figures ──

func validateNational(ds domain.Dataset) *phase {
	p := &phase{name: "Phase 3: National figures"}
	printer := message.NewPrinter(language.Korean)
	derived := domain.Summarize(ds.Regions, nil, ds.AsOf)
	n := ds.National
	if n == nil {
		printer.Printf("  national: derived from regions (%d schools, average %.1f)\n", derived.Schools, derived.AverageIndex)
		return p
	}

	if n.Schools < 0 || n.SGradeSchools < 0 {
		p.errorf("negative national school counts %d/%d", n.SGradeSchools, n.Schools)
	}
	if n.SGradeSchools > n.Schools {
		p.errorf("S-grade schools %d exceed total schools %d", n.SGradeSchools, n.Schools)
	}
	if n.AverageIndex < 0 || n.AverageIndex > domain.MaxIndex {
		p.errorf("national average index %g outside 0-%d", n.AverageIndex, domain.MaxIndex)
	}
	if drift := math.Abs(n.AverageIndex - derived.AverageIndex); n.AverageIndex > 0 && drift > maxNationalDrift {
		p.errorf("national average %.1f is %.1f points from the regional mean %.1f", n.AverageIndex, drift, derived.AverageIndex)
	}
	printer.Printf("  national: published %d schools / average %.1f, regions sum to %d / %.1f\n",
		n.Schools, n.AverageIndex, derived.Schools, derived.AverageIndex)
	return p
}

// ── Phase 4: rendering ──

// validateRendering plays every dashboard value under every style and checks
// that the animation settles on the formatted text.
func validateRendering(ds domain.Dataset) *phase {
	p := &phase{name: "Phase 4: Count-up rendering"}

	s := domain.Summarize(ds.Regions, ds.National, ds.AsOf)
	type value struct {
		name     string
		target   countup.Target
		date     bool
		decimals int
	}
	values := []value{
		{"summary.schools", countup.Number(float64(s.Schools)), false, 0},
		{"summary.average_index", countup.Number(s.AverageIndex), false, 1},
		{"summary.s_grade_schools", countup.Number(float64(s.SGradeSchools)), false, 0},
		{"summary.as_of", countup.Text(s.AsOf), true, 0},
	}
	for _, r := range ds.Regions {
		values = append(values,
			value{"region." + r.Code + ".index", countup.Number(r.Index), false, 0},
			value{"region." + r.Code + ".schools", countup.Number(float64(r.Schools)), false, 0},
		)
	}

	for _, st := range styles {
		for _, v := range values {
			opts := st.Options(v.date)
			opts.Decimals = v.decimals
			want := countup.Format(v.target, opts)
			frames := countup.Render(v.target, opts, countup.DefaultFrameInterval)
			last := frames[len(frames)-1]
			if last.Text != want {
				p.errorf("%s/%s: settled on %q, want %q", st, v.name, last.Text, want)
			}
			if last.Offset > 10*time.Second {
				p.errorf("%s/%s: took %s to settle", st, v.name, last.Offset)
			}
		}
	}
	return p
}

// ── Phase 5: update fixture ──

func validateUpdates(ds domain.Dataset, updates []domain.RegionUpdate) *phase {
	p := &phase{name: "Phase 5: Update fixture"}

	last := make(map[string]time.Time)
	for i, u := range updates {
		if _, ok := ds.Region(u.Code); !ok {
			p.errorf("update %d: unknown region %q", i+1, u.Code)
			continue
		}

		// What genmock writes must survive the pipeline's parser.
		value, err := json.Marshal(u)
		if err != nil {
			p.errorf("update %d: %v", i+1, err)
			continue
		}
		parsed, err := domain.ParseRegionUpdate(domain.RawEvent{Value: value, Timestamp: u.UpdatedAt})
		if err != nil {
			p.errorf("update %d: %v", i+1, err)
			continue
		}
		if parsed.Grade != domain.GradeFor(u.Index) {
			p.errorf("update %d: %s grade %s, index %g", i+1, u.Code, parsed.Grade, u.Index)
		}
		if prev, ok := last[u.Code]; ok && u.UpdatedAt.Before(prev) {
			p.errorf("update %d: %s goes back in time (%s before %s)", i+1, u.Code,
				u.UpdatedAt.Format(time.RFC3339), prev.Format(time.RFC3339))
		}
		last[u.Code] = u.UpdatedAt
	}
	return p
}
