package domain

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var defaultDataset []byte

// National holds nationwide figures published alongside the regions. Zero
// fields are derived from the regions instead.
type National struct {
	Schools       int     `yaml:"schools" json:"schools"`
	AverageIndex  float64 `yaml:"average_index" json:"average_index"`
	SGradeSchools int     `yaml:"s_grade_schools" json:"s_grade_schools"`
}

// Dataset is a published snapshot of every region.
type Dataset struct {
	AsOf     string    `yaml:"as_of" json:"as_of"`
	National *National `yaml:"national,omitempty" json:"national,omitempty"`
	Regions  []Region  `yaml:"regions" json:"regions"`
}

// DefaultDataset returns the built-in September 2024 snapshot.
func DefaultDataset() (Dataset, error) {
	return LoadDataset(bytes.NewReader(defaultDataset))
}

// LoadDatasetFile reads and validates a YAML dataset file.
func LoadDatasetFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := LoadDataset(f)
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// LoadDataset decodes a YAML dataset, fills in missing grades and validates
// the result. Unknown fields are rejected.
func LoadDataset(r io.Reader) (Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return Dataset{}, err
	}
	for i := range ds.Regions {
		ds.Regions[i] = ds.Regions[i].Normalize()
	}
	return ds, nil
}

// Validate reports every problem in the dataset, joined.
func (d Dataset) Validate() error {
	var errs []error
	if !IsAsOf(d.AsOf) {
		errs = append(errs, fmt.Errorf("%w: as_of %q is not YYYY.MM", ErrInvalidRegion, d.AsOf))
	}
	if len(d.Regions) == 0 {
		errs = append(errs, fmt.Errorf("%w: dataset has no regions", ErrInvalidRegion))
	}

	seen := make(map[string]bool, len(d.Regions))
	for _, r := range d.Regions {
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[r.Code] {
			errs = append(errs, fmt.Errorf("%w: duplicate region code %q", ErrInvalidRegion, r.Code))
		}
		seen[r.Code] = true
	}

	if n := d.National; n != nil {
		if n.Schools < 0 || n.SGradeSchools < 0 || n.SGradeSchools > n.Schools {
			errs = append(errs, fmt.Errorf("%w: national school counts %d/%d", ErrInvalidRegion, n.SGradeSchools, n.Schools))
		}
		if err := validateIndex(n.AverageIndex); err != nil {
			errs = append(errs, fmt.Errorf("national: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Region looks up a region by code.
func (d Dataset) Region(code string) (Region, bool) {
	for _, r := range d.Regions {
		if r.Code == code {
			return r, true
		}
	}
	return Region{}, false
}

// Summary returns the nationwide summary cards for the dataset.
func (d Dataset) Summary() Summary {
	return Summarize(d.Regions, d.National, d.AsOf)
}
