package domain

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"
)

var (
	// ErrInvalidRegion marks region data that fails validation.
	ErrInvalidRegion = errors.New("invalid region")
	// ErrUnknownRegion marks a region code that is not on the board.
	ErrUnknownRegion = errors.New("unknown region")
)

// regionCodeRe matches romanized region codes such as "seoul" or "gyeongbuk".
var regionCodeRe = regexp.MustCompile(`^[a-z]{2,16}$`)

// Grade is the letter band of a safety index.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// Grades lists every grade from best to worst.
var Grades = []Grade{GradeS, GradeA, GradeB, GradeC, GradeD}

// MaxIndex is the upper bound of the safety index scale.
const MaxIndex = 100

// GradeFor returns the band an index falls into:
//
//	S ≥ 90 | A 80–89 | B 60–79 | C 40–59 | D < 40
func GradeFor(index float64) Grade {
	switch {
	case index >= 90:
		return GradeS
	case index >= 80:
		return GradeA
	case index >= 60:
		return GradeB
	case index >= 40:
		return GradeC
	default:
		return GradeD
	}
}

// ParseGrade accepts a single grade letter.
func ParseGrade(s string) (Grade, error) {
	for _, g := range Grades {
		if string(g) == s {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: unknown grade %q", ErrInvalidRegion, s)
}

// Region is the safety summary of one province or metropolitan city.
type Region struct {
	Name      string    `json:"name" yaml:"name"`
	Code      string    `json:"code" yaml:"code"`
	Index     float64   `json:"index" yaml:"index"`
	Grade     Grade     `json:"grade" yaml:"grade"`
	Schools   int       `json:"schools" yaml:"schools"`
	UpdatedAt time.Time `json:"updated_at,omitzero" yaml:"-"`
}

// Validate checks the region's fields and that its grade matches its index.
// An empty grade is accepted; use Normalize to fill it in.
func (r Region) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: %q has no name", ErrInvalidRegion, r.Code)
	}
	if err := validateCode(r.Code); err != nil {
		return err
	}
	if err := validateIndex(r.Index); err != nil {
		return fmt.Errorf("%s: %w", r.Code, err)
	}
	if r.Schools < 0 {
		return fmt.Errorf("%w: %s has negative school count %d", ErrInvalidRegion, r.Code, r.Schools)
	}
	if r.Grade != "" && r.Grade != GradeFor(r.Index) {
		return fmt.Errorf("%w: %s grade %s does not match index %g (want %s)",
			ErrInvalidRegion, r.Code, r.Grade, r.Index, GradeFor(r.Index))
	}
	return nil
}

// Normalize derives the grade from the index when it is missing.
func (r Region) Normalize() Region {
	if r.Grade == "" {
		r.Grade = GradeFor(r.Index)
	}
	return r
}

func validateCode(code string) error {
	if !regionCodeRe.MatchString(code) {
		return fmt.Errorf("%w: bad region code %q", ErrInvalidRegion, code)
	}
	return nil
}

func validateIndex(index float64) error {
	if math.IsNaN(index) || index < 0 || index > MaxIndex {
		return fmt.Errorf("%w: index %g outside 0-%d", ErrInvalidRegion, index, MaxIndex)
	}
	return nil
}
