package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps updates that arrive without a message time.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source of update stamps. Pass nil to reset to real
// time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

// RegionUpdate replaces the published figures of one region.
type RegionUpdate struct {
	Code      string    `json:"code"`
	Index     float64   `json:"index"`
	Grade     Grade     `json:"grade,omitempty"`
	Schools   int       `json:"schools"`
	AsOf      string    `json:"as_of,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// regionUpdateRecord is the wire shape of a RegionUpdate. Index and schools
// are pointers so that a missing field is told apart from zero.
type regionUpdateRecord struct {
	Code    string   `json:"code"`
	Index   *float64 `json:"index"`
	Grade   string   `json:"grade"`
	Schools *int     `json:"schools"`
	AsOf    string   `json:"as_of"`
}

// ParseRegionUpdate decodes and validates a region update message. A missing
// grade is derived from the index; a grade that contradicts the index is
// rejected. The update is stamped with the message time, or the current time
// when the message has none.
func ParseRegionUpdate(raw RawEvent) (RegionUpdate, error) {
	var rec regionUpdateRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return RegionUpdate{}, fmt.Errorf("parse region update: %w", err)
	}

	code := strings.ToLower(strings.TrimSpace(rec.Code))
	if err := validateCode(code); err != nil {
		return RegionUpdate{}, err
	}
	if rec.Index == nil {
		return RegionUpdate{}, fmt.Errorf("%w: %s update has no index", ErrInvalidRegion, code)
	}
	if rec.Schools == nil || *rec.Schools < 0 {
		return RegionUpdate{}, fmt.Errorf("%w: %s update needs a non-negative school count", ErrInvalidRegion, code)
	}
	if err := validateIndex(*rec.Index); err != nil {
		return RegionUpdate{}, fmt.Errorf("%s: %w", code, err)
	}

	grade := GradeFor(*rec.Index)
	if rec.Grade != "" {
		g, err := ParseGrade(strings.ToUpper(rec.Grade))
		if err != nil {
			return RegionUpdate{}, err
		}
		if g != grade {
			return RegionUpdate{}, fmt.Errorf("%w: %s grade %s does not match index %g", ErrInvalidRegion, code, g, *rec.Index)
		}
	}

	if rec.AsOf != "" && !IsAsOf(rec.AsOf) {
		return RegionUpdate{}, fmt.Errorf("%w: %s as_of %q is not YYYY.MM", ErrInvalidRegion, code, rec.AsOf)
	}

	updatedAt := raw.Timestamp
	if updatedAt.IsZero() {
		updatedAt = clock.Now()
	}

	return RegionUpdate{
		Code:      code,
		Index:     *rec.Index,
		Grade:     grade,
		Schools:   *rec.Schools,
		AsOf:      rec.AsOf,
		UpdatedAt: updatedAt.UTC(),
	}, nil
}

// Apply returns r with the update's figures.
func (u RegionUpdate) Apply(r Region) Region {
	r.Index = u.Index
	r.Grade = GradeFor(u.Index)
	r.Schools = u.Schools
	r.UpdatedAt = u.UpdatedAt
	return r
}

// IsAsOf reports whether s is a year-month token such as "2024.09".
func IsAsOf(s string) bool {
	t, err := time.Parse("2006.01", s)
	return err == nil && t.Format("2006.01") == s
}
