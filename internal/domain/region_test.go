package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeFor(t *testing.T) {
	tests := []struct {
		index float64
		want  Grade
	}{
		{100, GradeS},
		{90, GradeS},
		{89.9, GradeA},
		{80, GradeA},
		{79, GradeB},
		{60, GradeB},
		{59.5, GradeC},
		{40, GradeC},
		{39, GradeD},
		{0, GradeD},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeFor(tt.index), "index %g", tt.index)
	}
}

func TestParseGrade(t *testing.T) {
	g, err := ParseGrade("A")
	require.NoError(t, err)
	assert.Equal(t, GradeA, g)

	_, err = ParseGrade("E")
	assert.ErrorIs(t, err, ErrInvalidRegion)
}

func TestRegion_Validate(t *testing.T) {
	valid := Region{Name: "서울특별시", Code: "seoul", Index: 82, Grade: GradeA, Schools: 1234}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Region)
	}{
		{"missing name", func(r *Region) { r.Name = "" }},
		{"uppercase code", func(r *Region) { r.Code = "Seoul" }},
		{"empty code", func(r *Region) { r.Code = "" }},
		{"index above scale", func(r *Region) { r.Index = 101 }},
		{"negative index", func(r *Region) { r.Index = -1 }},
		{"NaN index", func(r *Region) { r.Index = math.NaN() }},
		{"negative schools", func(r *Region) { r.Schools = -3 }},
		{"grade contradicts index", func(r *Region) { r.Grade = GradeS }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRegion))
		})
	}
}

func TestRegion_Normalize(t *testing.T) {
	r := Region{Name: "세종특별자치시", Code: "sejong", Index: 92}.Normalize()
	assert.Equal(t, GradeS, r.Grade)
	require.NoError(t, r.Validate())

	kept := Region{Code: "jeju", Index: 83, Grade: GradeA}.Normalize()
	assert.Equal(t, GradeA, kept.Grade)
}
