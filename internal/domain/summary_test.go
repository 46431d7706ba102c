package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_DefaultDataset(t *testing.T) {
	ds, err := DefaultDataset()
	require.NoError(t, err)

	assert.Equal(t, Summary{
		Schools:       11700,
		AverageIndex:  78.5,
		AverageGrade:  GradeB,
		SGradeSchools: 1250,
		SGradeShare:   10.7,
		AsOf:          "2024.09",
		Regions:       17,
	}, ds.Summary())
}

func TestSummarize_DerivedFromRegions(t *testing.T) {
	regions := []Region{
		{Code: "sejong", Index: 92, Schools: 100},
		{Code: "jeju", Index: 83, Schools: 300},
		{Code: "ulsan", Index: 71, Schools: 100},
	}

	s := Summarize(regions, nil, "2024.10")

	assert.Equal(t, 500, s.Schools)
	assert.Equal(t, 82.0, s.AverageIndex)
	assert.Equal(t, GradeA, s.AverageGrade)
	assert.Equal(t, 100, s.SGradeSchools)
	assert.Equal(t, 20.0, s.SGradeShare)
	assert.Equal(t, 3, s.Regions)
}

func TestSummarize_PartialNationalFigures(t *testing.T) {
	regions := []Region{{Code: "seoul", Index: 82, Schools: 1000}}

	s := Summarize(regions, &National{Schools: 4000}, "2024.09")

	assert.Equal(t, 4000, s.Schools)
	assert.Equal(t, 82.0, s.AverageIndex)
	assert.Equal(t, 0, s.SGradeSchools)
	assert.Equal(t, 0.0, s.SGradeShare)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, nil, "")
	assert.Equal(t, Summary{AverageGrade: GradeD}, s)
}

func TestLegend(t *testing.T) {
	legend := Legend()
	require.Len(t, legend, 5)
	assert.Equal(t, GradeS, legend[0].Grade)
	assert.Equal(t, "#A8E6CF", legend[0].Fill)
	assert.Equal(t, "D등급 (0-39)", legend[4].Label)

	assert.Equal(t, "#fde047", StyleFor(GradeB).Hover)
	assert.Equal(t, StyleFor(GradeB), StyleFor("X"), "unknown grades fall back to B")
}

func TestChoroplethColor(t *testing.T) {
	assert.True(t, strings.EqualFold("#FCA5A5", ChoroplethColor(0)))
	assert.True(t, strings.EqualFold("#FCA5A5", ChoroplethColor(20)))
	assert.True(t, strings.EqualFold("#FDE68A", ChoroplethColor(70)))
	assert.True(t, strings.EqualFold("#A8E6CF", ChoroplethColor(100)))

	between := ChoroplethColor(77.5)
	assert.Len(t, between, 7)
	assert.False(t, strings.EqualFold("#FDE68A", between))
	assert.False(t, strings.EqualFold("#93C5FD", between))
}
