package domain

import "math"

// Summary holds the nationwide figures shown as dashboard cards.
type Summary struct {
	Schools       int     `json:"schools"`
	AverageIndex  float64 `json:"average_index"`
	AverageGrade  Grade   `json:"average_grade"`
	SGradeSchools int     `json:"s_grade_schools"`
	SGradeShare   float64 `json:"s_grade_share"`
	AsOf          string  `json:"as_of"`
	Regions       int     `json:"regions"`
}

// Summarize derives the summary cards from the regions. Non-zero national
// figures take precedence over derived ones. Averages and shares are rounded
// to one decimal place.
func Summarize(regions []Region, national *National, asOf string) Summary {
	s := Summary{AsOf: asOf, Regions: len(regions)}

	var indexSum float64
	for _, r := range regions {
		s.Schools += r.Schools
		indexSum += r.Index
		if GradeFor(r.Index) == GradeS {
			s.SGradeSchools += r.Schools
		}
	}
	if len(regions) > 0 {
		s.AverageIndex = round1(indexSum / float64(len(regions)))
	}

	if national != nil {
		if national.Schools > 0 {
			s.Schools = national.Schools
		}
		if national.AverageIndex > 0 {
			s.AverageIndex = round1(national.AverageIndex)
		}
		if national.SGradeSchools > 0 {
			s.SGradeSchools = national.SGradeSchools
		}
	}

	s.AverageGrade = GradeFor(s.AverageIndex)
	if s.Schools > 0 {
		s.SGradeShare = round1(float64(s.SGradeSchools) / float64(s.Schools) * 100)
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
