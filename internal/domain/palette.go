package domain

import (
	"github.com/lucasb-eyer/go-colorful"
)

// GradeStyle is how a grade is drawn on the map and in the legend.
type GradeStyle struct {
	Grade Grade   `json:"grade"`
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Fill  string  `json:"fill"`
	Hover string  `json:"hover"`
	Text  string  `json:"text"`
}

var gradeStyles = map[Grade]GradeStyle{
	GradeS: {Grade: GradeS, Label: "S등급 (90+)", Min: 90, Max: 100, Fill: "#A8E6CF", Hover: "#87d9b8", Text: "#1e40af"},
	GradeA: {Grade: GradeA, Label: "A등급 (80-89)", Min: 80, Max: 89, Fill: "#93C5FD", Hover: "#7eb3f5", Text: "#1e40af"},
	GradeB: {Grade: GradeB, Label: "B등급 (60-79)", Min: 60, Max: 79, Fill: "#FDE68A", Hover: "#fde047", Text: "#713f12"},
	GradeC: {Grade: GradeC, Label: "C등급 (40-59)", Min: 40, Max: 59, Fill: "#FDBA74", Hover: "#fb923c", Text: "#713f12"},
	GradeD: {Grade: GradeD, Label: "D등급 (0-39)", Min: 0, Max: 39, Fill: "#FCA5A5", Hover: "#f87171", Text: "#713f12"},
}

// NoDataFill colours regions the board has no figures for.
const NoDataFill = "#E5E7EB"

// StyleFor returns the style of g. Unknown grades are drawn as B.
func StyleFor(g Grade) GradeStyle {
	if s, ok := gradeStyles[g]; ok {
		return s
	}
	return gradeStyles[GradeB]
}

// Legend lists the grade styles from best to worst.
func Legend() []GradeStyle {
	out := make([]GradeStyle, len(Grades))
	for i, g := range Grades {
		out[i] = gradeStyles[g]
	}
	return out
}

// choroplethStops places each grade's fill colour at the middle of its band.
var choroplethStops = []struct {
	Pos   float64
	Color colorful.Color
}{
	{20, mustHex(gradeStyles[GradeD].Fill)},
	{50, mustHex(gradeStyles[GradeC].Fill)},
	{70, mustHex(gradeStyles[GradeB].Fill)},
	{85, mustHex(gradeStyles[GradeA].Fill)},
	{95, mustHex(gradeStyles[GradeS].Fill)},
}

// ChoroplethColor returns a continuous fill for index, blending the grade
// colours in HCL space between band midpoints.
func ChoroplethColor(index float64) string {
	first, last := choroplethStops[0], choroplethStops[len(choroplethStops)-1]
	if index <= first.Pos {
		return first.Color.Hex()
	}
	for i := 0; i < len(choroplethStops)-1; i++ {
		c1, c2 := choroplethStops[i], choroplethStops[i+1]
		if index == c1.Pos {
			return c1.Color.Hex()
		}
		if c1.Pos < index && index < c2.Pos {
			t := (index - c1.Pos) / (c2.Pos - c1.Pos)
			return c1.Color.BlendHcl(c2.Color, t).Clamped().Hex()
		}
	}
	return last.Color.Hex()
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}
