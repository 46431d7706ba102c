package countup

import (
	"sort"

	"github.com/fogleman/ease"
)

// Easing maps linear progress in [0, 1] to perceived progress in [0, 1].
// Only monotonic curves are offered; overshooting curves would display
// digits beyond the target.
type Easing func(t float64) float64

var (
	EaseLinear     Easing = ease.Linear
	EaseInQuad     Easing = ease.InQuad
	EaseOutQuad    Easing = ease.OutQuad
	EaseInOutQuad  Easing = ease.InOutQuad
	EaseInCubic    Easing = ease.InCubic
	EaseOutCubic   Easing = ease.OutCubic
	EaseInOutCubic Easing = ease.InOutCubic
	EaseOutQuart   Easing = ease.OutQuart
	EaseOutSine    Easing = ease.OutSine
)

var easings = map[string]Easing{
	"linear":       EaseLinear,
	"in-quad":      EaseInQuad,
	"out-quad":     EaseOutQuad,
	"in-out-quad":  EaseInOutQuad,
	"in-cubic":     EaseInCubic,
	"out-cubic":    EaseOutCubic,
	"in-out-cubic": EaseInOutCubic,
	"out-quart":    EaseOutQuart,
	"out-sine":     EaseOutSine,
}

// EasingByName looks up an easing curve such as "out-cubic".
func EasingByName(name string) (Easing, bool) {
	e, ok := easings[name]
	return e, ok
}

// EasingNames lists the registered curve names in sorted order.
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for name := range easings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// apply evaluates the curve with both input and output clamped to [0, 1].
func (e Easing) apply(t float64) float64 {
	if e == nil {
		e = EaseOutCubic
	}
	return clampUnit(e(clampUnit(t)))
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
