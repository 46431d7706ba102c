package countup

import (
	"fmt"
	"time"
)

// Style is a ready-made combination of policy, strategy and timing.
type Style int

const (
	// StyleSmooth eases every digit up from zero at the same time.
	StyleSmooth Style = iota
	// StyleSequential starts the ones place first and quickly works left.
	StyleSequential
	// StyleRolling rolls each digit like an odometer, left to right.
	StyleRolling
	// StyleCascade counts one digit at a time from the right, each digit
	// taking time proportional to its value.
	StyleCascade
	// StyleCounter counts the whole number up.
	StyleCounter
)

var styleNames = map[Style]string{
	StyleSmooth:     "smooth",
	StyleSequential: "sequential",
	StyleRolling:    "rolling",
	StyleCascade:    "cascade",
	StyleCounter:    "counter",
}

func (s Style) String() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Style(%d)", int(s))
}

// ParseStyle is the inverse of Style.String.
func ParseStyle(s string) (Style, error) {
	for st, name := range styleNames {
		if name == s {
			return st, nil
		}
	}
	return StyleSmooth, fmt.Errorf("unknown count-up style %q", s)
}

// Options returns the style's configuration. date enables date mode; rolling
// date tokens stagger a little slower so the two groups read separately.
func (s Style) Options(date bool) Options {
	o := DefaultOptions()
	o.IsDate = date

	switch s {
	case StyleSequential:
		o.Duration = 300 * time.Millisecond
		o.Policy = RightToLeft
		o.PerDigitDelay = 80 * time.Millisecond
		o.Easing = EaseOutQuad
	case StyleRolling:
		o.Duration = 3 * time.Second
		o.Policy = LeftToRight
		o.Strategy = Odometer
		o.PerDigitDelay = 80 * time.Millisecond
		if date {
			o.PerDigitDelay = 100 * time.Millisecond
		}
	case StyleCascade:
		o.Duration = time.Second
		o.Policy = MagnitudeWeighted
		o.MaxStepInterval = 60 * time.Millisecond
		o.Easing = EaseLinear
	case StyleCounter:
		o.Duration = 2500 * time.Millisecond
		o.Strategy = Whole
	default:
		o.Duration = 2500 * time.Millisecond
	}
	return o
}
