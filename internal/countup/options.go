package countup

import (
	"strconv"
	"time"
)

// DefaultSeparator groups integer digits in threes.
const DefaultSeparator = ","

// Target is the value a display animates towards: either a number or a
// pre-formatted string such as the date token "2024.09".
type Target struct {
	number float64
	text   string
	isText bool
}

// Number returns a numeric target.
func Number(v float64) Target {
	return Target{number: v}
}

// Text returns a string target. Its characters are shown unchanged; only the
// digits among them are animated.
func Text(s string) Target {
	return Target{text: s, isText: true}
}

// IsText reports whether the target was built with [Text].
func (t Target) IsText() bool { return t.isText }

// Float returns the numeric value of a [Number] target.
func (t Target) Float() float64 { return t.number }

func (t Target) String() string {
	if t.isText {
		return t.text
	}
	return strconv.FormatFloat(t.number, 'f', -1, 64)
}

// Options configures formatting, scheduling and animation of a display.
type Options struct {
	// Duration is the animation time of a single digit slot, or of the whole
	// value for the Whole strategy. MagnitudeWeighted treats it as the total
	// budget shared by all slots.
	Duration time.Duration

	// Decimals is the number of fixed decimal places of numeric targets.
	Decimals int

	Prefix string
	Suffix string

	// IsDate animates the two period-delimited segments of the target while
	// the period stays put. The segments share one schedule. Targets that do
	// not split into exactly two digit segments are shown as a static literal.
	IsDate bool

	// Separator is the thousands separator. Empty means DefaultSeparator.
	Separator string

	Policy   Policy
	Strategy Strategy

	// Easing shapes Direct and Whole interpolation. Nil means EaseOutCubic.
	Easing Easing

	// PerDigitDelay is the stagger between neighbouring slots.
	PerDigitDelay time.Duration

	// MaxStepInterval caps the per-step interval of MagnitudeWeighted.
	// Zero leaves it uncapped.
	MaxStepInterval time.Duration
}

// DefaultOptions returns the plain count-up configuration: every digit
// animates at once with a cubic ease-out over two seconds.
func DefaultOptions() Options {
	return Options{
		Duration:  2 * time.Second,
		Separator: DefaultSeparator,
		Policy:    Simultaneous,
		Strategy:  Direct,
		Easing:    EaseOutCubic,
	}
}

func (o Options) separator() string {
	if o.Separator == "" {
		return DefaultSeparator
	}
	return o.Separator
}

func (o Options) scheduleParams() ScheduleParams {
	return ScheduleParams{
		Duration:        o.Duration,
		PerDigitDelay:   o.PerDigitDelay,
		MaxStepInterval: o.MaxStepInterval,
	}
}
