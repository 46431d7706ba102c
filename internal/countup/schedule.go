package countup

import (
	"fmt"
	"time"
)

// Policy decides when each digit slot of a value starts animating.
type Policy int

const (
	// Simultaneous starts every slot at once.
	Simultaneous Policy = iota
	// LeftToRight staggers slots from the most significant digit.
	LeftToRight
	// RightToLeft staggers slots from the least significant digit, so the
	// ones place settles first.
	RightToLeft
	// MagnitudeWeighted runs slots one after another from the right, giving
	// each a share of the duration proportional to its digit value.
	MagnitudeWeighted
)

var policyNames = map[Policy]string{
	Simultaneous:      "simultaneous",
	LeftToRight:       "left-to-right",
	RightToLeft:       "right-to-left",
	MagnitudeWeighted: "magnitude-weighted",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy is the inverse of Policy.String.
func ParsePolicy(s string) (Policy, error) {
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return Simultaneous, fmt.Errorf("unknown schedule policy %q", s)
}

// ScheduleParams are the timing inputs shared by all policies.
type ScheduleParams struct {
	Duration        time.Duration
	PerDigitDelay   time.Duration
	MaxStepInterval time.Duration
}

// Timing is the start delay and run time assigned to one digit slot.
type Timing struct {
	Delay    time.Duration
	Duration time.Duration
}

// StepInterval is the time between unit steps of a slot counting up to digit.
func (t Timing) StepInterval(digit int) time.Duration {
	return t.Duration / time.Duration(max(digit, 1))
}

// End is the offset at which the slot settles.
func (t Timing) End() time.Duration { return t.Delay + t.Duration }

// Schedule assigns a Timing to each digit, given left to right. Separators
// are not part of digits; they are never scheduled.
func (p Policy) Schedule(digits []int, params ScheduleParams) []Timing {
	n := len(digits)
	out := make([]Timing, n)

	switch p {
	case LeftToRight:
		for i := range out {
			out[i] = Timing{Delay: time.Duration(i) * params.PerDigitDelay, Duration: params.Duration}
		}
	case RightToLeft:
		for i := range out {
			out[i] = Timing{Delay: time.Duration(n-1-i) * params.PerDigitDelay, Duration: params.Duration}
		}
	case MagnitudeWeighted:
		scheduleWeighted(digits, params, out)
	default:
		for i := range out {
			out[i] = Timing{Duration: params.Duration}
		}
	}
	return out
}

// scheduleWeighted walks the digits from the right. Every slot counts up one
// unit per step and starts when the slot to its right has finished, so a 9
// holds the stage nine times longer than a 1. Zero digits get no time at all.
func scheduleWeighted(digits []int, params ScheduleParams, out []Timing) {
	total := 0
	for _, d := range digits {
		total += d
	}
	if total == 0 {
		return
	}

	step := params.Duration / time.Duration(total)
	if params.MaxStepInterval > 0 && step > params.MaxStepInterval {
		step = params.MaxStepInterval
	}

	var elapsed time.Duration
	for i := len(digits) - 1; i >= 0; i-- {
		budget := step * time.Duration(digits[i])
		out[i] = Timing{Delay: elapsed, Duration: budget}
		elapsed += budget
	}
}
