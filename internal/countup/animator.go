package countup

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Strategy decides which values a slot shows on its way to the target.
type Strategy int

const (
	// Direct shows floor(eased progress * target), climbing from zero.
	Direct Strategy = iota
	// Odometer rolls like a mechanical wheel: every digit passes at least
	// once before the wheel stops on the target.
	Odometer
	// Whole interpolates the entire number instead of single digits and
	// re-formats it every frame. See Counter.
	Whole
)

var strategyNames = map[Strategy]string{
	Direct:   "direct",
	Odometer: "odometer",
	Whole:    "whole",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy is the inverse of Strategy.String.
func ParseStrategy(s string) (Strategy, error) {
	for st, name := range strategyNames {
		if name == s {
			return st, nil
		}
	}
	return Direct, fmt.Errorf("unknown animation strategy %q", s)
}

// SlotState is the lifecycle of one digit slot.
//
//	         delay elapsed            progress >= 1
//	Pending ───────────────► Running ───────────────► Settled
//
// A settled slot only starts over when its display receives a new value.
type SlotState int

const (
	Pending SlotState = iota
	Running
	Settled
)

func (s SlotState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Settled:
		return "settled"
	default:
		return fmt.Sprintf("SlotState(%d)", int(s))
	}
}

// Run animates one digit slot. It owns its pending timer or frame callback
// and releases it when it settles or is cancelled.
type Run struct {
	target   int
	timing   Timing
	strategy Strategy
	easing   Easing

	mu       sync.Mutex
	sched    Scheduler
	notify   func()
	live     bool
	state    SlotState
	value    int
	started  time.Time
	handle   Handle
	wheel    []int
	step     int
	interval time.Duration
}

// NewRun prepares a slot animating to target, which is clamped to 0-9.
func NewRun(target int, timing Timing, strategy Strategy, easing Easing) *Run {
	return &Run{
		target:   min(max(target, 0), 9),
		timing:   timing,
		strategy: strategy,
		easing:   easing,
	}
}

// Start resets the slot to Pending with value 0 and schedules its start after
// the slot's delay. notify is called after every change of value or state.
func (r *Run) Start(s Scheduler, notify func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.release()
	r.sched = s
	r.notify = notify
	r.live = true
	r.state = Pending
	r.value = 0
	r.step = 0
	r.handle = s.AfterFunc(r.timing.Delay, r.begin)
}

// Cancel stops the slot where it is. Callbacks that were already handed to
// the scheduler become no-ops.
func (r *Run) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.live = false
	r.release()
}

func (r *Run) Target() int { return r.target }
func (r *Run) Timing() Timing { return r.timing }
func (r *Run) Strategy() Strategy { return r.strategy }

// Value is the digit currently shown.
func (r *Run) Value() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

func (r *Run) State() SlotState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Run) begin(now time.Time) {
	r.mu.Lock()
	if !r.live {
		r.mu.Unlock()
		return
	}

	r.state = Running
	r.started = now
	switch {
	case r.timing.Duration <= 0:
		r.settle()
	case r.strategy == Odometer:
		r.wheel = odometerWheel(r.target)
		r.interval = r.timing.Duration / time.Duration(len(r.wheel))
		r.handle = r.sched.AfterFunc(r.interval, r.tick)
	default:
		r.handle = r.sched.NextFrame(r.frame)
	}

	notify := r.notify
	r.mu.Unlock()
	call(notify)
}

// frame samples the easing curve once per display refresh.
func (r *Run) frame(now time.Time) {
	r.mu.Lock()
	if !r.live {
		r.mu.Unlock()
		return
	}

	progress := float64(now.Sub(r.started)) / float64(r.timing.Duration)
	if progress >= 1 {
		r.settle()
	} else {
		v := int(math.Floor(r.easing.apply(progress) * float64(r.target)))
		r.value = min(v, r.target)
		r.handle = r.sched.NextFrame(r.frame)
	}

	notify := r.notify
	r.mu.Unlock()
	call(notify)
}

// tick moves the wheel one position. Ticks are anchored to the start time so
// late frames do not stretch the roll; a late tick is followed by the next
// one on the following frame, never skipped.
func (r *Run) tick(now time.Time) {
	r.mu.Lock()
	if !r.live {
		r.mu.Unlock()
		return
	}

	r.value = r.wheel[r.step]
	r.step++
	if r.step == len(r.wheel) {
		r.settle()
	} else {
		next := r.started.Add(time.Duration(r.step+1) * r.interval)
		r.handle = r.sched.AfterFunc(next.Sub(now), r.tick)
	}

	notify := r.notify
	r.mu.Unlock()
	call(notify)
}

func (r *Run) settle() {
	r.state = Settled
	r.value = r.target
	r.live = false
	r.handle = nil
}

func (r *Run) release() {
	if r.handle != nil {
		r.handle.Cancel()
		r.handle = nil
	}
}

// odometerWheel lists the positions a wheel shows before stopping on target:
// 9 down to 0 for a zero, otherwise 0 through 9 and around again to target.
func odometerWheel(target int) []int {
	if target == 0 {
		return []int{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}
	}
	wheel := make([]int, 0, 11+target)
	for d := 0; d <= 9; d++ {
		wheel = append(wheel, d)
	}
	for d := 0; d <= target; d++ {
		wheel = append(wheel, d)
	}
	return wheel
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
