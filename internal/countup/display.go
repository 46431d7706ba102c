package countup

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// Widget is a live text display converging on the last target it was given.
type Widget interface {
	// SetTarget replaces the value being shown. It reports whether an
	// animation was (re)started; a target that formats to the text already
	// targeted is ignored.
	SetTarget(t Target) bool
	// Text is the text currently shown.
	Text() string
	// Final is the text the display settles on.
	Final() string
	Settled() bool
	// OnChange registers fn to receive every distinct text shown.
	OnChange(fn func(text string))
	// Close cancels all pending callbacks. Further targets are ignored.
	Close()
}

// New returns a Counter for the Whole strategy and a per-digit Display
// otherwise.
func New(s Scheduler, opts Options) Widget {
	if opts.Strategy == Whole {
		return NewCounter(s, opts)
	}
	return NewDisplay(s, opts)
}

// Display animates a value digit by digit. Every digit slot is driven by its
// own Run; every other character is shown as soon as the value arrives.
type Display struct {
	sched Scheduler
	opts  Options

	mu        sync.Mutex
	hasTarget bool
	closed    bool
	final     string
	cells     []cell
	out       output
}

type cell struct {
	char rune
	run  *Run
}

// Slot is a snapshot of one character position of a Display.
type Slot struct {
	Char     string        `json:"char"`
	Animated bool          `json:"animated"`
	Target   int           `json:"target,omitempty"`
	Value    int           `json:"value,omitempty"`
	State    string        `json:"state"`
	Delay    time.Duration `json:"delay,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// NewDisplay creates an empty display. Nothing is scheduled until SetTarget.
func NewDisplay(s Scheduler, opts Options) *Display {
	return &Display{sched: s, opts: opts}
}

func (d *Display) SetTarget(t Target) bool {
	d.mu.Lock()
	final := Format(t, d.opts)
	if d.closed || (d.hasTarget && final == d.final) {
		d.mu.Unlock()
		return false
	}

	d.cancelRuns()
	d.hasTarget = true
	d.final = final
	d.cells = layout(t, d.opts)
	for _, c := range d.cells {
		if c.run != nil {
			c.run.Start(d.sched, d.changed)
		}
	}
	d.mu.Unlock()

	d.changed()
	return true
}

func (d *Display) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text()
}

func (d *Display) Final() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.final
}

func (d *Display) Settled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, c := range d.cells {
		if c.run != nil && c.run.State() != Settled {
			return false
		}
	}
	return true
}

// Slots returns the state of every character position.
func (d *Display) Slots() []Slot {
	d.mu.Lock()
	defer d.mu.Unlock()

	slots := make([]Slot, len(d.cells))
	for i, c := range d.cells {
		if c.run == nil {
			slots[i] = Slot{Char: string(c.char), State: Settled.String()}
			continue
		}
		timing := c.run.Timing()
		slots[i] = Slot{
			Char:     string(c.char),
			Animated: true,
			Target:   c.run.Target(),
			Value:    c.run.Value(),
			State:    c.run.State().String(),
			Delay:    timing.Delay,
			Duration: timing.Duration,
		}
	}
	return slots
}

func (d *Display) OnChange(fn func(text string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.out.listen(fn)
}

func (d *Display) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.cancelRuns()
}

func (d *Display) cancelRuns() {
	for _, c := range d.cells {
		if c.run != nil {
			c.run.Cancel()
		}
	}
}

func (d *Display) text() string {
	var b strings.Builder
	for _, c := range d.cells {
		if c.run == nil {
			b.WriteRune(c.char)
			continue
		}
		b.WriteByte(byte('0' + c.run.Value()))
	}
	return b.String()
}

// changed is the notify callback of every Run.
func (d *Display) changed() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	text := d.text()
	fns := d.out.update(text)
	d.mu.Unlock()

	for _, fn := range fns {
		fn(text)
	}
}

// layout splits the formatted target into static characters and digit slots
// and schedules the slots. Date groups share one schedule, so the month
// continues the stagger where the year left off.
func layout(t Target, opts Options) []cell {
	body := formatBody(t, opts)

	cells := appendStatic(nil, opts.Prefix)
	if _, ok := splitDate(body); opts.IsDate && !ok {
		cells = appendStatic(cells, body)
	} else {
		cells = appendDigits(cells, body, opts)
	}
	return appendStatic(cells, opts.Suffix)
}

func appendStatic(cells []cell, s string) []cell {
	for _, r := range s {
		cells = append(cells, cell{char: r})
	}
	return cells
}

func appendDigits(cells []cell, s string, opts Options) []cell {
	var digits []int
	for _, r := range s {
		if isDigit(r) {
			digits = append(digits, int(r-'0'))
		}
	}
	timings := opts.Policy.Schedule(digits, opts.scheduleParams())

	i := 0
	for _, r := range s {
		if !isDigit(r) {
			cells = append(cells, cell{char: r})
			continue
		}
		cells = append(cells, cell{char: r, run: NewRun(digits[i], timings[i], opts.Strategy, opts.Easing)})
		i++
	}
	return cells
}

// output tracks change listeners and the last text they were sent.
type output struct {
	listeners []func(string)
	last      string
	sent      bool
}

func (o *output) listen(fn func(string)) {
	o.listeners = append(o.listeners, fn)
}

// update returns the listeners to call when text differs from the last text
// sent.
func (o *output) update(text string) []func(string) {
	if o.sent && text == o.last {
		return nil
	}
	o.last = text
	o.sent = true
	return slices.Clone(o.listeners)
}
