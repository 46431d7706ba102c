package countup

import (
	"math"
	"sync"
	"time"
)

// Counter counts the whole value up from zero, re-formatting the eased
// intermediate number on every frame: 0 → 4,213 → 9,870 → 11,700.
//
// String targets, date mode and invalid numbers are shown as their final text
// straight away.
type Counter struct {
	sched Scheduler
	opts  Options

	mu        sync.Mutex
	hasTarget bool
	closed    bool
	final     string
	literal   bool
	end       float64
	current   float64
	started   time.Time
	running   bool
	handle    Handle
	out       output
}

// NewCounter creates an empty counter. Nothing is scheduled until SetTarget.
func NewCounter(s Scheduler, opts Options) *Counter {
	return &Counter{sched: s, opts: opts}
}

func (c *Counter) SetTarget(t Target) bool {
	c.mu.Lock()
	final := Format(t, c.opts)
	if c.closed || (c.hasTarget && final == c.final) {
		c.mu.Unlock()
		return false
	}

	c.release()
	c.hasTarget = true
	c.final = final
	c.current = 0
	c.literal = t.isText || c.opts.IsDate
	c.running = false

	v := t.number
	if !c.literal && !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 {
		c.end = v
		c.started = c.sched.Now()
		c.running = true
		c.handle = c.sched.NextFrame(c.frame)
	}
	c.mu.Unlock()

	c.changed()
	return true
}

func (c *Counter) frame(now time.Time) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}

	progress := 1.0
	if c.opts.Duration > 0 {
		progress = float64(now.Sub(c.started)) / float64(c.opts.Duration)
	}
	if progress >= 1 {
		c.current = c.end
		c.running = false
		c.handle = nil
	} else {
		c.current = c.opts.Easing.apply(progress) * c.end
		c.handle = c.sched.NextFrame(c.frame)
	}
	c.mu.Unlock()

	c.changed()
}

func (c *Counter) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text()
}

func (c *Counter) Final() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.final
}

func (c *Counter) Settled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.running
}

func (c *Counter) OnChange(fn func(text string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out.listen(fn)
}

func (c *Counter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.release()
}

func (c *Counter) release() {
	c.running = false
	if c.handle != nil {
		c.handle.Cancel()
		c.handle = nil
	}
}

func (c *Counter) text() string {
	if !c.hasTarget {
		return ""
	}
	if c.literal || !c.running {
		return c.final
	}
	return c.opts.Prefix + formatNumber(c.current, c.opts.Decimals, c.opts.separator()) + c.opts.Suffix
}

func (c *Counter) changed() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	text := c.text()
	fns := c.out.update(text)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(text)
	}
}
