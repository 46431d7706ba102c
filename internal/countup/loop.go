package countup

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultFrameInterval is one refresh of a 60 Hz display.
const DefaultFrameInterval = time.Second / 60

// Handle cancels a scheduled callback. Cancel is idempotent and safe to call
// after the callback ran.
type Handle interface {
	Cancel()
}

// Scheduler hands out one-shot timers and next-frame callbacks. Callbacks
// receive the time of the frame that runs them.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func(now time.Time)) Handle
	NextFrame(fn func(now time.Time)) Handle
}

// Loop is a cooperative frame scheduler. Every Step runs the callbacks that
// are due at the loop clock's current time, in due-time then registration
// order. Callbacks registered during a Step never run in that same Step, so a
// callback asking for the next frame runs exactly one frame later.
type Loop struct {
	clock         clockwork.Clock
	frameInterval time.Duration

	mu     sync.Mutex
	nextID uint64
	tasks  []*task
}

type task struct {
	loop *Loop
	id   uint64
	due  time.Time
	fn   func(time.Time)
	done bool
}

func (t *task) Cancel() {
	t.loop.mu.Lock()
	t.done = true
	t.loop.mu.Unlock()
}

// NewLoop creates a Loop on the given clock. A non-positive frameInterval
// falls back to DefaultFrameInterval.
func NewLoop(clock clockwork.Clock, frameInterval time.Duration) *Loop {
	if frameInterval <= 0 {
		frameInterval = DefaultFrameInterval
	}
	return &Loop{clock: clock, frameInterval: frameInterval}
}

// Now returns the loop clock's current time.
func (l *Loop) Now() time.Time { return l.clock.Now() }

// FrameInterval is the time between two Steps driven by Run.
func (l *Loop) FrameInterval() time.Duration { return l.frameInterval }

// AfterFunc runs fn on the first Step at or after d from now.
func (l *Loop) AfterFunc(d time.Duration, fn func(now time.Time)) Handle {
	if d < 0 {
		d = 0
	}
	return l.add(l.clock.Now().Add(d), fn)
}

// NextFrame runs fn on the next Step.
func (l *Loop) NextFrame(fn func(now time.Time)) Handle {
	return l.add(l.clock.Now(), fn)
}

func (l *Loop) add(due time.Time, fn func(time.Time)) *task {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	t := &task{loop: l, id: l.nextID, due: due, fn: fn}
	l.tasks = append(l.tasks, t)
	return t
}

// Pending returns the number of callbacks that are scheduled and not
// cancelled.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, t := range l.tasks {
		if !t.done {
			n++
		}
	}
	return n
}

// Step runs every callback due now and returns how many ran.
func (l *Loop) Step() int {
	now := l.clock.Now()

	l.mu.Lock()
	var due []*task
	keep := make([]*task, 0, len(l.tasks))
	for _, t := range l.tasks {
		switch {
		case t.done:
		case !t.due.After(now):
			due = append(due, t)
		default:
			keep = append(keep, t)
		}
	}
	l.tasks = keep
	l.mu.Unlock()

	slices.SortFunc(due, func(a, b *task) int {
		if c := a.due.Compare(b.due); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	ran := 0
	for _, t := range due {
		// An earlier callback of this step may have cancelled t.
		l.mu.Lock()
		skip := t.done
		t.done = true
		l.mu.Unlock()
		if skip {
			continue
		}
		t.fn(now)
		ran++
	}
	return ran
}

// Run steps the loop once per frame interval until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clock.NewTicker(l.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			l.Step()
		}
	}
}
