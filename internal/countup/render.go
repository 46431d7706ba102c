package countup

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// maxRenderTime bounds Render for pathological configurations.
const maxRenderTime = 5 * time.Minute

// Frame is one distinct text of an animation and the offset it appears at.
type Frame struct {
	Offset time.Duration `json:"offset"`
	Text   string        `json:"text"`
}

// Render plays an animation of t on a fake clock and returns every distinct
// text in order. The last frame is always the final formatted value.
func Render(t Target, opts Options, frameInterval time.Duration) []Frame {
	clock := clockwork.NewFakeClock()
	loop := NewLoop(clock, frameInterval)
	start := clock.Now()

	w := New(loop, opts)
	defer w.Close()

	var frames []Frame
	w.OnChange(func(text string) {
		frames = append(frames, Frame{Offset: clock.Since(start), Text: text})
	})
	w.SetTarget(t)

	for clock.Since(start) < maxRenderTime && !w.Settled() {
		clock.Advance(loop.FrameInterval())
		loop.Step()
	}

	if final := w.Final(); len(frames) == 0 || frames[len(frames)-1].Text != final {
		frames = append(frames, Frame{Offset: clock.Since(start), Text: final})
	}
	return frames
}
