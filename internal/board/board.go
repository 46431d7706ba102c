// Package board holds the live dashboard: the regional figures, the summary
// cards derived from them, and one count-up display per shown value.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/couchcryptid/safety-dashboard/internal/countup"
	"github.com/couchcryptid/safety-dashboard/internal/domain"
	"github.com/couchcryptid/safety-dashboard/internal/observability"
)

// Display keys of the summary cards.
const (
	KeySchools       = "summary.schools"
	KeyAverageIndex  = "summary.average_index"
	KeySGradeSchools = "summary.s_grade_schools"
	KeyAsOf          = "summary.as_of"
)

// RegionIndexKey is the display key of a region's safety index.
func RegionIndexKey(code string) string { return "region." + code + ".index" }

// RegionSchoolsKey is the display key of a region's school count.
func RegionSchoolsKey(code string) string { return "region." + code + ".schools" }

// DisplayState is a snapshot of one display.
type DisplayState struct {
	Key     string         `json:"key"`
	Text    string         `json:"text"`
	Final   string         `json:"final"`
	Settled bool           `json:"settled"`
	Slots   []countup.Slot `json:"slots,omitempty"`
}

type display struct {
	key    string
	group  string
	widget countup.Widget
}

type displayTarget struct {
	key    string
	target countup.Target
}

// Board is safe for concurrent use. Display callbacks run on the scheduler's
// goroutine.
type Board struct {
	logger  *slog.Logger
	metrics *observability.Metrics

	// displays and keys are fixed after New.
	displays map[string]*display
	keys     []string

	// apply serializes batches so displays are retargeted in batch order.
	apply sync.Mutex

	mu       sync.RWMutex
	regions  []domain.Region
	byCode   map[string]int
	national *domain.National
	asOf     string

	lmu       sync.Mutex
	listeners []func(DisplayState)
}

// New builds a board from ds and starts every display animating towards its
// value. All displays share sched and use the given style.
func New(ds domain.Dataset, sched countup.Scheduler, style countup.Style, logger *slog.Logger, metrics *observability.Metrics) *Board {
	b := &Board{
		logger:   logger,
		metrics:  metrics,
		displays: make(map[string]*display),
		regions:  slices.Clone(ds.Regions),
		byCode:   make(map[string]int, len(ds.Regions)),
		national: ds.National,
		asOf:     ds.AsOf,
	}
	for i, r := range b.regions {
		b.byCode[r.Code] = i
	}

	number := style.Options(false)
	decimal := number
	decimal.Decimals = 1

	b.addDisplay(sched, KeySchools, "summary", number)
	b.addDisplay(sched, KeyAverageIndex, "summary", decimal)
	b.addDisplay(sched, KeySGradeSchools, "summary", number)
	b.addDisplay(sched, KeyAsOf, "summary", style.Options(true))
	for _, r := range b.regions {
		b.addDisplay(sched, RegionIndexKey(r.Code), "region", number)
		b.addDisplay(sched, RegionSchoolsKey(r.Code), "region", number)
	}

	metrics.Regions.Set(float64(len(b.regions)))

	b.mu.RLock()
	targets := b.targetsLocked()
	b.mu.RUnlock()
	b.retarget(targets)

	return b
}

func (b *Board) addDisplay(sched countup.Scheduler, key, group string, opts countup.Options) {
	d := &display{key: key, group: group, widget: countup.New(sched, opts)}
	d.widget.OnChange(func(text string) { b.emit(d, text) })
	b.displays[key] = d
	b.keys = append(b.keys, key)
}

// LoadBatch applies region updates and retargets the affected displays.
// Updates older than the region's current figures are skipped. Unknown region
// codes are reported as ErrUnknownRegion after the rest of the batch is
// applied.
func (b *Board) LoadBatch(ctx context.Context, updates []domain.RegionUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.apply.Lock()
	defer b.apply.Unlock()

	b.mu.Lock()
	var errs []error
	applied := 0
	for _, u := range updates {
		i, ok := b.byCode[u.Code]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q", domain.ErrUnknownRegion, u.Code))
			continue
		}
		cur := b.regions[i]
		if u.UpdatedAt.Before(cur.UpdatedAt) {
			b.logger.Debug("skipping stale region update", "region", u.Code,
				"update_time", u.UpdatedAt, "current_time", cur.UpdatedAt)
			continue
		}
		b.regions[i] = u.Apply(cur)
		if u.AsOf > b.asOf {
			b.asOf = u.AsOf
		}
		applied++
	}
	// Published national figures describe the original snapshot only.
	if applied > 0 {
		b.national = nil
	}
	targets := b.targetsLocked()
	b.mu.Unlock()

	b.retarget(targets)
	b.metrics.UpdatesApplied.Add(float64(applied))
	if applied > 0 {
		b.logger.Info("region updates applied", "applied", applied, "batch_size", len(updates))
	}
	return errors.Join(errs...)
}

func (b *Board) targetsLocked() []displayTarget {
	s := domain.Summarize(b.regions, b.national, b.asOf)
	targets := []displayTarget{
		{KeySchools, countup.Number(float64(s.Schools))},
		{KeyAverageIndex, countup.Number(s.AverageIndex)},
		{KeySGradeSchools, countup.Number(float64(s.SGradeSchools))},
		{KeyAsOf, countup.Text(s.AsOf)},
	}
	for _, r := range b.regions {
		targets = append(targets,
			displayTarget{RegionIndexKey(r.Code), countup.Number(r.Index)},
			displayTarget{RegionSchoolsKey(r.Code), countup.Number(float64(r.Schools))},
		)
	}
	return targets
}

func (b *Board) retarget(targets []displayTarget) {
	for _, t := range targets {
		d := b.displays[t.key]
		if d.widget.SetTarget(t.target) {
			b.metrics.AnimationsStarted.WithLabelValues(d.group).Inc()
		}
	}
}

func (b *Board) emit(d *display, text string) {
	b.metrics.DisplayFrames.Inc()

	b.lmu.Lock()
	fns := slices.Clone(b.listeners)
	b.lmu.Unlock()
	if len(fns) == 0 {
		return
	}

	state := DisplayState{Key: d.key, Text: text, Final: d.widget.Final(), Settled: d.widget.Settled()}
	for _, fn := range fns {
		fn(state)
	}
}

// OnDisplayChange registers fn to receive every distinct text of every
// display. fn runs on the scheduler's goroutine and must not block.
func (b *Board) OnDisplayChange(fn func(DisplayState)) {
	b.lmu.Lock()
	defer b.lmu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Displays returns the state of every display, summary cards first.
func (b *Board) Displays() []DisplayState {
	out := make([]DisplayState, 0, len(b.keys))
	for _, key := range b.keys {
		out = append(out, b.state(b.displays[key]))
	}
	return out
}

// Display returns the state of the display with the given key.
func (b *Board) Display(key string) (DisplayState, bool) {
	d, ok := b.displays[key]
	if !ok {
		return DisplayState{}, false
	}
	return b.state(d), true
}

func (b *Board) state(d *display) DisplayState {
	s := DisplayState{
		Key:     d.key,
		Text:    d.widget.Text(),
		Final:   d.widget.Final(),
		Settled: d.widget.Settled(),
	}
	if digits, ok := d.widget.(*countup.Display); ok {
		s.Slots = digits.Slots()
	}
	return s
}

// Regions returns every region in dataset order.
func (b *Board) Regions() []domain.Region {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.regions)
}

// Region looks up a region by code.
func (b *Board) Region(code string) (domain.Region, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i, ok := b.byCode[code]
	if !ok {
		return domain.Region{}, fmt.Errorf("%w: %q", domain.ErrUnknownRegion, code)
	}
	return b.regions[i], nil
}

// Known reports whether code is a region on the board.
func (b *Board) Known(code string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.byCode[code]
	return ok
}

// Summary returns the current summary cards.
func (b *Board) Summary() domain.Summary {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return domain.Summarize(b.regions, b.national, b.asOf)
}

// CheckReadiness reports whether the board has regions to serve.
func (b *Board) CheckReadiness(_ context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.regions) == 0 {
		return errors.New("board has no regions")
	}
	return nil
}

// Close stops every display. Pending animation callbacks are cancelled.
func (b *Board) Close() {
	for _, key := range b.keys {
		b.displays[key].widget.Close()
	}
}
