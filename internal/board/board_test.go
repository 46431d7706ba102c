package board

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/safety-dashboard/internal/countup"
	"github.com/couchcryptid/safety-dashboard/internal/domain"
	"github.com/couchcryptid/safety-dashboard/internal/observability"
)

const frame = 50 * time.Millisecond

type fixture struct {
	board   *Board
	loop    *countup.Loop
	clock   interface{ Advance(time.Duration) }
	metrics *observability.Metrics
}

func newFixture(t *testing.T, style countup.Style) fixture {
	t.Helper()
	ds, err := domain.DefaultDataset()
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	loop := countup.NewLoop(clock, frame)
	metrics := observability.NewMetricsForTesting()
	b := New(ds, loop, style, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)
	t.Cleanup(b.Close)

	return fixture{board: b, loop: loop, clock: clock, metrics: metrics}
}

// settle steps the loop until every display settles.
func (f fixture) settle(t *testing.T) {
	t.Helper()
	for range int(time.Minute / frame) {
		if f.allSettled() {
			return
		}
		f.clock.Advance(frame)
		f.loop.Step()
	}
	require.True(t, f.allSettled(), "board did not settle")
}

func (f fixture) allSettled() bool {
	for _, d := range f.board.Displays() {
		if !d.Settled {
			return false
		}
	}
	return true
}

func (f fixture) text(t *testing.T, key string) string {
	t.Helper()
	d, ok := f.board.Display(key)
	require.True(t, ok, key)
	return d.Text
}

func TestNew_DisplaysSettleOnDatasetValues(t *testing.T) {
	f := newFixture(t, countup.StyleRolling)

	displays := f.board.Displays()
	require.Len(t, displays, 4+2*17)
	assert.Equal(t, KeySchools, displays[0].Key)
	assert.Equal(t, "00,000", displays[0].Text, "rolling digits start at zero")

	f.settle(t)

	assert.Equal(t, "11,700", f.text(t, KeySchools))
	assert.Equal(t, "78.5", f.text(t, KeyAverageIndex))
	assert.Equal(t, "1,250", f.text(t, KeySGradeSchools))
	assert.Equal(t, "2024.09", f.text(t, KeyAsOf))
	assert.Equal(t, "82", f.text(t, RegionIndexKey("seoul")))
	assert.Equal(t, "2,345", f.text(t, RegionSchoolsKey("gyeonggi")))
	assert.Equal(t, 0, f.loop.Pending())

	started := testutil.ToFloat64(f.metrics.AnimationsStarted.WithLabelValues("region"))
	assert.InDelta(t, 34, started, 0)
	assert.InDelta(t, 17, testutil.ToFloat64(f.metrics.Regions), 0)
}

func TestDisplay_SlotsForDigitDisplays(t *testing.T) {
	f := newFixture(t, countup.StyleSequential)

	d, ok := f.board.Display(KeyAsOf)
	require.True(t, ok)
	require.Len(t, d.Slots, 7)
	assert.Equal(t, ".", d.Slots[4].Char)

	_, ok = f.board.Display("summary.nope")
	assert.False(t, ok)
}

func TestDisplay_CounterHasNoSlots(t *testing.T) {
	f := newFixture(t, countup.StyleCounter)

	d, ok := f.board.Display(KeySchools)
	require.True(t, ok)
	assert.Empty(t, d.Slots)
	f.settle(t)
	assert.Equal(t, "11,700", f.text(t, KeySchools))
}

func TestLoadBatch_RetargetsChangedDisplays(t *testing.T) {
	f := newFixture(t, countup.StyleSmooth)
	f.settle(t)

	var changes []DisplayState
	f.board.OnDisplayChange(func(s DisplayState) { changes = append(changes, s) })

	at := time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC)
	err := f.board.LoadBatch(context.Background(), []domain.RegionUpdate{
		{Code: "seoul", Index: 91, Schools: 1234, AsOf: "2024.10", UpdatedAt: at},
	})
	require.NoError(t, err)

	seoul, err := f.board.Region("seoul")
	require.NoError(t, err)
	assert.Equal(t, domain.GradeS, seoul.Grade)
	assert.Equal(t, at, seoul.UpdatedAt)

	f.settle(t)
	assert.Equal(t, "91", f.text(t, RegionIndexKey("seoul")))
	assert.Equal(t, "1,234", f.text(t, RegionSchoolsKey("seoul")), "unchanged value is not restarted")
	assert.Equal(t, "2024.10", f.text(t, KeyAsOf))

	// National figures give way to figures derived from the regions.
	summary := f.board.Summary()
	assert.Equal(t, 10691, summary.Schools)
	assert.Equal(t, 1234, summary.SGradeSchools)
	assert.Equal(t, "10,691", f.text(t, KeySchools))

	require.NotEmpty(t, changes)
	var seoulFinal *DisplayState
	for i := range changes {
		assert.NotEqual(t, RegionSchoolsKey("seoul"), changes[i].Key)
		if changes[i].Key == RegionIndexKey("seoul") {
			seoulFinal = &changes[i]
		}
	}
	require.NotNil(t, seoulFinal)
	assert.Equal(t, "91", seoulFinal.Text)
	assert.True(t, seoulFinal.Settled)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.UpdatesApplied), 0)
}

func TestLoadBatch_SkipsStaleUpdates(t *testing.T) {
	f := newFixture(t, countup.StyleSmooth)
	newer := time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, f.board.LoadBatch(context.Background(), []domain.RegionUpdate{
		{Code: "busan", Index: 70, Schools: 680, UpdatedAt: newer},
		{Code: "busan", Index: 60, Schools: 600, UpdatedAt: newer.Add(-time.Hour)},
	}))

	busan, err := f.board.Region("busan")
	require.NoError(t, err)
	assert.InDelta(t, 70, busan.Index, 0)
	assert.Equal(t, 680, busan.Schools)
}

func TestLoadBatch_UnknownRegion(t *testing.T) {
	f := newFixture(t, countup.StyleSmooth)

	err := f.board.LoadBatch(context.Background(), []domain.RegionUpdate{
		{Code: "atlantis", Index: 50, Schools: 1},
		{Code: "jeju", Index: 95, Schools: 180},
	})
	require.ErrorIs(t, err, domain.ErrUnknownRegion)

	jeju, err := f.board.Region("jeju")
	require.NoError(t, err)
	assert.InDelta(t, 95, jeju.Index, 0, "known regions of the batch are still applied")
}

func TestLoadBatch_CancelledContext(t *testing.T) {
	f := newFixture(t, countup.StyleSmooth)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.board.LoadBatch(ctx, []domain.RegionUpdate{{Code: "jeju", Index: 10, Schools: 1}})
	require.ErrorIs(t, err, context.Canceled)

	jeju, _ := f.board.Region("jeju")
	assert.InDelta(t, 83, jeju.Index, 0)
}

func TestRegions(t *testing.T) {
	f := newFixture(t, countup.StyleSmooth)

	regions := f.board.Regions()
	require.Len(t, regions, 17)
	assert.Equal(t, "seoul", regions[0].Code)

	regions[0].Index = 0
	seoul, _ := f.board.Region("seoul")
	assert.InDelta(t, 82, seoul.Index, 0, "Regions returns a copy")

	_, err := f.board.Region("atlantis")
	assert.ErrorIs(t, err, domain.ErrUnknownRegion)
	assert.True(t, f.board.Known("daejeon"))
	assert.False(t, f.board.Known("atlantis"))
}

func TestCheckReadiness(t *testing.T) {
	f := newFixture(t, countup.StyleSmooth)
	require.NoError(t, f.board.CheckReadiness(context.Background()))

	empty := New(domain.Dataset{AsOf: "2024.09"}, f.loop, countup.StyleSmooth,
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	defer empty.Close()
	assert.Error(t, empty.CheckReadiness(context.Background()))
}

func TestClose_CancelsAnimations(t *testing.T) {
	f := newFixture(t, countup.StyleRolling)
	require.Positive(t, f.loop.Pending())

	f.board.Close()
	assert.Equal(t, 0, f.loop.Pending())
}
