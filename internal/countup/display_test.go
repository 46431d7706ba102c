package countup

import (
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStyles = []Style{StyleSmooth, StyleSequential, StyleRolling, StyleCascade, StyleCounter}

func TestDisplay_SettlesOnFormattedValue(t *testing.T) {
	values := []float64{0, 7, 78.5, 1250, 11700, 1234567}

	for _, style := range allStyles {
		for _, v := range values {
			t.Run(style.String()+"/"+strconv.FormatFloat(v, 'f', -1, 64), func(t *testing.T) {
				h := newHarness()
				opts := style.Options(false)
				opts.Decimals = 1
				w := New(h.loop, opts)

				require.True(t, w.SetTarget(Number(v)))
				h.settle(t, w)

				assert.Equal(t, Format(Number(v), opts), w.Text())
				assert.Equal(t, w.Final(), w.Text())
				assert.Equal(t, 0, h.loop.Pending())
			})
		}
	}
}

func TestDisplay_EverySlotSettles(t *testing.T) {
	h := newHarness()
	d := NewDisplay(h.loop, StyleCascade.Options(false))
	d.SetTarget(Number(90817))
	h.settle(t, d)

	for _, s := range d.Slots() {
		assert.Equal(t, Settled.String(), s.State, s.Char)
		if s.Animated {
			assert.Equal(t, s.Char, strconv.Itoa(s.Value))
		}
	}
}

func TestDisplay_LayoutSeparatesStaticCharacters(t *testing.T) {
	h := newHarness()
	opts := StyleSequential.Options(false)
	opts.Prefix = "$"
	d := NewDisplay(h.loop, opts)
	d.SetTarget(Number(1234))

	slots := d.Slots()
	require.Len(t, slots, 6)
	assert.False(t, slots[0].Animated)
	assert.Equal(t, "$", slots[0].Char)
	assert.False(t, slots[2].Animated)
	assert.Equal(t, ",", slots[2].Char)

	// Right to left across the grouped digits: 1 2 3 4.
	var got []time.Duration
	for _, s := range slots {
		if s.Animated {
			got = append(got, s.Delay)
		}
	}
	assert.Equal(t, []time.Duration{240 * time.Millisecond, 160 * time.Millisecond, 80 * time.Millisecond, 0}, got)

	assert.Equal(t, "$0,000", d.Text(), "static characters show at once")
}

func TestDisplay_RetargetCancelsOldRuns(t *testing.T) {
	h := newHarness()
	d := NewDisplay(h.loop, StyleRolling.Options(false))

	d.SetTarget(Number(100))
	h.frames(60)
	require.False(t, d.Settled())

	require.True(t, d.SetTarget(Number(200)))
	assert.Equal(t, "000", d.Text(), "no digit of the previous value survives")

	var texts []string
	d.OnChange(func(text string) { texts = append(texts, text) })
	h.settle(t, d)

	assert.Equal(t, "200", d.Text())
	assert.Equal(t, 0, h.loop.Pending(), "cancelled runs leave no callbacks behind")

	h.frames(100)
	assert.Equal(t, "200", d.Text())
	require.NotEmpty(t, texts)
	assert.Equal(t, "200", texts[len(texts)-1])
}

func TestDisplay_SameValueDoesNotRestart(t *testing.T) {
	h := newHarness()
	d := NewDisplay(h.loop, StyleSmooth.Options(false))

	require.True(t, d.SetTarget(Number(1250)))
	h.frames(20)
	before := d.Text()

	assert.False(t, d.SetTarget(Number(1250)))
	assert.False(t, d.SetTarget(Text("1,250")), "same formatted text")
	assert.Equal(t, before, d.Text())
}

func TestDisplay_DateGroupsContinueTheStagger(t *testing.T) {
	h := newHarness()
	d := NewDisplay(h.loop, StyleRolling.Options(true))
	d.SetTarget(Text("2024.09"))

	slots := d.Slots()
	require.Len(t, slots, 7)
	assert.Equal(t, ".", slots[4].Char)
	assert.False(t, slots[4].Animated)

	ms := func(i int) time.Duration { return slots[i].Delay }
	assert.Equal(t, []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond},
		[]time.Duration{ms(0), ms(1), ms(2), ms(3)})
	assert.Equal(t, []time.Duration{400 * time.Millisecond, 500 * time.Millisecond}, []time.Duration{ms(5), ms(6)})

	assert.Equal(t, "0000.00", d.Text())
	h.settle(t, d)
	assert.Equal(t, "2024.09", d.Text())
}

func TestDisplay_MalformedDateIsStatic(t *testing.T) {
	for _, token := range []string{"2024.09.01", "2024", "Sep.2024"} {
		h := newHarness()
		d := NewDisplay(h.loop, StyleRolling.Options(true))
		d.SetTarget(Text(token))

		assert.True(t, d.Settled(), token)
		assert.Equal(t, token, d.Text())
		assert.Equal(t, 0, h.loop.Pending())
	}
}

func TestDisplay_InvalidNumbersShowZero(t *testing.T) {
	for _, v := range []float64{-5, math.NaN(), math.Inf(1)} {
		h := newHarness()
		d := NewDisplay(h.loop, StyleSmooth.Options(false))
		d.SetTarget(Number(v))
		h.settle(t, d)
		assert.Equal(t, "0", d.Text())
	}
}

func TestDisplay_OnChangeSendsDistinctTexts(t *testing.T) {
	h := newHarness()
	d := NewDisplay(h.loop, StyleSmooth.Options(false))

	var texts []string
	d.OnChange(func(text string) { texts = append(texts, text) })
	d.SetTarget(Number(987654))
	h.settle(t, d)

	require.NotEmpty(t, texts)
	assert.Equal(t, "000,000", texts[0])
	assert.Equal(t, "987,654", texts[len(texts)-1])
	for i := 1; i < len(texts); i++ {
		assert.NotEqual(t, texts[i-1], texts[i])
	}
}

func TestDisplay_Close(t *testing.T) {
	h := newHarness()
	d := NewDisplay(h.loop, StyleRolling.Options(false))

	calls := 0
	d.OnChange(func(string) { calls++ })
	d.SetTarget(Number(4321))
	h.frames(5)

	d.Close()
	seen := calls
	assert.Equal(t, 0, h.loop.Pending())
	assert.False(t, d.SetTarget(Number(1)))

	h.frames(50)
	assert.Equal(t, seen, calls)
}

func TestDisplay_EmptyBeforeFirstTarget(t *testing.T) {
	h := newHarness()
	d := NewDisplay(h.loop, DefaultOptions())

	assert.Empty(t, d.Text())
	assert.True(t, d.Settled())
}

func TestCounter_CountsWholeValue(t *testing.T) {
	h := newHarness()
	c := NewCounter(h.loop, StyleCounter.Options(false))

	var seen []float64
	c.OnChange(func(text string) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		require.NoError(t, err)
		seen = append(seen, v)
	})
	c.SetTarget(Number(11700))
	h.settle(t, c)

	assert.Equal(t, "11,700", c.Text())
	assert.Greater(t, len(seen), 10)
	assert.IsNonDecreasing(t, seen)
	assert.Equal(t, 0, h.loop.Pending())
}

func TestCounter_Decimals(t *testing.T) {
	h := newHarness()
	opts := StyleCounter.Options(false)
	opts.Decimals = 1
	c := NewCounter(h.loop, opts)
	c.SetTarget(Number(78.5))

	h.frames(10)
	assert.Contains(t, c.Text(), ".")
	h.settle(t, c)
	assert.Equal(t, "78.5", c.Text())
}

func TestCounter_LiteralTargets(t *testing.T) {
	h := newHarness()
	c := NewCounter(h.loop, StyleCounter.Options(false))

	c.SetTarget(Text("2024.09"))
	assert.True(t, c.Settled())
	assert.Equal(t, "2024.09", c.Text())

	c.SetTarget(Number(-1))
	assert.True(t, c.Settled())
	assert.Equal(t, "0", c.Text())
	assert.Equal(t, 0, h.loop.Pending())
}

func TestCounter_RetargetAndClose(t *testing.T) {
	h := newHarness()
	c := NewCounter(h.loop, StyleCounter.Options(false))

	c.SetTarget(Number(500))
	h.frames(10)
	assert.False(t, c.SetTarget(Number(500)))
	require.True(t, c.SetTarget(Number(80)))
	h.settle(t, c)
	assert.Equal(t, "80", c.Text())

	c.SetTarget(Number(90))
	c.Close()
	assert.Equal(t, 0, h.loop.Pending())
	assert.False(t, c.SetTarget(Number(100)))
}

func TestNew_PicksWidgetByStrategy(t *testing.T) {
	h := newHarness()
	assert.IsType(t, &Counter{}, New(h.loop, StyleCounter.Options(false)))
	assert.IsType(t, &Display{}, New(h.loop, StyleRolling.Options(false)))
}
