package countup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_RollingNumber(t *testing.T) {
	frames := Render(Number(1234), StyleRolling.Options(false), 0)

	require.NotEmpty(t, frames)
	assert.Equal(t, Frame{Text: "0,000"}, frames[0])
	assert.Equal(t, "1,234", frames[len(frames)-1].Text)

	for i := 1; i < len(frames); i++ {
		assert.GreaterOrEqual(t, frames[i].Offset, frames[i-1].Offset)
		assert.NotEqual(t, frames[i-1].Text, frames[i].Text)
	}
	// The last slot starts 240ms late and rolls for 3s.
	assert.LessOrEqual(t, frames[len(frames)-1].Offset, 3240*time.Millisecond+2*DefaultFrameInterval)
}

func TestRender_Date(t *testing.T) {
	frames := Render(Text("2024.09"), StyleRolling.Options(true), 20*time.Millisecond)

	assert.Equal(t, "0000.00", frames[0].Text)
	assert.Equal(t, "2024.09", frames[len(frames)-1].Text)
	for _, f := range frames {
		assert.Equal(t, byte('.'), f.Text[4])
	}
}

func TestRender_StaticValue(t *testing.T) {
	frames := Render(Text("준비 중"), StyleSmooth.Options(false), 0)

	assert.Equal(t, []Frame{{Text: "준비 중"}}, frames)
}

func TestRender_Counter(t *testing.T) {
	frames := Render(Number(78.5), Options{
		Duration: 500 * time.Millisecond,
		Decimals: 1,
		Strategy: Whole,
		Easing:   EaseLinear,
	}, 50*time.Millisecond)

	assert.Equal(t, "0.0", frames[0].Text)
	assert.Equal(t, "78.5", frames[len(frames)-1].Text)
	assert.Len(t, frames, 11)
}
