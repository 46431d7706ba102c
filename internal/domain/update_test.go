package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegionUpdate(t *testing.T) {
	msgTime := time.Date(2024, 10, 2, 9, 30, 0, 0, time.UTC)

	t.Run("derives grade", func(t *testing.T) {
		raw := RawEvent{Value: []byte(`{"code":"seoul","index":91,"schools":1240,"as_of":"2024.10"}`), Timestamp: msgTime}
		u, err := ParseRegionUpdate(raw)

		require.NoError(t, err)
		assert.Equal(t, RegionUpdate{
			Code:      "seoul",
			Index:     91,
			Grade:     GradeS,
			Schools:   1240,
			AsOf:      "2024.10",
			UpdatedAt: msgTime,
		}, u)
	})

	t.Run("normalizes code and grade case", func(t *testing.T) {
		raw := RawEvent{Value: []byte(`{"code":" Busan ","index":76,"grade":"b","schools":678}`), Timestamp: msgTime}
		u, err := ParseRegionUpdate(raw)

		require.NoError(t, err)
		assert.Equal(t, "busan", u.Code)
		assert.Equal(t, GradeB, u.Grade)
	})

	t.Run("zero index is valid", func(t *testing.T) {
		raw := RawEvent{Value: []byte(`{"code":"ulsan","index":0,"schools":0}`), Timestamp: msgTime}
		u, err := ParseRegionUpdate(raw)

		require.NoError(t, err)
		assert.Equal(t, GradeD, u.Grade)
	})

	t.Run("stamps current time when message has none", func(t *testing.T) {
		fixed := time.Date(2024, 9, 30, 12, 0, 0, 0, time.UTC)
		SetClock(clockwork.NewFakeClockAt(fixed))
		defer SetClock(nil)

		u, err := ParseRegionUpdate(RawEvent{Value: []byte(`{"code":"jeju","index":83,"schools":178}`)})
		require.NoError(t, err)
		assert.Equal(t, fixed, u.UpdatedAt)
	})

	rejects := []struct {
		name  string
		value string
	}{
		{"invalid JSON", `{invalid json`},
		{"missing code", `{"index":80,"schools":10}`},
		{"missing index", `{"code":"seoul","schools":10}`},
		{"missing schools", `{"code":"seoul","index":80}`},
		{"negative schools", `{"code":"seoul","index":80,"schools":-1}`},
		{"index out of range", `{"code":"seoul","index":120,"schools":10}`},
		{"grade contradicts index", `{"code":"seoul","index":82,"grade":"S","schools":10}`},
		{"unknown grade", `{"code":"seoul","index":82,"grade":"Z","schools":10}`},
		{"bad as_of", `{"code":"seoul","index":82,"schools":10,"as_of":"2024-09"}`},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegionUpdate(RawEvent{Value: []byte(tt.value), Timestamp: msgTime})
			assert.Error(t, err)
		})
	}

	t.Run("validation errors are ErrInvalidRegion", func(t *testing.T) {
		_, err := ParseRegionUpdate(RawEvent{Value: []byte(`{"code":"seoul","index":82,"grade":"S","schools":10}`)})
		assert.ErrorIs(t, err, ErrInvalidRegion)
	})
}

func TestRegionUpdate_Apply(t *testing.T) {
	at := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	r := Region{Name: "인천광역시", Code: "incheon", Index: 80, Grade: GradeA, Schools: 789}

	got := RegionUpdate{Code: "incheon", Index: 64, Schools: 800, UpdatedAt: at}.Apply(r)

	assert.Equal(t, Region{Name: "인천광역시", Code: "incheon", Index: 64, Grade: GradeB, Schools: 800, UpdatedAt: at}, got)
}

func TestIsAsOf(t *testing.T) {
	assert.True(t, IsAsOf("2024.09"))
	assert.True(t, IsAsOf("1999.12"))
	for _, s := range []string{"", "2024.9", "2024.13", "2024-09", "24.09", "2024.09.01"} {
		assert.False(t, IsAsOf(s), s)
	}
}
