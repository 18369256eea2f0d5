package scheduling

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationMinutes(t *testing.T) {
	got, err := DurationMinutes(at(9, 0), at(10, 30))
	require.NoError(t, err)
	assert.Equal(t, 90.0, got)

	_, err = DurationMinutes(time.Time{}, at(10, 0))
	assert.ErrorIs(t, err, ErrMissingInstant)

	_, err = DurationMinutes(at(10, 0), time.Time{})
	assert.ErrorIs(t, err, ErrMissingInstant)
}

func TestEndTimeIsMinuteExact(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		start := testNow.Add(time.Duration(rng.Int63n(int64(365 * 24 * time.Hour))))
		minutes := 1 + rng.Intn(10000)

		end := EndTime(start, minutes)
		assert.Equal(t, time.Duration(minutes)*time.Minute, end.Sub(start))

		got, err := DurationMinutes(start, end)
		require.NoError(t, err)
		assert.Equal(t, float64(minutes), got)
	}
}

func TestStartOfDayAcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// DST ends on 25 October 2026 in Berlin; that day is 25 hours long.
	base := time.Date(2026, 10, 24, 15, 0, 0, 0, berlin)
	next := startOfDay(base, 1)
	afterNext := startOfDay(base, 2)

	assert.Equal(t, time.Date(2026, 10, 25, 0, 0, 0, 0, berlin), next)
	assert.Equal(t, 25*time.Hour, afterNext.Sub(next))
}
