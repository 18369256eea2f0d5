package scheduling

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/autoschedule/internal/calendar"
)

func TestFindAvailability_EmptyCalendarReturnsNow(t *testing.T) {
	e, _ := newTestEngine(t, newFakeProvider(), Options{})

	start, found, err := e.FindAvailability(context.Background(), testEnv(), FindRequest{Duration: 30 * time.Minute})
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, testNow.Equal(start))
}

func TestFindAvailability_FutureMinimumStart(t *testing.T) {
	e, _ := newTestEngine(t, newFakeProvider(), Options{})
	minStart := time.Date(2026, 10, 20, 11, 0, 0, 0, time.UTC)

	start, found, err := e.FindAvailability(context.Background(), testEnv(), FindRequest{
		Duration: 30 * time.Minute,
		MinStart: minStart,
	})
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, minStart.Equal(start))

	// A minimum start in the past is ignored.
	start, found, err = e.FindAvailability(context.Background(), testEnv(), FindRequest{
		Duration: 30 * time.Minute,
		MinStart: testNow.Add(-48 * time.Hour),
	})
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, testNow.Equal(start))
}

func TestFindAvailability_FullDayMovesToNextMidnight(t *testing.T) {
	p := newFakeProvider()
	p.add("Late call", "", at(23, 30), time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))
	e, _ := newTestEngine(t, p, Options{})

	env := testEnv()
	env.Now = FixedClock(at(23, 30))

	start, found, err := e.FindAvailability(context.Background(), env, FindRequest{Duration: 30 * time.Minute})
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC).Equal(start), "got %s", start)
	assert.Equal(t, 2, p.calls["freebusy"])
}

func TestFindAvailability_Gaps(t *testing.T) {
	p := newFakeProvider()
	p.add("A", "", at(9, 0), at(10, 0))
	p.add("B", "", at(10, 20), at(11, 0))
	p.add("C", "", at(11, 45), at(13, 0))
	e, _ := newTestEngine(t, p, Options{})

	tests := []struct {
		minutes int
		want    time.Time
	}{
		{15, at(10, 0)},
		{30, at(11, 0)},
		{45, at(11, 0)},
		{60, at(13, 0)},
	}
	for _, tt := range tests {
		start, found, err := e.FindAvailability(context.Background(), testEnv(), FindRequest{Duration: time.Duration(tt.minutes) * time.Minute})
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, tt.want.Equal(start), "%d minutes: got %s, want %s", tt.minutes, start, tt.want)
	}
}

func TestFindAvailability_HighPriorityLens(t *testing.T) {
	p := newFakeProvider()
	p.add("Errands", "", at(9, 0), at(12, 0))
	p.add("Standup", MarkerManual, at(9, 0), at(10, 0))
	e, _ := newTestEngine(t, p, Options{})

	low, found, err := e.FindAvailability(context.Background(), testEnv(), FindRequest{Duration: time.Hour})
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, at(12, 0).Equal(low))

	high, found, err := e.FindAvailability(context.Background(), testEnv(), FindRequest{Duration: time.Hour, HighPriority: true})
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, at(10, 0).Equal(high))
}

func TestFindAvailability_OverlappingHighPriorityEvents(t *testing.T) {
	p := newFakeProvider()
	p.add("Workshop", MarkerManual, at(9, 0), at(12, 0))
	p.add("Report", NewSettings(at(18, 0), time.Time{}).Format(), at(10, 0), at(11, 0))
	e, _ := newTestEngine(t, p, Options{})

	start, found, err := e.FindAvailability(context.Background(), testEnv(), FindRequest{Duration: time.Hour, HighPriority: true})
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, at(12, 0).Equal(start), "got %s", start)
}

func TestFindAvailability_StopsAfterDeadline(t *testing.T) {
	p := newFakeProvider()
	p.add("Busy", "", at(9, 0), time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))
	e, _ := newTestEngine(t, p, Options{})

	_, found, err := e.FindAvailability(context.Background(), testEnv(), FindRequest{
		Duration: 30 * time.Minute,
		Deadline: at(12, 0),
	})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, p.calls["freebusy"])
}

func TestFindAvailability_StopsAtHorizon(t *testing.T) {
	p := newFakeProvider()
	p.add("Vacation prep", "", at(9, 0), time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC))
	e, _ := newTestEngine(t, p, Options{HorizonDays: 3})

	_, found, err := e.FindAvailability(context.Background(), testEnv(), FindRequest{Duration: 30 * time.Minute})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 3, p.calls["freebusy"])
}

func TestFindAvailability_Errors(t *testing.T) {
	p := newFakeProvider()
	e, _ := newTestEngine(t, p, Options{})

	_, _, err := e.FindAvailability(context.Background(), testEnv(), FindRequest{})
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, _, err = e.FindAvailability(context.Background(), Env{}, FindRequest{Duration: time.Minute})
	assert.ErrorIs(t, err, ErrMissingCalendarID)

	boom := errors.New("backend down")
	p.failOn["freebusy"] = boom
	_, _, err = e.FindAvailability(context.Background(), testEnv(), FindRequest{Duration: time.Minute})
	assert.ErrorIs(t, err, boom)
}

func TestFindAvailabilityBeforeDeadline(t *testing.T) {
	p := newFakeProvider()
	p.add("Standup", MarkerManual, at(9, 0), at(16, 0))
	e, _ := newTestEngine(t, p, Options{})

	start, found, err := e.FindAvailabilityBeforeDeadline(context.Background(), testEnv(), 30*time.Minute, at(17, 0), time.Time{})
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, at(16, 0).Equal(start))

	_, found, err = e.FindAvailabilityBeforeDeadline(context.Background(), testEnv(), 90*time.Minute, at(17, 0), time.Time{})
	require.NoError(t, err)
	assert.False(t, found, "a slot ending after the deadline is rejected")
}

func TestFirstFitNeverOverlapsBusyTime(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	dayStart := at(0, 0)
	dayEnd := dayStart.Add(24 * time.Hour)

	for i := 0; i < 2000; i++ {
		queryStart := dayStart.Add(time.Duration(rng.Intn(12*60)) * time.Minute)

		var busy []calendar.Interval
		overlapping := i%2 == 1
		cursor := queryStart.Add(-time.Duration(rng.Intn(60)) * time.Minute)
		for n := rng.Intn(8); n > 0; n-- {
			start := cursor.Add(time.Duration(rng.Intn(90)) * time.Minute)
			end := start.Add(time.Duration(1+rng.Intn(180)) * time.Minute)
			if overlapping {
				cursor = start
			} else {
				cursor = end
			}
			if !end.After(queryStart) || !start.Before(dayEnd) {
				continue
			}
			busy = append(busy, calendar.Interval{Start: start, End: end})
		}
		if len(busy) == 0 {
			continue
		}

		d := time.Duration(1+rng.Intn(180)) * time.Minute
		got, ok := firstFit(busy, queryStart, dayEnd, d)
		if !ok {
			continue
		}

		require.False(t, got.Before(queryStart), "case %d: slot %s before query start %s", i, got, queryStart)
		require.False(t, got.Add(d).After(dayEnd), "case %d: slot runs past the day", i)
		for _, b := range busy {
			require.False(t, overlaps(got, got.Add(d), b.Start, b.End),
				"case %d: slot %s+%s overlaps %s-%s", i, got, d, b.Start, b.End)
		}

		// Nothing earlier on the minute grid would have fit.
		for t0 := queryStart; t0.Before(got); t0 = t0.Add(time.Minute) {
			free := true
			for _, b := range busy {
				if overlaps(t0, t0.Add(d), b.Start, b.End) {
					free = false
					break
				}
			}
			require.False(t, free, "case %d: earlier slot %s was free", i, t0)
		}
	}
}

func TestFirstFitEmptyDay(t *testing.T) {
	got, ok := firstFit(nil, at(22, 0), at(0, 0).Add(24*time.Hour), 5*time.Hour)
	assert.True(t, ok)
	assert.True(t, at(22, 0).Equal(got))
}
