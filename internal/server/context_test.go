package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/autoschedule/internal/calendar"
	"github.com/teemow/autoschedule/internal/scheduling"
)

// emptyProvider is a calendar with nothing on it that accepts every write.
type emptyProvider struct{}

func (emptyProvider) ListEvents(context.Context, string, time.Time, time.Time) ([]calendar.Event, error) {
	return nil, nil
}

func (emptyProvider) FreeBusy(context.Context, string, time.Time, time.Time) ([]calendar.Interval, error) {
	return nil, nil
}

func (emptyProvider) InsertEvent(_ context.Context, _ string, f calendar.EventFields) (*calendar.Event, error) {
	ev := &calendar.Event{ID: "new"}
	if f.Start != nil {
		ev.Start = *f.Start
	}
	if f.End != nil {
		ev.End = *f.End
	}
	return ev, nil
}

func (emptyProvider) PatchEvent(_ context.Context, _ string, id string, _ calendar.EventFields) (*calendar.Event, error) {
	return &calendar.Event{ID: id}, nil
}

func (emptyProvider) DeleteEvent(context.Context, string, string) error {
	return nil
}

func newTestServerContext(t *testing.T) *ServerContext {
	t.Helper()
	engine, err := scheduling.New(emptyProvider{}, scheduling.Options{HorizonDays: 7})
	require.NoError(t, err)

	sc, err := NewServerContext(context.Background(), engine, scheduling.Env{
		CalendarID: "primary",
		Location:   time.UTC,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestNewServerContext_Validation(t *testing.T) {
	_, err := NewServerContext(context.Background(), nil, scheduling.Env{CalendarID: "primary"})
	assert.Error(t, err)

	engine, err := scheduling.New(emptyProvider{}, scheduling.Options{HorizonDays: 7})
	require.NoError(t, err)
	_, err = NewServerContext(context.Background(), engine, scheduling.Env{})
	assert.ErrorIs(t, err, scheduling.ErrMissingCalendarID)
}

func TestServerContext_Env(t *testing.T) {
	sc := newTestServerContext(t)

	assert.Equal(t, "primary", sc.Env("").CalendarID)
	assert.Equal(t, "team", sc.Env("team").CalendarID)
	assert.Equal(t, time.UTC, sc.Env("team").Location)
	assert.Equal(t, "primary", sc.DefaultCalendarID())
}

func TestServerContext_ExclusiveSerializes(t *testing.T) {
	sc := newTestServerContext(t)

	var inFlight, maxInFlight int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sc.Exclusive(context.Background(), func(context.Context) error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					m := atomic.LoadInt32(&maxInFlight)
					if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight)
	assert.False(t, sc.LastRun().IsZero())
}

func TestServerContext_ExclusivePropagatesError(t *testing.T) {
	sc := newTestServerContext(t)
	boom := errors.New("boom")

	err := sc.Exclusive(context.Background(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestServerContext_ExclusiveCancelledContext(t *testing.T) {
	sc := newTestServerContext(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := sc.Exclusive(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := newTestServerContext(t)

	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())
	require.NoError(t, sc.Shutdown())

	err := sc.Exclusive(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrShutdown)
}
