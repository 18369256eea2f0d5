package scheduling

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teemow/autoschedule/internal/calendar"
)

// fakeProvider is an in-memory calendar.Provider. Events keep insertion
// order for equal start times.
type fakeProvider struct {
	mu      sync.Mutex
	events  []*calendar.Event
	nextID  int
	calls   map[string]int
	failOn  map[string]error
	deleted []string
	inserts []calendar.EventFields
}

var _ calendar.Provider = (*fakeProvider)(nil)

func newFakeProvider() *fakeProvider {
	return &fakeProvider{calls: map[string]int{}, failOn: map[string]error{}}
}

func (f *fakeProvider) add(summary, description string, start, end time.Time) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("ev%d", f.nextID)
	f.events = append(f.events, &calendar.Event{ID: id, Summary: summary, Description: description, Start: start, End: end})
	return id
}

// addAllDay adds an event spanning the whole of day, as the Google backend
// reports date-only boundaries.
func (f *fakeProvider) addAllDay(summary string, day time.Time) string {
	id := f.add(summary, "", day, day.AddDate(0, 0, 1))
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[len(f.events)-1].AllDay = true
	return id
}

func (f *fakeProvider) get(id string) *calendar.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range f.events {
		if ev.ID == id {
			cp := *ev
			return &cp
		}
	}
	return nil
}

func (f *fakeProvider) bySummary(summary string) *calendar.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range f.events {
		if ev.Summary == summary {
			cp := *ev
			return &cp
		}
	}
	return nil
}

func (f *fakeProvider) record(op string) error {
	f.calls[op]++
	return f.failOn[op]
}

func (f *fakeProvider) overlapping(timeMin, timeMax time.Time) []calendar.Event {
	var out []calendar.Event
	for _, ev := range f.events {
		if ev.Start.Before(timeMax) && timeMin.Before(ev.End) {
			out = append(out, *ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func (f *fakeProvider) ListEvents(_ context.Context, calendarID string, timeMin, timeMax time.Time) ([]calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("list"); err != nil {
		return nil, err
	}
	if calendarID == "" {
		return nil, calendar.ErrMissingCalendarID
	}
	return f.overlapping(timeMin, timeMax), nil
}

func (f *fakeProvider) FreeBusy(_ context.Context, calendarID string, timeMin, timeMax time.Time) ([]calendar.Interval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("freebusy"); err != nil {
		return nil, err
	}

	var merged []calendar.Interval
	for _, ev := range f.overlapping(timeMin, timeMax) {
		start, end := ev.Start, ev.End
		if start.Before(timeMin) {
			start = timeMin
		}
		if end.After(timeMax) {
			end = timeMax
		}
		if n := len(merged); n > 0 && !start.After(merged[n-1].End) {
			if end.After(merged[n-1].End) {
				merged[n-1].End = end
			}
			continue
		}
		merged = append(merged, calendar.Interval{Start: start, End: end})
	}
	return merged, nil
}

func (f *fakeProvider) InsertEvent(_ context.Context, calendarID string, fields calendar.EventFields) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("insert"); err != nil {
		return nil, err
	}
	f.inserts = append(f.inserts, fields)
	f.nextID++
	ev := &calendar.Event{ID: fmt.Sprintf("ev%d", f.nextID)}
	applyTestFields(ev, fields)
	f.events = append(f.events, ev)
	cp := *ev
	return &cp, nil
}

func (f *fakeProvider) PatchEvent(_ context.Context, calendarID, eventID string, fields calendar.EventFields) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("patch"); err != nil {
		return nil, err
	}
	for _, ev := range f.events {
		if ev.ID == eventID {
			applyTestFields(ev, fields)
			cp := *ev
			return &cp, nil
		}
	}
	return nil, calendar.ErrNotFound
}

func (f *fakeProvider) DeleteEvent(_ context.Context, calendarID, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete"); err != nil {
		return err
	}
	for i, ev := range f.events {
		if ev.ID == eventID {
			f.events = append(f.events[:i], f.events[i+1:]...)
			f.deleted = append(f.deleted, eventID)
			return nil
		}
	}
	return calendar.ErrGone
}

func applyTestFields(ev *calendar.Event, fields calendar.EventFields) {
	if fields.Summary != nil {
		ev.Summary = *fields.Summary
	}
	if fields.Description != nil {
		ev.Description = *fields.Description
	}
	if fields.Start != nil {
		ev.Start = *fields.Start
	}
	if fields.End != nil {
		ev.End = *fields.End
	}
	if fields.ColorID != nil {
		ev.ColorID = *fields.ColorID
	}
	if len(fields.Recurrence) > 0 {
		ev.Recurrence = fields.Recurrence
	}
}

// Monday 19 October 2026, 09:00 UTC.
var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2026, 10, 19, hour, minute, 0, 0, time.UTC)
}

func testEnv() Env {
	return Env{CalendarID: "primary", Location: time.UTC, Now: FixedClock(testNow)}
}

type testRecorder struct {
	requests  map[string]int
	conflicts map[string]int
}

func (r *testRecorder) RecordSchedulingRequest(_ context.Context, mode, outcome string, _ time.Duration) {
	r.requests[mode+"/"+outcome]++
}

func (r *testRecorder) RecordConflictReschedule(_ context.Context, result string) {
	r.conflicts[result]++
}

func (r *testRecorder) RecordAvailabilityScan(context.Context, bool, int) {}

func newTestEngine(t *testing.T, p calendar.Provider, opts Options) (*Engine, *testRecorder) {
	t.Helper()
	if opts.HorizonDays == 0 {
		opts.HorizonDays = 30
	}
	rec := &testRecorder{requests: map[string]int{}, conflicts: map[string]int{}}
	opts.Metrics = rec
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := New(p, opts)
	require.NoError(t, err)
	return e, rec
}
