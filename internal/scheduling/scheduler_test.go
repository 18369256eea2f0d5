package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/autoschedule/internal/instrumentation"
)

func TestNew_RequiresHorizon(t *testing.T) {
	_, err := New(newFakeProvider(), Options{})
	assert.ErrorIs(t, err, ErrInvalidHorizon)

	_, err = New(nil, Options{HorizonDays: 7})
	assert.Error(t, err)

	e, err := New(newFakeProvider(), Options{HorizonDays: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, e.HorizonDays())
	assert.Equal(t, DefaultMaxConflictDepth, e.opts.MaxConflictDepth)
	assert.Equal(t, DefaultColorID, e.opts.ColorID)
}

func TestAutoSchedule_EmptyCalendar(t *testing.T) {
	p := newFakeProvider()
	e, rec := newTestEngine(t, p, Options{})

	res, err := e.AutoSchedule(context.Background(), testEnv(), AutoRequest{Summary: "Read paper", DurationMinutes: 30})
	require.NoError(t, err)

	require.True(t, res.Placed)
	assert.False(t, res.Escalated)
	assert.True(t, testNow.Equal(res.Start))
	assert.Equal(t, 30*time.Minute, res.End.Sub(res.Start))
	assert.Equal(t, "Mon Oct 19 2026 09:00:00 GMT+0000 (UTC)", res.Message.String())
	assert.Equal(t, 1, rec.requests["auto/"+instrumentation.OutcomePlaced])

	require.Len(t, p.inserts, 1)
	ins := p.inserts[0]
	assert.Equal(t, "Read paper", *ins.Summary)
	assert.Equal(t, "", *ins.Description)
	assert.Equal(t, DefaultColorID, *ins.ColorID)
	require.Len(t, ins.Reminders, 1)
	assert.Equal(t, "popup", ins.Reminders[0].Method)
	assert.Equal(t, 30, ins.Reminders[0].Minutes)
	assert.Equal(t, "UTC", ins.TimeZone)
}

func TestAutoSchedule_WritesSettingsDescription(t *testing.T) {
	p := newFakeProvider()
	e, _ := newTestEngine(t, p, Options{})

	deadline := at(18, 0)
	minStart := at(11, 0)
	res, err := e.AutoSchedule(context.Background(), testEnv(), AutoRequest{
		Summary:         "Write report",
		DurationMinutes: 60,
		Deadline:        deadline,
		MinStart:        minStart,
	})
	require.NoError(t, err)
	require.True(t, res.Placed)
	assert.True(t, minStart.Equal(res.Start))

	ev := p.get(res.EventID)
	require.NotNil(t, ev)
	settings, err := ParseSettings(ev.Description, time.UTC)
	require.NoError(t, err)
	assert.True(t, NewSettings(deadline, minStart).Equal(settings))
}

func TestAutoSchedule_ExistingEventIsMovedAndDescribed(t *testing.T) {
	p := newFakeProvider()
	id := p.add("Write report", "", at(15, 0), at(16, 0))
	e, _ := newTestEngine(t, p, Options{})

	res, err := e.AutoSchedule(context.Background(), testEnv(), AutoRequest{
		Summary:         "Write report",
		DurationMinutes: 60,
		Deadline:        at(18, 0),
		EventID:         id,
	})
	require.NoError(t, err)
	assert.Equal(t, id, res.EventID)
	assert.Equal(t, 0, p.calls["insert"])
	assert.Equal(t, 2, p.calls["patch"])

	ev := p.get(id)
	assert.True(t, at(9, 0).Equal(ev.Start))
	assert.Equal(t, ClassHasDeadline, ClassOf(ev.Description))
}

// A deadline the normal search would miss is met by treating only
// high-priority events as busy; the displaced event is moved.
func TestAutoSchedule_EscalatesBeforeDeadline(t *testing.T) {
	p := newFakeProvider()
	p.add("Standup", MarkerManual, at(9, 0), at(16, 0))
	errandsID := p.add("Errands", "", at(16, 0), at(17, 30))
	e, rec := newTestEngine(t, p, Options{})

	res, err := e.AutoSchedule(context.Background(), testEnv(), AutoRequest{
		Summary:         "Report",
		DurationMinutes: 30,
		Deadline:        at(17, 0),
	})
	require.NoError(t, err)

	require.True(t, res.Placed)
	assert.True(t, res.Escalated)
	assert.True(t, at(16, 0).Equal(res.Start), "got %s", res.Start)
	assert.Equal(t, "Mon Oct 19 2026 16:00:00 GMT+0000 (UTC)", res.Message.EventBeingScheduled)
	assert.Equal(t, ConflictsRescheduledMessage, res.Message.ConflictingEvents)

	errands := p.get(errandsID)
	assert.True(t, at(17, 30).Equal(errands.Start), "errands moved to %s", errands.Start)
	assert.Equal(t, 90*time.Minute, errands.End.Sub(errands.Start))

	assert.Equal(t, 1, rec.requests["auto/"+instrumentation.OutcomeEscalated])
	assert.Equal(t, 1, rec.conflicts[instrumentation.ConflictRescheduled])
}

func TestAutoSchedule_DeadlineCannotBeMet(t *testing.T) {
	p := newFakeProvider()
	p.add("Offsite", MarkerManual, at(9, 0), time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))
	e, rec := newTestEngine(t, p, Options{})

	res, err := e.AutoSchedule(context.Background(), testEnv(), AutoRequest{
		Summary:         "Report",
		DurationMinutes: 30,
		Deadline:        at(17, 0),
	})
	require.NoError(t, err)
	assert.False(t, res.Placed)
	assert.True(t, res.DeadlineMissed)
	assert.Equal(t, DeadlineWarning, res.Message.String())
	assert.Equal(t, 0, p.calls["insert"])
	assert.Equal(t, 1, rec.requests["auto/"+instrumentation.OutcomeDeadlineMissed])
}

func TestAutoSchedule_NoSlotWithinHorizon(t *testing.T) {
	p := newFakeProvider()
	p.add("Conference", "", at(9, 0), time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC))
	e, rec := newTestEngine(t, p, Options{HorizonDays: 2})

	res, err := e.AutoSchedule(context.Background(), testEnv(), AutoRequest{Summary: "Report", DurationMinutes: 30})
	require.NoError(t, err)
	assert.False(t, res.Placed)
	assert.False(t, res.DeadlineMissed)
	assert.Equal(t, NoAvailabilityMessage, res.Message.String())
	assert.Equal(t, 1, rec.requests["auto/"+instrumentation.OutcomeNoAvailability])
}

func TestAutoSchedule_InvalidInput(t *testing.T) {
	e, rec := newTestEngine(t, newFakeProvider(), Options{})

	_, err := e.AutoSchedule(context.Background(), testEnv(), AutoRequest{Summary: "x"})
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = e.AutoSchedule(context.Background(), Env{}, AutoRequest{Summary: "x", DurationMinutes: 5})
	assert.ErrorIs(t, err, ErrMissingCalendarID)

	assert.Equal(t, 2, rec.requests["auto/"+instrumentation.OutcomeError])
}

// A manual event displaces the plain auto event it overlaps.
func TestManualSchedule_DisplacesAutoEvent(t *testing.T) {
	p := newFakeProvider()
	focusID := p.add("Focus", "", at(14, 30), at(15, 0))
	e, rec := newTestEngine(t, p, Options{})

	res, err := e.ManualSchedule(context.Background(), testEnv(), ManualRequest{
		Summary:         "Meeting",
		Date:            "2026-10-19",
		Time:            "14:00",
		DurationMinutes: 60,
	})
	require.NoError(t, err)

	assert.True(t, at(14, 0).Equal(res.Start))
	assert.True(t, at(15, 0).Equal(res.End))
	assert.Equal(t, ConflictsRescheduledMessage, res.Message.ConflictingEvents)
	assert.Equal(t, "Mon Oct 19 2026 14:00:00 GMT+0000 (UTC) Conflicting events rescheduled.", res.Message.String())

	meeting := p.get(res.EventID)
	assert.Equal(t, MarkerManual, meeting.Description)

	focus := p.get(focusID)
	assert.True(t, at(9, 0).Equal(focus.Start), "focus moved to %s", focus.Start)
	assert.Equal(t, 1, rec.requests["manual/"+instrumentation.OutcomePlaced])
}

// One displaced event misses its deadline while another is moved; the
// deadline warning wins.
func TestManualSchedule_ConflictDeadlineIssueWins(t *testing.T) {
	p := newFakeProvider()
	p.add("Blocked", MarkerUnavailableHours, at(9, 0), at(12, 0))
	aID := p.add("A", "", at(14, 0), at(14, 30))
	bDescription := NewSettings(at(9, 30), time.Time{}).Format()
	bID := p.add("B", bDescription, at(14, 30), at(15, 0))
	e, rec := newTestEngine(t, p, Options{})

	res, err := e.ManualSchedule(context.Background(), testEnv(), ManualRequest{
		Summary:         "Meeting",
		Date:            "2026-10-19",
		Time:            "14:00",
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, ConflictDeadlineIssueMessage, res.Message.ConflictingEvents)

	a := p.get(aID)
	assert.True(t, at(12, 0).Equal(a.Start), "A moved to %s", a.Start)

	b := p.get(bID)
	assert.True(t, at(14, 30).Equal(b.Start), "B should stay put, got %s", b.Start)
	assert.Equal(t, bDescription, b.Description)

	assert.Equal(t, 1, rec.conflicts[instrumentation.ConflictRescheduled])
	assert.Equal(t, 1, rec.conflicts[instrumentation.ConflictDeadlineMiss])
}

func TestManualSchedule_FixedEventsAreNotMoved(t *testing.T) {
	p := newFakeProvider()
	gymID := p.add("Gym", MarkerManual, at(14, 30), at(15, 30))
	e, _ := newTestEngine(t, p, Options{})

	res, err := e.ManualSchedule(context.Background(), testEnv(), ManualRequest{
		Summary:         "Meeting",
		Date:            "2026-10-19",
		Time:            "14:00",
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, ConflictFixedEventsMessage, res.Message.ConflictingEvents)
	assert.True(t, at(14, 30).Equal(p.get(gymID).Start))
}

func TestManualSchedule_MovesExistingEvent(t *testing.T) {
	p := newFakeProvider()
	id := p.add("Gym", NewSettings(time.Time{}, at(10, 0)).Format(), at(10, 0), at(11, 0))
	e, _ := newTestEngine(t, p, Options{})

	res, err := e.ManualSchedule(context.Background(), testEnv(), ManualRequest{
		Summary:         "Gym",
		Date:            "2026-10-20",
		Time:            "07:30",
		DurationMinutes: 45,
		EventID:         id,
	})
	require.NoError(t, err)
	assert.Equal(t, id, res.EventID)
	assert.Equal(t, 0, p.calls["insert"])

	ev := p.get(id)
	assert.True(t, time.Date(2026, 10, 20, 7, 30, 0, 0, time.UTC).Equal(ev.Start))
	assert.Equal(t, 45*time.Minute, ev.End.Sub(ev.Start))
	assert.Equal(t, MarkerManual, ev.Description)
}

func TestManualSchedule_UsesEnvLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	p := newFakeProvider()
	e, _ := newTestEngine(t, p, Options{})
	env := testEnv()
	env.Location = berlin

	res, err := e.ManualSchedule(context.Background(), env, ManualRequest{
		Summary: "Dentist", Date: "2026-10-19", Time: "08:00", DurationMinutes: 30,
	})
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC).Equal(res.Start))
	assert.Equal(t, "Europe/Berlin", p.inserts[0].TimeZone)
}

func TestManualSchedule_InvalidInput(t *testing.T) {
	e, _ := newTestEngine(t, newFakeProvider(), Options{})

	_, err := e.ManualSchedule(context.Background(), testEnv(), ManualRequest{Summary: "x", Date: "19/10/2026", Time: "14:00", DurationMinutes: 30})
	assert.ErrorIs(t, err, ErrInvalidDateTime)

	_, err = e.ManualSchedule(context.Background(), testEnv(), ManualRequest{Summary: "x", Date: "2026-10-19", Time: "14:00"})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestManualSchedule_ConflictFailureKeepsBooking(t *testing.T) {
	p := newFakeProvider()
	boom := errors.New("list failed")
	p.failOn["list"] = boom
	e, rec := newTestEngine(t, p, Options{})

	res, err := e.ManualSchedule(context.Background(), testEnv(), ManualRequest{
		Summary: "Meeting", Date: "2026-10-19", Time: "14:00", DurationMinutes: 60,
	})
	require.ErrorIs(t, err, boom)
	require.NotNil(t, res)
	assert.NotNil(t, p.bySummary("Meeting"), "the placed event stays booked")
	assert.Equal(t, 1, rec.requests["manual/"+instrumentation.OutcomeError])
}

func TestWriteEvent(t *testing.T) {
	p := newFakeProvider()
	id := p.add("Gym", "keep", at(10, 0), at(11, 0))
	e, _ := newTestEngine(t, p, Options{ColorID: "5", ReminderMinutes: 10})

	ev, err := e.WriteEvent(context.Background(), testEnv(), "Gym", at(12, 0), at(13, 0), "ignored", id)
	require.NoError(t, err)
	assert.Equal(t, "keep", ev.Description, "patching only moves the event")
	assert.True(t, at(12, 0).Equal(ev.Start))

	_, err = e.WriteEvent(context.Background(), testEnv(), "Swim", at(12, 0), at(13, 0), "", "")
	require.NoError(t, err)
	require.Len(t, p.inserts, 1)
	assert.Equal(t, "5", *p.inserts[0].ColorID)
	assert.Equal(t, 10, p.inserts[0].Reminders[0].Minutes)

	_, err = e.WriteEvent(context.Background(), testEnv(), "Swim", time.Time{}, at(13, 0), "", "")
	assert.ErrorIs(t, err, ErrMissingInstant)
}
