package localcal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"gorm.io/gorm"

	"github.com/teemow/autoschedule/internal/calendar"
	"github.com/teemow/autoschedule/internal/logging"
)

const (
	defaultMaxOccurrences = 5000

	// instanceLayout is the timestamp suffix of expanded instance ids and
	// the EXDATE value format.
	instanceLayout = "20060102T150405Z"
)

// Options configures a Store.
type Options struct {
	// MaxOccurrences caps how many instances one series expands to per query.
	MaxOccurrences int
	Logger         logging.Logger
}

// Store is a calendar.Provider backed by a sqlite database. Recurring
// series are expanded into single instances on read, and moving or
// deleting one instance records an exception on its series.
type Store struct {
	db     *gorm.DB
	opts   Options
	logger logging.Logger
}

var _ calendar.Provider = (*Store)(nil)

// New wraps an already migrated database.
func New(db *gorm.DB, opts Options) *Store {
	if opts.MaxOccurrences <= 0 {
		opts.MaxOccurrences = defaultMaxOccurrences
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Store{db: db, opts: opts, logger: logger}
}

// Open opens the database at dsn and returns a Store on it.
func Open(dsn string, opts Options) (*Store, error) {
	db, err := OpenDB(dsn, opts.Logger)
	if err != nil {
		return nil, err
	}
	return New(db, opts), nil
}

// MemoryDSN returns a DSN for a fresh private in-memory database.
func MemoryDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ListEvents returns single instances overlapping [timeMin, timeMax), ordered by start time.
func (s *Store) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]calendar.Event, error) {
	if calendarID == "" {
		return nil, calendar.ErrMissingCalendarID
	}

	var records []eventRecord
	err := s.db.WithContext(ctx).
		Where("calendar_id = ? AND start_at < ? AND (recurrence <> '' OR end_at > ?)",
			calendarID, timeMax.UTC(), timeMin.UTC()).
		Order("start_at").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	var events []calendar.Event
	for i := range records {
		rec := &records[i]
		if rec.Recurrence == "" {
			events = append(events, rec.toEvent())
			continue
		}
		instances, err := s.expand(rec, timeMin, timeMax)
		if err != nil {
			return nil, fmt.Errorf("expand series %s: %w", rec.ID, err)
		}
		events = append(events, instances...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

// FreeBusy merges the events overlapping [timeMin, timeMax) into ascending,
// non-overlapping busy intervals clipped to the range.
func (s *Store) FreeBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]calendar.Interval, error) {
	events, err := s.ListEvents(ctx, calendarID, timeMin, timeMax)
	if err != nil {
		return nil, err
	}

	var busy []calendar.Interval
	for _, ev := range events {
		start, end := ev.Start, ev.End
		if start.Before(timeMin) {
			start = timeMin
		}
		if end.After(timeMax) {
			end = timeMax
		}
		if !end.After(start) {
			continue
		}
		if n := len(busy); n > 0 && !start.After(busy[n-1].End) {
			if end.After(busy[n-1].End) {
				busy[n-1].End = end
			}
			continue
		}
		busy = append(busy, calendar.Interval{Start: start, End: end})
	}
	return busy, nil
}

// InsertEvent stores a new event under a random UUID.
func (s *Store) InsertEvent(ctx context.Context, calendarID string, fields calendar.EventFields) (*calendar.Event, error) {
	if calendarID == "" {
		return nil, calendar.ErrMissingCalendarID
	}
	if fields.Start == nil || fields.End == nil {
		return nil, errors.New("create event: start and end are required")
	}

	rec := eventRecord{ID: uuid.NewString(), CalendarID: calendarID}
	rec.apply(fields)
	if len(rec.recurrenceLines()) > 0 {
		if _, err := recurrenceSet(&rec); err != nil {
			return nil, fmt.Errorf("create event: %w", err)
		}
	}

	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	ev := rec.toEvent()
	return &ev, nil
}

// PatchEvent updates the given fields. Patching an expanded instance
// detaches it from its series as a standalone exception.
func (s *Store) PatchEvent(ctx context.Context, calendarID, eventID string, fields calendar.EventFields) (*calendar.Event, error) {
	if calendarID == "" {
		return nil, calendar.ErrMissingCalendarID
	}

	var out calendar.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := findRecord(tx, calendarID, eventID)
		if err == nil {
			rec.apply(fields)
			if err := tx.Save(rec).Error; err != nil {
				return err
			}
			out = rec.toEvent()
			return nil
		}
		if !errors.Is(err, calendar.ErrNotFound) {
			return err
		}

		master, start, err := findInstance(tx, calendarID, eventID)
		if err != nil {
			return err
		}
		exception := *master
		exception.ID = eventID
		exception.SeriesID = master.ID
		exception.Recurrence = ""
		exception.StartAt = start
		exception.EndAt = start.Add(master.EndAt.Sub(master.StartAt))
		exception.CreatedAt = time.Time{}
		exception.UpdatedAt = time.Time{}
		exception.apply(fields)

		master.Recurrence += "\nEXDATE:" + start.Format(instanceLayout)
		if err := tx.Save(master).Error; err != nil {
			return err
		}
		if err := tx.Create(&exception).Error; err != nil {
			return err
		}
		out = exception.toEvent()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("patch event: %w", err)
	}
	return &out, nil
}

// DeleteEvent removes an event. Deleting a series master removes its moved
// instances too; deleting an expanded instance excludes it from its series.
func (s *Store) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if calendarID == "" {
		return calendar.ErrMissingCalendarID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := findRecord(tx, calendarID, eventID)
		if err == nil {
			return tx.Where("id = ? OR series_id = ?", rec.ID, rec.ID).Delete(&eventRecord{}).Error
		}
		if !errors.Is(err, calendar.ErrNotFound) {
			return err
		}

		master, start, err := findInstance(tx, calendarID, eventID)
		if err != nil {
			return err
		}
		master.Recurrence += "\nEXDATE:" + start.Format(instanceLayout)
		return tx.Save(master).Error
	})
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func findRecord(tx *gorm.DB, calendarID, id string) (*eventRecord, error) {
	var rec eventRecord
	err := tx.Where("calendar_id = ? AND id = ?", calendarID, id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, calendar.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// findInstance resolves an expanded instance id to its series master and
// the instance start. An instance that was already excluded is gone.
func findInstance(tx *gorm.DB, calendarID, id string) (*eventRecord, time.Time, error) {
	masterID, start, ok := splitInstanceID(id)
	if !ok {
		return nil, time.Time{}, calendar.ErrNotFound
	}
	master, err := findRecord(tx, calendarID, masterID)
	if err != nil {
		return nil, time.Time{}, err
	}
	if master.Recurrence == "" {
		return nil, time.Time{}, calendar.ErrNotFound
	}
	for _, line := range master.recurrenceLines() {
		if strings.HasPrefix(line, "EXDATE") && strings.Contains(line, start.Format(instanceLayout)) {
			return nil, time.Time{}, calendar.ErrGone
		}
	}
	return master, start, nil
}

func instanceID(seriesID string, start time.Time) string {
	return seriesID + "_" + start.UTC().Format(instanceLayout)
}

func splitInstanceID(id string) (string, time.Time, bool) {
	idx := strings.LastIndex(id, "_")
	if idx <= 0 {
		return "", time.Time{}, false
	}
	start, err := time.Parse(instanceLayout, id[idx+1:])
	if err != nil {
		return "", time.Time{}, false
	}
	return id[:idx], start, true
}

// expand returns the instances of a series overlapping [timeMin, timeMax).
func (s *Store) expand(rec *eventRecord, timeMin, timeMax time.Time) ([]calendar.Event, error) {
	set, err := recurrenceSet(rec)
	if err != nil {
		return nil, err
	}

	loc := rec.location()
	duration := rec.EndAt.Sub(rec.StartAt)
	starts := set.Between(timeMin.Add(-duration).In(loc), timeMax.In(loc), false)
	if len(starts) > s.opts.MaxOccurrences {
		s.logger.Warn("recurring series truncated",
			logging.KeyEventID, rec.ID,
			"cap", s.opts.MaxOccurrences)
		starts = starts[:s.opts.MaxOccurrences]
	}

	instances := make([]calendar.Event, 0, len(starts))
	for _, start := range starts {
		ev := rec.toEvent()
		ev.ID = instanceID(rec.ID, start)
		ev.RecurringEventID = rec.ID
		ev.Recurrence = nil
		ev.Start = start.In(loc)
		ev.End = start.Add(duration).In(loc)
		instances = append(instances, ev)
	}
	return instances, nil
}

// recurrenceSet builds the rrule set of a series from its RRULE and EXDATE
// lines, anchored at the series start in its own time zone.
func recurrenceSet(rec *eventRecord) (*rrule.Set, error) {
	dtstart := rec.StartAt.In(rec.location())

	set := &rrule.Set{}
	hasRule := false
	for _, line := range rec.recurrenceLines() {
		switch {
		case strings.HasPrefix(line, "RRULE:"):
			opt, err := rrule.StrToROption(strings.TrimPrefix(line, "RRULE:"))
			if err != nil {
				return nil, fmt.Errorf("invalid recurrence %q: %w", line, err)
			}
			opt.Dtstart = dtstart
			r, err := rrule.NewRRule(*opt)
			if err != nil {
				return nil, fmt.Errorf("invalid recurrence %q: %w", line, err)
			}
			set.RRule(r)
			hasRule = true
		case strings.HasPrefix(line, "EXDATE"):
			idx := strings.Index(line, ":")
			if idx < 0 {
				return nil, fmt.Errorf("invalid exclusion %q", line)
			}
			for _, value := range strings.Split(line[idx+1:], ",") {
				t, err := time.Parse(instanceLayout, strings.TrimSpace(value))
				if err != nil {
					return nil, fmt.Errorf("invalid exclusion %q: %w", line, err)
				}
				set.ExDate(t)
			}
		}
	}
	if !hasRule {
		set.RDate(dtstart)
	}
	return set, nil
}
