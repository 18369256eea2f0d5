package scheduling

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Description markers. These strings are shared with every other client of
// the calendar and must not change.
const (
	MarkerManual           = "Manually scheduled"
	MarkerWorkingHours     = "Working hours"
	MarkerUnavailableHours = "Unavailable hours"

	deadlineKey   = "Deadline"
	minStartKey   = "Minimum start time"
	settingsSplit = " | "
)

// TimestampLayout is the layout of instants embedded in descriptions,
// e.g. "Mon Oct 19 2026 17:00:00 GMT+0200 (CEST)".
const TimestampLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

const timestampParseLayout = "Mon Jan 02 2006 15:04:05 GMT-0700"

var zoneNameSuffix = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// FormatTimestamp renders t with TimestampLayout, truncated to the second.
func FormatTimestamp(t time.Time) string {
	return t.Truncate(time.Second).Format(TimestampLayout)
}

// ParseTimestamp parses a FormatTimestamp string. The parenthesized zone
// name is ignored; the numeric offset is authoritative. The result is
// expressed in loc when loc is non-nil.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	trimmed := zoneNameSuffix.ReplaceAllString(strings.TrimSpace(s), "")
	t, err := time.Parse(timestampParseLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t, nil
}

// Kind tags the variant held by Settings.
type Kind int

const (
	KindNone Kind = iota
	KindManual
	KindDeadline
	KindMinStart
	KindBoth
)

func (k Kind) String() string {
	switch k {
	case KindManual:
		return "manual"
	case KindDeadline:
		return "deadline"
	case KindMinStart:
		return "min_start"
	case KindBoth:
		return "deadline_and_min_start"
	default:
		return "none"
	}
}

// Settings is the scheduling metadata carried in an event description.
// Deadline is set for KindDeadline and KindBoth, MinStart for KindMinStart
// and KindBoth.
type Settings struct {
	Kind     Kind
	Deadline time.Time
	MinStart time.Time
}

// ManualSettings marks an event as manually scheduled.
func ManualSettings() Settings {
	return Settings{Kind: KindManual}
}

// NewSettings builds auto-scheduling settings. Zero instants are absent.
func NewSettings(deadline, minStart time.Time) Settings {
	switch {
	case !deadline.IsZero() && !minStart.IsZero():
		return Settings{Kind: KindBoth, Deadline: deadline, MinStart: minStart}
	case !deadline.IsZero():
		return Settings{Kind: KindDeadline, Deadline: deadline}
	case !minStart.IsZero():
		return Settings{Kind: KindMinStart, MinStart: minStart}
	default:
		return Settings{}
	}
}

// HasDeadline reports whether the settings carry a deadline.
func (s Settings) HasDeadline() bool {
	return s.Kind == KindDeadline || s.Kind == KindBoth
}

// HasMinStart reports whether the settings carry a minimum start time.
func (s Settings) HasMinStart() bool {
	return s.Kind == KindMinStart || s.Kind == KindBoth
}

// Equal reports whether both settings hold the same variant and instants.
func (s Settings) Equal(o Settings) bool {
	return s.Kind == o.Kind && s.Deadline.Equal(o.Deadline) && s.MinStart.Equal(o.MinStart)
}

// Format renders the settings as an event description.
func (s Settings) Format() string {
	switch s.Kind {
	case KindManual:
		return MarkerManual
	case KindDeadline:
		return deadlineKey + ": " + FormatTimestamp(s.Deadline)
	case KindMinStart:
		return minStartKey + ": " + FormatTimestamp(s.MinStart)
	case KindBoth:
		return deadlineKey + ": " + FormatTimestamp(s.Deadline) + settingsSplit +
			minStartKey + ": " + FormatTimestamp(s.MinStart)
	default:
		return ""
	}
}

// ParseSettings reads settings back from an event description. Descriptions
// without any scheduling marker, including weekly hours, yield KindNone.
func ParseSettings(description string, loc *time.Location) (Settings, error) {
	if strings.Contains(description, MarkerManual) {
		return ManualSettings(), nil
	}

	hasDeadline := strings.Contains(description, deadlineKey)
	hasMinStart := strings.Contains(description, minStartKey)

	var deadline, minStart time.Time
	var err error
	switch {
	case hasDeadline && hasMinStart:
		for _, part := range strings.Split(description, "|") {
			part = strings.TrimSpace(part)
			switch {
			case strings.HasPrefix(part, deadlineKey):
				deadline, err = parseSettingValue(part, deadlineKey, loc)
			case strings.HasPrefix(part, minStartKey):
				minStart, err = parseSettingValue(part, minStartKey, loc)
			}
			if err != nil {
				return Settings{}, err
			}
		}
	case hasDeadline:
		deadline, err = parseSettingValue(description, deadlineKey, loc)
	case hasMinStart:
		minStart, err = parseSettingValue(description, minStartKey, loc)
	}
	if err != nil {
		return Settings{}, err
	}

	return NewSettings(deadline, minStart), nil
}

func parseSettingValue(s, key string, loc *time.Location) (time.Time, error) {
	idx := strings.Index(s, key)
	value := strings.TrimSpace(s[idx+len(key):])
	value = strings.TrimSpace(strings.TrimPrefix(value, ":"))
	t, err := ParseTimestamp(value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", strings.ToLower(key), err)
	}
	return t, nil
}

// Class is the priority class of an event, derived from its description.
type Class int

const (
	ClassPlainAuto Class = iota
	ClassWorkingHours
	ClassUnavailableHours
	ClassManuallyScheduled
	ClassHasDeadline
)

func (c Class) String() string {
	switch c {
	case ClassWorkingHours:
		return "working_hours"
	case ClassUnavailableHours:
		return "unavailable_hours"
	case ClassManuallyScheduled:
		return "manually_scheduled"
	case ClassHasDeadline:
		return "has_deadline"
	default:
		return "plain_auto"
	}
}

// HighPriority reports whether only other high-priority events may displace c.
func (c Class) HighPriority() bool {
	return c != ClassPlainAuto
}

// Fixed reports whether the conflict resolver must leave events of class c in place.
func (c Class) Fixed() bool {
	return c == ClassWorkingHours || c == ClassUnavailableHours || c == ClassManuallyScheduled
}

// ClassOf classifies an event description. Matching is a case-sensitive
// substring test.
func ClassOf(description string) Class {
	switch {
	case strings.Contains(description, MarkerWorkingHours):
		return ClassWorkingHours
	case strings.Contains(description, MarkerUnavailableHours):
		return ClassUnavailableHours
	case strings.Contains(description, MarkerManual):
		return ClassManuallyScheduled
	case strings.Contains(description, deadlineKey):
		return ClassHasDeadline
	default:
		return ClassPlainAuto
	}
}
