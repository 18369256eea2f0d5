package scheduling

import "strings"

// User-facing messages. Callers classify results by exact match on these.
const (
	DeadlineWarning = "There was no time slot available for this event before its deadline. " +
		"Free some space in your calendar and try again."
	NoAvailabilityMessage = "No available time slot was found within the scheduling horizon."

	ConflictsRescheduledMessage   = "Conflicting events rescheduled."
	ConflictDeadlineIssueMessage  = "One or more conflicting events could not be rescheduled before their deadline. These events were not changed."
	ConflictFixedEventsMessage    = "Conflicting events that are manually scheduled or part of your weekly hours were not changed."
	ConflictUnplacedEventsMessage = "One or more conflicting events could not be rescheduled within the scheduling horizon. These events were not changed."
)

// UserMessage is the human-readable outcome of one scheduling request.
type UserMessage struct {
	EventBeingScheduled string `json:"event_being_scheduled,omitempty"`
	ConflictingEvents   string `json:"conflicting_events,omitempty"`
}

// String joins the non-empty parts with a space.
func (m UserMessage) String() string {
	parts := make([]string, 0, 2)
	if m.EventBeingScheduled != "" {
		parts = append(parts, m.EventBeingScheduled)
	}
	if m.ConflictingEvents != "" {
		parts = append(parts, m.ConflictingEvents)
	}
	return strings.Join(parts, " ")
}

// conflictOutcome accumulates the decisions of one or more resolver passes.
type conflictOutcome struct {
	rescheduled   bool
	deadlineIssue bool
	unplaced      bool
	fixed         bool
}

func (o *conflictOutcome) merge(other conflictOutcome) {
	o.rescheduled = o.rescheduled || other.rescheduled
	o.deadlineIssue = o.deadlineIssue || other.deadlineIssue
	o.unplaced = o.unplaced || other.unplaced
	o.fixed = o.fixed || other.fixed
}

// message picks the single status line reported to the user. A deadline
// miss wins over everything else.
func (o conflictOutcome) message() string {
	switch {
	case o.deadlineIssue:
		return ConflictDeadlineIssueMessage
	case o.unplaced:
		return ConflictUnplacedEventsMessage
	case o.rescheduled:
		return ConflictsRescheduledMessage
	case o.fixed:
		return ConflictFixedEventsMessage
	default:
		return ""
	}
}
