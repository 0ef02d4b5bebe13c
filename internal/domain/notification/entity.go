package notification

import (
	"time"
)

// EventType names a lifecycle fact
type EventType string

const (
	TypeEntryReleasable EventType = "payroll.entry_releasable"
	TypeEntryReleased   EventType = "payroll.entry_released"
	TypePeriodArchived  EventType = "payroll.period_archived"
	TypeMarkedAbsent    EventType = "attendance.marked_absent"
)

// AllEventTypes returns all event types
func AllEventTypes() []EventType {
	return []EventType{
		TypeEntryReleasable,
		TypeEntryReleased,
		TypePeriodArchived,
		TypeMarkedAbsent,
	}
}

// TopicAll receives every event regardless of employee
const TopicAll = "*"

// Event is a plain fact about the payroll or attendance lifecycle.
// EmployeeID is empty for period-wide events.
type Event struct {
	ID         string
	Type       EventType
	EmployeeID string
	Data       map[string]interface{}
	OccurredAt time.Time
}

// Topics returns the hub topics the event is delivered to
func (e Event) Topics() []string {
	if e.EmployeeID == "" {
		return []string{TopicAll}
	}
	return []string{TopicAll, e.EmployeeID}
}
