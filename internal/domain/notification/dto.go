package notification

import (
	"time"
)

// EventResponse represents an event in API and stream payloads
type EventResponse struct {
	ID         string                 `json:"id"`
	Type       EventType              `json:"type"`
	EmployeeID string                 `json:"employee_id,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func ToEventResponse(e Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		Type:       e.Type,
		EmployeeID: e.EmployeeID,
		Data:       e.Data,
		OccurredAt: e.OccurredAt,
	}
}
