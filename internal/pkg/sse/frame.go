package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
)

// WriteEvent writes ev as one SSE frame: event name, id, then the JSON payload.
func WriteEvent(w io.Writer, ev notification.Event) error {
	data, err := json.Marshal(notification.ToEventResponse(ev))
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.ID, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\nid: %s\ndata: %s\n\n", ev.Type, ev.ID, data)
	return err
}

// WriteMessage writes a named control frame such as connected or ping
func WriteMessage(w io.Writer, name string, payload interface{}) error {
	if strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("invalid sse event name %q", name)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", name, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
