package sse

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer
	occurred := time.Date(2025, time.September, 8, 18, 0, 1, 0, time.UTC)

	err := WriteEvent(&buf, notification.Event{
		ID:         "ev-9",
		Type:       notification.TypeMarkedAbsent,
		EmployeeID: "emp-1",
		Data:       map[string]interface{}{"date": "2025-09-08"},
		OccurredAt: occurred,
	})
	require.NoError(t, err)

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "event: attendance.marked_absent", lines[0])
	assert.Equal(t, "id: ev-9", lines[1])
	require.True(t, strings.HasPrefix(lines[2], "data: "))
	assert.Equal(t, "", lines[3])

	var payload notification.EventResponse
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[2], "data: ")), &payload))
	assert.Equal(t, "emp-1", payload.EmployeeID)
	assert.Equal(t, "2025-09-08", payload.Data["date"])
	assert.True(t, occurred.Equal(payload.OccurredAt))
}

func TestWriteMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, "connected", map[string]string{"topic": "emp-1"}))
	assert.Equal(t, "event: connected\ndata: {\"topic\":\"emp-1\"}\n\n", buf.String())

	assert.Error(t, WriteMessage(&buf, "bad\nname", nil))
}
