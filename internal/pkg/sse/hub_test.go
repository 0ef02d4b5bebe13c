package sse

import (
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastRoutesByEventTopics(t *testing.T) {
	hub := NewHub()

	all, cleanupAll := hub.Subscribe(notification.TopicAll)
	defer cleanupAll()
	own, cleanupOwn := hub.Subscribe("emp-1")
	defer cleanupOwn()
	other, cleanupOther := hub.Subscribe("emp-2")
	defer cleanupOther()

	delivered, dropped := hub.Broadcast(notification.Event{ID: "ev-1", Type: notification.TypeEntryReleased, EmployeeID: "emp-1"})
	assert.Equal(t, 2, delivered)
	assert.Equal(t, 0, dropped)

	require.Len(t, all.Events(), 1)
	require.Len(t, own.Events(), 1)
	assert.Empty(t, other.Events())
	assert.Equal(t, "ev-1", (<-own.Events()).ID)

	// Period-wide events only reach the all topic
	delivered, _ = hub.Broadcast(notification.Event{ID: "ev-2", Type: notification.TypePeriodArchived})
	assert.Equal(t, 1, delivered)
	assert.Empty(t, own.Events())
}

func TestHub_CleanupRemovesSubscriberAndClosesChannel(t *testing.T) {
	hub := NewHub()

	sub, cleanup := hub.Subscribe("emp-1")
	_, cleanup2 := hub.Subscribe("emp-1")
	assert.Equal(t, 2, hub.SubscriberCount("emp-1"))
	assert.Equal(t, 2, hub.TotalSubscribers())
	assert.Equal(t, "emp-1", sub.Topic())

	cleanup()
	cleanup()
	assert.Equal(t, 1, hub.SubscriberCount("emp-1"))
	_, open := <-sub.Events()
	assert.False(t, open)

	cleanup2()
	assert.Equal(t, 0, hub.TotalSubscribers())

	delivered, _ := hub.Broadcast(notification.Event{Type: notification.TypeMarkedAbsent, EmployeeID: "emp-1"})
	assert.Equal(t, 0, delivered)
}

func TestHub_SlowSubscriberDropsWithoutBlocking(t *testing.T) {
	hub := NewHubWithBuffer(2)

	slow, cleanup := hub.Subscribe("emp-1")
	defer cleanup()

	var dropped int
	for i := 0; i < 5; i++ {
		_, d := hub.Broadcast(notification.Event{Type: notification.TypeMarkedAbsent, EmployeeID: "emp-1"})
		dropped += d
	}
	assert.Len(t, slow.Events(), 2)
	assert.Equal(t, 3, dropped)
	assert.Equal(t, int64(3), slow.Dropped())
}
