package notification

import "errors"

// Notification domain errors
var (
	ErrInvalidEventType  = errors.New("invalid event type")
	ErrPublisherStopped = errors.New("event publisher is stopped")
)
