package notification

import (
	"context"

	"medislot/models"
)

// Publisher accepts live events after the triggering write has committed. Publish
// never blocks the caller and never reports delivery failures.
type Publisher interface {
	Publish(n models.Notification)
}

// Sink delivers one event over one transport.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n models.Notification) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(models.Notification) {}

// UserTopic is the per-account topic used by the websocket hub.
func UserTopic(userID string) string {
	return "user:" + userID
}
