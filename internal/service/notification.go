package service

import (
	"context"
	"log"
	"time"
)

// EventType identifies the kind of lifecycle event pushed to a user.
type EventType string

const (
	EventTripRequest   EventType = "trip_request"
	EventTripConfirmed EventType = "trip_confirmed"
	EventTripRejected  EventType = "trip_rejected"
	EventStatusChanged EventType = "status_changed"
	EventTripCancelled EventType = "trip_cancelled"
)

// Event is the payload pushed to a user's live connections.
type Event struct {
	Type      EventType      `json:"type"`
	TripID    string         `json:"trip_id"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Notifier delivers an event to one user's active connections.
// Delivery is fire-and-forget: the lifecycle service never lets a push
// failure undo a committed transition.
type Notifier interface {
	Notify(ctx context.Context, userID string, event Event) error
}

// ConnectionSender is the part of the websocket hub the dispatcher uses.
type ConnectionSender interface {
	Send(userID string, payload any) error
}

// PushNotifier delivers events over the websocket connection registry.
type PushNotifier struct {
	sender ConnectionSender
}

// NewPushNotifier creates a Notifier backed by the given registry.
func NewPushNotifier(sender ConnectionSender) *PushNotifier {
	return &PushNotifier{sender: sender}
}

// Notify pushes the event to the user's connections.
func (n *PushNotifier) Notify(ctx context.Context, userID string, event Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return n.sender.Send(userID, event)
}

// LogNotifier is a Notifier that only logs. Used when no registry is
// wired, for example in one-off tooling.
type LogNotifier struct{}

// Notify logs the event.
func (LogNotifier) Notify(ctx context.Context, userID string, event Event) error {
	log.Printf("[NOTIFICATION] type=%s trip=%s recipient=%s", event.Type, event.TripID, userID)
	return nil
}

var (
	_ Notifier = (*PushNotifier)(nil)
	_ Notifier = LogNotifier{}
)
