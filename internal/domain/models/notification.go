package models

import "github.com/google/uuid"

const (
	NotificationEventCreated = "event_created"
	NotificationRSVPCreated  = "rsvp_created"
)

// Notification is a message queued for the event sender after a successful write.
type Notification struct {
	ID      uuid.UUID
	Kind    string
	Payload []byte
}
