package models

import (
	"time"

	"github.com/google/uuid"
)

type RSVP struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email"`
	CreatedAt time.Time `json:"created_at"`
}

type NewRSVP struct {
	EventID   uuid.UUID `json:"event_id"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email"`
}
