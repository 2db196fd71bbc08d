package model

import (
	"time"

	"github.com/google/uuid"
)

type RSVP struct {
	ID        uuid.UUID `db:"id" json:"id"`
	EventID   uuid.UUID `db:"event_id" json:"event_id"`
	UserName  string    `db:"user_name" json:"user_name"`
	UserEmail string    `db:"user_email" json:"user_email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
