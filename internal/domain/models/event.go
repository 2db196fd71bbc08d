package models

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Type        EventType `json:"type"`
	Date        string    `json:"date"`
	Location    string    `json:"location"`
	Host        string    `json:"host"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewEvent is the record a client submits; the data service assigns ID and CreatedAt.
type NewEvent struct {
	Title       string    `json:"title"`
	Type        EventType `json:"type"`
	Date        string    `json:"date"`
	Location    string    `json:"location"`
	Host        string    `json:"host"`
	Description string    `json:"description"`
}

// DisplayDate formats Date for cards and detail pages, falling back to the raw value.
func (e Event) DisplayDate() string {
	d, err := ParseDate(e.Date, time.UTC)
	if err != nil {
		return e.Date
	}

	return d.Format("Mon, Jan 2, 2006")
}
