package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/BariVakhidov/eventboard/internal/domain/models"
	"github.com/google/uuid"
)

const (
	TableEvents = "events"
	TableRSVPs  = "rsvps"
)

var (
	ErrEventExists   = errors.New("event already exists")
	ErrRSVPExists    = errors.New("rsvp already exists")
	ErrInvalidRecord = errors.New("record rejected by data service")
	ErrSnapshotEmpty = errors.New("snapshot not found")
)

// Store is the contract every data service backend satisfies.
type Store interface {
	SaveEvent(ctx context.Context, event models.NewEvent) (models.Event, error)
	// Events returns every event ordered by date ascending.
	Events(ctx context.Context) ([]models.Event, error)
	SaveRSVP(ctx context.Context, rsvp models.NewRSVP) (models.RSVP, error)
	RSVPsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RSVP, error)
	Close() error
}

const (
	CodeUniqueViolation = "23505"
	CodeNotNull         = "23502"
	CodeForeignKey      = "23503"
	CodeCheck           = "23514"
	CodeInvalidText     = "22P02"
)

// ServiceError is a failure reported by the data service itself. Message is
// the service's human-readable text and is safe to show to users.
type ServiceError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("data service error (status %d, code %q)", e.StatusCode, e.Code)
	}

	return e.Message
}

// Classify wraps a ServiceError with the sentinel matching its code.
// exists is used for unique violations.
func Classify(err error, exists error) error {
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		return err
	}

	switch svcErr.Code {
	case CodeUniqueViolation:
		return fmt.Errorf("%w: %w", exists, err)
	case CodeNotNull, CodeForeignKey, CodeCheck, CodeInvalidText:
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	return err
}

// Message returns the service message carried by err, or fallback.
func Message(err error, fallback string) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}

	return fallback
}
