package sqllite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BariVakhidov/eventboard/internal/domain/converter"
	"github.com/BariVakhidov/eventboard/internal/domain/models"
	"github.com/BariVakhidov/eventboard/internal/storage"
	storageModel "github.com/BariVakhidov/eventboard/internal/storage/model"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

const (
	eventColumns = "id,title,type,date,location,host,description,created_at"
	rsvpColumns  = "id,event_id,user_name,user_email,created_at"
)

type Storage struct {
	db  *sql.DB
	now func() time.Time
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.sqlite.New"

	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db, now: time.Now}, nil
}

func (s *Storage) SaveEvent(ctx context.Context, event models.NewEvent) (models.Event, error) {
	const op = "storage.sqlite.SaveEvent"

	saved := storageModel.Event{
		ID:          uuid.New(),
		Title:       event.Title,
		Type:        string(event.Type),
		Date:        event.Date,
		Location:    event.Location,
		Host:        event.Host,
		Description: event.Description,
		CreatedAt:   s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, "INSERT INTO events("+eventColumns+") VALUES(?,?,?,?,?,?,?,?)",
		saved.ID, saved.Title, saved.Type, saved.Date, saved.Location, saved.Host, saved.Description, saved.CreatedAt,
	)
	if err != nil {
		return models.Event{}, fmt.Errorf("%s: %w", op, storage.Classify(sqliteError(err), storage.ErrEventExists))
	}

	return converter.ToEventFromStorage(saved), nil
}

func (s *Storage) Events(ctx context.Context) ([]models.Event, error) {
	const op = "storage.sqlite.Events"

	rows, err := s.db.QueryContext(ctx, "SELECT "+eventColumns+" FROM events ORDER BY date ASC")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	events := make([]storageModel.Event, 0)
	for rows.Next() {
		var event storageModel.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return converter.ToEventsFromStorage(events), nil
}

func (s *Storage) SaveRSVP(ctx context.Context, rsvp models.NewRSVP) (models.RSVP, error) {
	const op = "storage.sqlite.SaveRSVP"

	saved := storageModel.RSVP{
		ID:        uuid.New(),
		EventID:   rsvp.EventID,
		UserName:  rsvp.UserName,
		UserEmail: rsvp.UserEmail,
		CreatedAt: s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, "INSERT INTO rsvps("+rsvpColumns+") VALUES(?,?,?,?,?)",
		saved.ID, saved.EventID, saved.UserName, saved.UserEmail, saved.CreatedAt,
	)
	if err != nil {
		return models.RSVP{}, fmt.Errorf("%s: %w", op, storage.Classify(sqliteError(err), storage.ErrRSVPExists))
	}

	return converter.ToRSVPFromStorage(saved), nil
}

func (s *Storage) RSVPsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RSVP, error) {
	const op = "storage.sqlite.RSVPsByEvent"

	rows, err := s.db.QueryContext(ctx, "SELECT "+rsvpColumns+" FROM rsvps WHERE event_id=?", eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	rsvps := make([]storageModel.RSVP, 0)
	for rows.Next() {
		var rsvp storageModel.RSVP
		if err := rows.Scan(&rsvp.ID, &rsvp.EventID, &rsvp.UserName, &rsvp.UserEmail, &rsvp.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rsvps = append(rsvps, rsvp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return converter.ToRSVPsFromStorage(rsvps), nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner, event *storageModel.Event) error {
	return row.Scan(&event.ID, &event.Title, &event.Type, &event.Date, &event.Location, &event.Host, &event.Description, &event.CreatedAt)
}

func sqliteError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	code := ""
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		code = storage.CodeUniqueViolation
	case sqlite3.ErrConstraintNotNull:
		code = storage.CodeNotNull
	case sqlite3.ErrConstraintForeignKey:
		code = storage.CodeForeignKey
	case sqlite3.ErrConstraintCheck:
		code = storage.CodeCheck
	}

	return &storage.ServiceError{Code: code, Message: sqliteErr.Error()}
}
