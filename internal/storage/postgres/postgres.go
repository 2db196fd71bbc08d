package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/BariVakhidov/eventboard/internal/domain/converter"
	"github.com/BariVakhidov/eventboard/internal/domain/models"
	"github.com/BariVakhidov/eventboard/internal/storage"
	storageModel "github.com/BariVakhidov/eventboard/internal/storage/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	eventColumns = "id,title,type,date::text,location,host,description,created_at"
	rsvpColumns  = "id,event_id,user_name,user_email,created_at"
)

type Storage struct {
	dbpool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Storage, error) {
	const op = "storage.postgres.New"

	dbpool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{dbpool: dbpool}, nil
}

func (s *Storage) SaveEvent(ctx context.Context, event models.NewEvent) (models.Event, error) {
	const op = "storage.postgres.SaveEvent"

	query := "INSERT INTO events(title,type,date,location,host,description) " +
		"VALUES(@title,@type,@date::date,@location,@host,@description) RETURNING " + eventColumns
	args := pgx.NamedArgs{
		"title":       event.Title,
		"type":        string(event.Type),
		"date":        event.Date,
		"location":    event.Location,
		"host":        event.Host,
		"description": event.Description,
	}

	row, err := scanEvent(s.dbpool.QueryRow(ctx, query, args))
	if err != nil {
		return models.Event{}, fmt.Errorf("%s: %w", op, storage.Classify(pgError(err), storage.ErrEventExists))
	}

	return converter.ToEventFromStorage(row), nil
}

func (s *Storage) Events(ctx context.Context) ([]models.Event, error) {
	const op = "storage.postgres.Events"

	rows, err := s.dbpool.Query(ctx, "SELECT "+eventColumns+" FROM events ORDER BY date ASC")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, pgError(err))
	}
	defer rows.Close()

	events := make([]storageModel.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, pgError(err))
	}

	return converter.ToEventsFromStorage(events), nil
}

func (s *Storage) SaveRSVP(ctx context.Context, rsvp models.NewRSVP) (models.RSVP, error) {
	const op = "storage.postgres.SaveRSVP"

	query := "INSERT INTO rsvps(event_id,user_name,user_email) VALUES(@eventId,@userName,@userEmail) RETURNING " + rsvpColumns
	args := pgx.NamedArgs{
		"eventId":   rsvp.EventID,
		"userName":  rsvp.UserName,
		"userEmail": rsvp.UserEmail,
	}

	var row storageModel.RSVP
	err := s.dbpool.QueryRow(ctx, query, args).Scan(&row.ID, &row.EventID, &row.UserName, &row.UserEmail, &row.CreatedAt)
	if err != nil {
		return models.RSVP{}, fmt.Errorf("%s: %w", op, storage.Classify(pgError(err), storage.ErrRSVPExists))
	}

	return converter.ToRSVPFromStorage(row), nil
}

func (s *Storage) RSVPsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RSVP, error) {
	const op = "storage.postgres.RSVPsByEvent"

	rows, err := s.dbpool.Query(ctx, "SELECT "+rsvpColumns+" FROM rsvps WHERE event_id=$1", eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, pgError(err))
	}
	defer rows.Close()

	rsvps := make([]storageModel.RSVP, 0)
	for rows.Next() {
		var row storageModel.RSVP
		if err := rows.Scan(&row.ID, &row.EventID, &row.UserName, &row.UserEmail, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rsvps = append(rsvps, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, pgError(err))
	}

	return converter.ToRSVPsFromStorage(rsvps), nil
}

func (s *Storage) Close() error {
	s.dbpool.Close()
	return nil
}

func scanEvent(row pgx.Row) (storageModel.Event, error) {
	var event storageModel.Event
	err := row.Scan(&event.ID, &event.Title, &event.Type, &event.Date, &event.Location, &event.Host, &event.Description, &event.CreatedAt)

	return event, err
}

// pgError lifts a server-side error into a storage.ServiceError so callers see
// the same shape regardless of backend.
func pgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &storage.ServiceError{Code: pgErr.Code, Message: pgErr.Message, Details: pgErr.Detail, Hint: pgErr.Hint}
	}

	return err
}
