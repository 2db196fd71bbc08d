// Package postgrest talks to the hosted data service through its REST
// interface: insert-one, ordered select-all and equality-filtered select.
package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/BariVakhidov/eventboard/internal/domain/converter"
	"github.com/BariVakhidov/eventboard/internal/domain/models"
	"github.com/BariVakhidov/eventboard/internal/storage"
	storageModel "github.com/BariVakhidov/eventboard/internal/storage/model"
	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

const (
	restPath      = "/rest/v1"
	defaultSchema = "public"
)

type Storage struct {
	restURL string
	key     string
	base    http.RoundTripper
}

// New returns a Storage for the service rooted at baseURL. client may be nil;
// only its transport is used.
func New(baseURL, key string, client *http.Client) (*Storage, error) {
	const op = "storage.postgrest.New"

	if baseURL == "" || key == "" {
		return nil, fmt.Errorf("%s: url and key are required", op)
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	base := http.DefaultTransport
	if client != nil && client.Transport != nil {
		base = client.Transport
	}

	return &Storage{restURL: u.JoinPath(restPath).String(), key: key, base: base}, nil
}

func (s *Storage) SaveEvent(ctx context.Context, event models.NewEvent) (models.Event, error) {
	const op = "storage.postgrest.SaveEvent"

	var rows []storageModel.Event
	_, err := s.from(ctx, storage.TableEvents).
		Insert(event, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return models.Event{}, fmt.Errorf("%s: %w", op, storage.Classify(err, storage.ErrEventExists))
	}

	if len(rows) == 0 {
		return models.Event{}, fmt.Errorf("%s: empty insert response", op)
	}

	return converter.ToEventFromStorage(rows[0]), nil
}

func (s *Storage) Events(ctx context.Context) ([]models.Event, error) {
	const op = "storage.postgrest.Events"

	var rows []storageModel.Event
	_, err := s.from(ctx, storage.TableEvents).
		Select("*", "", false).
		Order("date", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return converter.ToEventsFromStorage(rows), nil
}

func (s *Storage) SaveRSVP(ctx context.Context, rsvp models.NewRSVP) (models.RSVP, error) {
	const op = "storage.postgrest.SaveRSVP"

	var rows []storageModel.RSVP
	_, err := s.from(ctx, storage.TableRSVPs).
		Insert(rsvp, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return models.RSVP{}, fmt.Errorf("%s: %w", op, storage.Classify(err, storage.ErrRSVPExists))
	}

	if len(rows) == 0 {
		return models.RSVP{}, fmt.Errorf("%s: empty insert response", op)
	}

	return converter.ToRSVPFromStorage(rows[0]), nil
}

func (s *Storage) RSVPsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RSVP, error) {
	const op = "storage.postgrest.RSVPsByEvent"

	var rows []storageModel.RSVP
	_, err := s.from(ctx, storage.TableRSVPs).
		Select("*", "", false).
		Eq("event_id", eventID.String()).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return converter.ToRSVPsFromStorage(rows), nil
}

func (s *Storage) Close() error {
	if c, ok := s.base.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
	return nil
}

// from starts a query on table. The client is built per call so the request
// carries ctx; building it allocates only the header set.
func (s *Storage) from(ctx context.Context, table string) *postgrest.QueryBuilder {
	client := postgrest.NewClient(s.restURL, defaultSchema, nil).
		SetApiKey(s.key).
		SetAuthToken(s.key)
	client.Transport.Parent = &serviceTransport{ctx: ctx, base: s.base}

	return client.From(table)
}

// serviceTransport binds requests to ctx and turns error responses into
// *storage.ServiceError, keeping the status code and the service's message.
type serviceTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *serviceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req.WithContext(t.ctx))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}
	defer resp.Body.Close()

	svcErr := &storage.ServiceError{StatusCode: resp.StatusCode}
	if data, err := io.ReadAll(resp.Body); err == nil {
		// Bodies that are not PostgREST errors keep only the status.
		_ = json.Unmarshal(data, svcErr)
	}

	return nil, svcErr
}
