// Package eventstore owns the process-wide cached event collection and
// mediates every read and write against the data service.
//
// The cache is a single immutable Snapshot behind an atomic pointer. Each
// operation replaces it wholesale, so readers never observe a partial list.
package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BariVakhidov/eventboard/internal/domain/models"
	"github.com/BariVakhidov/eventboard/internal/lib/logger/sl"
	"github.com/BariVakhidov/eventboard/internal/storage"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusReady   Status = "ready"
)

const (
	msgFetchFailed  = "Failed to fetch events"
	msgCreateFailed = "Failed to create event"
	msgRSVPFailed   = "Failed to submit RSVP"
)

// Snapshot is the cached view of the events collection. Err is set only in
// StatusError and holds a message fit for display.
type Snapshot struct {
	Events    []models.Event
	Status    Status
	Err       string
	FetchedAt time.Time
}

type EventSaver interface {
	SaveEvent(ctx context.Context, event models.NewEvent) (models.Event, error)
}

type EventProvider interface {
	Events(ctx context.Context) ([]models.Event, error)
}

type RSVPSaver interface {
	SaveRSVP(ctx context.Context, rsvp models.NewRSVP) (models.RSVP, error)
}

type RSVPProvider interface {
	RSVPsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RSVP, error)
}

type SnapshotMirror interface {
	SaveSnapshot(ctx context.Context, events []models.Event) error
	Snapshot(ctx context.Context) ([]models.Event, error)
}

type Notifier interface {
	Enqueue(kind string, payload []byte) bool
}

type OperationsCounter interface {
	WithLabelValues(lvs ...string) prometheus.Counter
}

type Store struct {
	log           *slog.Logger
	eventSaver    EventSaver
	eventProvider EventProvider
	rsvpSaver     RSVPSaver
	rsvpProvider  RSVPProvider
	mirror        SnapshotMirror
	notifier      Notifier
	operations    OperationsCounter
	now           func() time.Time

	state    atomic.Pointer[Snapshot]
	loadOnce sync.Once
	loaded   chan struct{}
}

// Opts carries the optional collaborators. Nil fields disable the feature.
type Opts struct {
	Mirror     SnapshotMirror
	Notifier   Notifier
	Operations OperationsCounter
}

// New returns a Store in the loading state with an empty collection.
func New(
	log *slog.Logger,
	eventSaver EventSaver,
	eventProvider EventProvider,
	rsvpSaver RSVPSaver,
	rsvpProvider RSVPProvider,
	opts Opts,
) *Store {
	s := &Store{
		log:           log,
		eventSaver:    eventSaver,
		eventProvider: eventProvider,
		rsvpSaver:     rsvpSaver,
		rsvpProvider:  rsvpProvider,
		mirror:        opts.Mirror,
		notifier:      opts.Notifier,
		operations:    opts.Operations,
		now:           time.Now,
		loaded:        make(chan struct{}),
	}
	s.state.Store(&Snapshot{Events: []models.Event{}, Status: StatusLoading})

	return s
}

// Snapshot returns the current cached state.
func (s *Store) Snapshot() Snapshot {
	return *s.state.Load()
}

func (s *Store) Events() []models.Event {
	return s.state.Load().Events
}

// EnsureLoaded starts the single automatic fetch on first use and returns at once.
// Later calls do nothing; there is no retry or polling.
func (s *Store) EnsureLoaded(ctx context.Context) {
	s.loadOnce.Do(func() {
		go func() {
			defer close(s.loaded)
			_ = s.FetchEvents(ctx)
		}()
	})
}

// Loaded is closed once the automatic fetch has settled.
func (s *Store) Loaded() <-chan struct{} {
	return s.loaded
}

// FetchEvents replaces the cached collection with the data service's events
// ordered by date. On failure the previous events are kept and the state moves
// to StatusError. Concurrent calls are allowed; the last to settle wins.
func (s *Store) FetchEvents(ctx context.Context) error {
	const op = "eventstore.FetchEvents"
	log := s.log.With(slog.String("op", op))
	log.Debug("fetching events")

	prev := s.state.Load()
	s.state.Store(&Snapshot{Events: prev.Events, Status: StatusLoading, FetchedAt: prev.FetchedAt})

	events, err := s.eventProvider.Events(ctx)
	if err != nil {
		log.Error("failed to fetch events", sl.Err(err))
		s.count("fetch", "error")

		cur := s.state.Load()
		retained := cur.Events
		if len(retained) == 0 {
			retained = s.mirrored(ctx, log)
		}
		s.state.Store(&Snapshot{
			Events:    retained,
			Status:    StatusError,
			Err:       storage.Message(err, msgFetchFailed),
			FetchedAt: cur.FetchedAt,
		})

		return fmt.Errorf("%s: %w: %w", op, ErrFetchFailed, err)
	}

	if events == nil {
		events = []models.Event{}
	}
	s.state.Store(&Snapshot{Events: events, Status: StatusReady, FetchedAt: s.now()})
	s.count("fetch", "ok")
	log.Info("events fetched", slog.Int("count", len(events)))

	if s.mirror != nil {
		if err := s.mirror.SaveSnapshot(ctx, events); err != nil {
			log.Warn("failed to mirror snapshot", sl.Err(err))
		}
	}

	return nil
}

func (s *Store) mirrored(ctx context.Context, log *slog.Logger) []models.Event {
	if s.mirror == nil {
		return []models.Event{}
	}

	events, err := s.mirror.Snapshot(ctx)
	if err != nil {
		log.Warn("no mirrored snapshot available", sl.Err(err))
		return []models.Event{}
	}

	log.Info("serving mirrored snapshot", slog.Int("count", len(events)))

	return events
}

// EventByID looks id up in the cached collection only.
func (s *Store) EventByID(id uuid.UUID) (models.Event, bool) {
	for _, e := range s.state.Load().Events {
		if e.ID == id {
			return e, true
		}
	}

	return models.Event{}, false
}

// CreateEvent submits event and, on success, refreshes the whole collection.
// A failed refresh does not fail the create; it shows up as StatusError.
func (s *Store) CreateEvent(ctx context.Context, event models.NewEvent) (models.Event, error) {
	const op = "eventstore.CreateEvent"
	log := s.log.With(slog.String("op", op))
	log.Info("creating event", slog.String("type", string(event.Type)), slog.String("date", event.Date))

	saved, err := s.eventSaver.SaveEvent(ctx, event)
	if err != nil {
		log.Error("failed to save event", sl.Err(err))
		s.count("create_event", "error")
		return models.Event{}, fmt.Errorf("%s: %w: %w", op, ErrEventNotSaved, err)
	}
	s.count("create_event", "ok")
	log.Info("event created", slog.String("id", saved.ID.String()))

	if err := s.FetchEvents(ctx); err != nil {
		log.Warn("refresh after create failed", sl.Err(err))
	}

	s.notify(log, models.NotificationEventCreated, saved)

	return saved, nil
}

// CreateRSVP submits rsvp. RSVPs are never cached.
func (s *Store) CreateRSVP(ctx context.Context, rsvp models.NewRSVP) (models.RSVP, error) {
	const op = "eventstore.CreateRSVP"
	log := s.log.With(slog.String("op", op), slog.String("event_id", rsvp.EventID.String()))
	log.Info("creating rsvp")

	saved, err := s.rsvpSaver.SaveRSVP(ctx, rsvp)
	if err != nil {
		log.Error("failed to save rsvp", sl.Err(err))
		s.count("create_rsvp", "error")
		return models.RSVP{}, fmt.Errorf("%s: %w: %w", op, ErrRSVPNotSaved, err)
	}
	s.count("create_rsvp", "ok")
	log.Info("rsvp created", slog.String("id", saved.ID.String()))

	s.notify(log, models.NotificationRSVPCreated, saved)

	return saved, nil
}

// RSVPsForEvent returns the RSVPs for eventID. Failures are logged and yield
// an empty list rather than an error, unlike CreateRSVP.
func (s *Store) RSVPsForEvent(ctx context.Context, eventID uuid.UUID) []models.RSVP {
	const op = "eventstore.RSVPsForEvent"
	log := s.log.With(slog.String("op", op), slog.String("event_id", eventID.String()))

	rsvps, err := s.rsvpProvider.RSVPsByEvent(ctx, eventID)
	if err != nil {
		log.Error("failed to fetch rsvps", sl.Err(err))
		s.count("list_rsvps", "error")
		return []models.RSVP{}
	}
	s.count("list_rsvps", "ok")

	if rsvps == nil {
		return []models.RSVP{}
	}

	return rsvps
}

// CreateFailureMessage returns the text shown on the originating form.
func CreateFailureMessage(err error) string {
	return storage.Message(err, msgCreateFailed)
}

func RSVPFailureMessage(err error) string {
	return storage.Message(err, msgRSVPFailed)
}

func (s *Store) notify(log *slog.Logger, kind string, v any) {
	if s.notifier == nil {
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		log.Error("failed to encode notification", slog.String("kind", kind), sl.Err(err))
		return
	}

	s.notifier.Enqueue(kind, payload)
}

func (s *Store) count(operation, result string) {
	if s.operations == nil {
		return
	}

	s.operations.WithLabelValues(operation, result).Inc()
}
