// Package handlers serves the server-rendered pages and the JSON API.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BariVakhidov/eventboard/internal/domain/models"
	"github.com/BariVakhidov/eventboard/internal/lib/logger/sl"
	"github.com/BariVakhidov/eventboard/internal/lib/validation"
	"github.com/BariVakhidov/eventboard/internal/services/eventstore"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultEventTitle  = "the event"
	submitErrorKey     = "submit"
	formEvent          = "event"
	formRSVP           = "rsvp"
	maxRequestBodySize = 1 << 20
)

type EventStore interface {
	EnsureLoaded(ctx context.Context)
	Snapshot() eventstore.Snapshot
	EventByID(id uuid.UUID) (models.Event, bool)
	CreateEvent(ctx context.Context, event models.NewEvent) (models.Event, error)
	CreateRSVP(ctx context.Context, rsvp models.NewRSVP) (models.RSVP, error)
	RSVPsForEvent(ctx context.Context, eventID uuid.UUID) []models.RSVP
}

type FormValidator interface {
	ValidateEvent(form validation.EventForm) (models.NewEvent, validation.Errors)
	ValidateRSVP(eventID uuid.UUID, form validation.RSVPForm) (models.NewRSVP, validation.Errors)
}

type PageRenderer interface {
	Render(w io.Writer, page string, data any) error
}

type RejectionsCounter interface {
	WithLabelValues(lvs ...string) prometheus.Counter
}

type Handler struct {
	log        *slog.Logger
	store      EventStore
	validator  FormValidator
	pages      PageRenderer
	static     http.Handler
	rejections RejectionsCounter
	now        func() time.Time
	loc        *time.Location
	// loadCtx outlives any single request; the first request only triggers the fetch.
	loadCtx context.Context
}

type Opts struct {
	Static     http.Handler
	Rejections RejectionsCounter
	Location   *time.Location
}

func New(
	ctx context.Context,
	log *slog.Logger,
	store EventStore,
	validator FormValidator,
	pages PageRenderer,
	opts Opts,
) *Handler {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	return &Handler{
		log:        log,
		store:      store,
		validator:  validator,
		pages:      pages,
		static:     opts.Static,
		rejections: opts.Rejections,
		now:        time.Now,
		loc:        loc,
		loadCtx:    ctx,
	}
}

// Routes registers every page and API endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.List)
	mux.HandleFunc("GET /events/new", h.NewEventForm)
	mux.HandleFunc("POST /events/new", h.CreateEvent)
	mux.HandleFunc("GET /events/{id}", h.Detail)
	mux.HandleFunc("POST /events/{id}/rsvp", h.SubmitRSVP)
	mux.HandleFunc("GET /rsvp-success", h.RSVPSuccess)
	mux.HandleFunc("GET /events.ics", h.Calendar)
	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("GET /api/events", h.APIEvents)
	mux.HandleFunc("POST /api/events", h.APICreateEvent)
	mux.HandleFunc("GET /api/events/{id}", h.APIEvent)
	mux.HandleFunc("GET /api/events/{id}/rsvps", h.APIRSVPs)
	mux.HandleFunc("POST /api/events/{id}/rsvps", h.APICreateRSVP)

	if h.static != nil {
		mux.Handle("GET /static/", http.StripPrefix("/static/", h.static))
	}

	mux.HandleFunc("/", h.NotFound)

	return mux
}

func (h *Handler) snapshot() eventstore.Snapshot {
	h.store.EnsureLoaded(h.loadCtx)
	return h.store.Snapshot()
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	const op = "handlers.render"

	var buf strings.Builder
	if err := h.pages.Render(&buf, page, data); err != nil {
		h.log.With(slog.String("op", op)).Error("failed to render page",
			slog.String("page", page),
			slog.String("path", r.URL.Path),
			sl.Err(err),
		)
		http.Error(w, ErrInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	const op = "handlers.writeJSON"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.With(slog.String("op", op)).Error("failed to encode response", sl.Err(err))
	}
}

func (h *Handler) rejected(form string) {
	if h.rejections == nil {
		return
	}

	h.rejections.WithLabelValues(form).Inc()
}

// eventFromPath resolves the {id} path value against the cache.
func (h *Handler) eventFromPath(r *http.Request) (models.Event, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return models.Event{}, false
	}

	h.snapshot()

	return h.store.EventByID(id)
}

// localPath returns target when it is a path on this site, and "/" otherwise.
func localPath(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return "/"
	}

	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}

	return target
}
