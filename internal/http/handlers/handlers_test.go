package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BariVakhidov/eventboard/internal/domain/models"
	"github.com/BariVakhidov/eventboard/internal/http/web"
	"github.com/BariVakhidov/eventboard/internal/lib/logger/sl"
	"github.com/BariVakhidov/eventboard/internal/lib/validation"
	"github.com/BariVakhidov/eventboard/internal/services/eventstore"
	"github.com/BariVakhidov/eventboard/internal/storage"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

type storeMock struct {
	mu        sync.Mutex
	snap      eventstore.Snapshot
	createErr error
	rsvpErr   error
	created   []models.NewEvent
	rsvps     []models.NewRSVP
	listed    []models.RSVP
	ensured   int
}

func (m *storeMock) EnsureLoaded(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensured++
}

func (m *storeMock) Snapshot() eventstore.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

func (m *storeMock) EventByID(id uuid.UUID) (models.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.snap.Events {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

func (m *storeMock) CreateEvent(_ context.Context, e models.NewEvent) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return models.Event{}, m.createErr
	}
	m.created = append(m.created, e)

	return models.Event{
		ID: uuid.New(), Title: e.Title, Type: e.Type, Date: e.Date,
		Location: e.Location, Host: e.Host, Description: e.Description, CreatedAt: fixedNow,
	}, nil
}

func (m *storeMock) CreateRSVP(_ context.Context, r models.NewRSVP) (models.RSVP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rsvpErr != nil {
		return models.RSVP{}, m.rsvpErr
	}
	m.rsvps = append(m.rsvps, r)

	return models.RSVP{ID: uuid.New(), EventID: r.EventID, UserName: r.UserName, UserEmail: r.UserEmail}, nil
}

func (m *storeMock) RSVPsForEvent(context.Context, uuid.UUID) []models.RSVP {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listed == nil {
		return []models.RSVP{}
	}
	return m.listed
}

type suite struct {
	store      *storeMock
	handler    *Handler
	server     http.Handler
	rejections *prometheus.CounterVec
}

func newSuite(t *testing.T, events ...models.Event) *suite {
	t.Helper()

	if events == nil {
		events = []models.Event{}
	}
	store := &storeMock{snap: eventstore.Snapshot{Events: events, Status: eventstore.StatusReady}}
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rejections_total"}, []string{"form"})

	pages, err := web.Parse()
	require.NoError(t, err)

	h := New(context.Background(), sl.Discard(), store,
		validation.New(func() time.Time { return fixedNow }, time.UTC),
		pages,
		Opts{Static: http.FileServerFS(web.Static()), Rejections: rejections, Location: time.UTC},
	)
	h.now = func() time.Time { return fixedNow }

	return &suite{store: store, handler: h, server: h.Routes(), rejections: rejections}
}

func (s *suite) do(t *testing.T, method, target string, body string, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.server.ServeHTTP(rec, req)

	return rec
}

func (s *suite) get(t *testing.T, target string) *httptest.ResponseRecorder {
	return s.do(t, http.MethodGet, target, "", "")
}

func (s *suite) postForm(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	return s.do(t, http.MethodPost, target, form.Encode(), "application/x-www-form-urlencoded")
}

func (s *suite) postJSON(t *testing.T, target string, v any) *httptest.ResponseRecorder {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)

	return s.do(t, http.MethodPost, target, string(b), "application/json")
}

func sampleEvents() []models.Event {
	return []models.Event{
		{ID: uuid.New(), Title: "Jazz Night", Type: models.EventTypeMusic, Date: "2025-06-02",
			Location: "Blue Note", Host: "Ana", Description: "Live jazz quartet all evening long."},
		{ID: uuid.New(), Title: "Go Workshop", Type: models.EventTypeWorkshop, Date: "2025-06-03",
			Location: "Library", Host: "Ben", Description: "Hands-on concurrency patterns in Go."},
	}
}

func validEventForm() url.Values {
	return url.Values{
		"title":       {"Morning Run"},
		"type":        {"Fitness"},
		"date":        {"2025-06-10"},
		"location":    {"Park"},
		"host":        {gofakeit.Name()},
		"description": {"A relaxed five kilometre run around the lake."},
	}
}

func TestList_RendersVisibleEvents(t *testing.T) {
	s := newSuite(t, sampleEvents()...)

	rec := s.get(t, "/?q=jazz")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Jazz Night")
	assert.NotContains(t, body, "Go Workshop")
	assert.Contains(t, body, "Showing 1 of 2 events")
	assert.Contains(t, body, `<option value="Workshop">`)
	assert.Contains(t, body, "bg-pink-100 text-pink-800")
	assert.Equal(t, 1, s.store.ensured)
}

func TestList_EmptyAndActiveFilters(t *testing.T) {
	s := newSuite(t, sampleEvents()...)

	rec := s.get(t, "/?type=Sports&location=Library")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "No events found")
	assert.Contains(t, body, "Clear all filters (2)")
}

func TestList_CreatedBanner(t *testing.T) {
	s := newSuite(t, sampleEvents()...)

	assert.Contains(t, s.get(t, "/?created=true").Body.String(), "Event created successfully.")
	assert.NotContains(t, s.get(t, "/").Body.String(), "Event created successfully.")
}

func TestList_LoadingRefreshes(t *testing.T) {
	s := newSuite(t)
	s.store.snap = eventstore.Snapshot{Events: []models.Event{}, Status: eventstore.StatusLoading}

	body := s.get(t, "/").Body.String()

	assert.Contains(t, body, `http-equiv="refresh"`)
	assert.Contains(t, body, "Loading events...")
}

func TestList_ErrorBannerIsDismissable(t *testing.T) {
	s := newSuite(t, sampleEvents()...)
	s.store.snap.Status = eventstore.StatusError
	s.store.snap.Err = "Failed to fetch events"

	body := s.get(t, "/").Body.String()
	assert.Contains(t, body, "Error loading events")
	assert.Contains(t, body, "Failed to fetch events")
	assert.Contains(t, body, "Jazz Night", "retained events are still listed")

	assert.NotContains(t, s.get(t, "/?dismissed=true").Body.String(), "Error loading events")
}

func TestDetail(t *testing.T) {
	events := sampleEvents()
	s := newSuite(t, events...)

	rec := s.get(t, "/events/"+events[1].ID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Go Workshop")
	assert.Contains(t, rec.Body.String(), "Tue, Jun 3, 2025")
	assert.Contains(t, rec.Body.String(), "RSVP now")

	rec = s.get(t, "/events/"+events[1].ID.String()+"?rsvp=1")
	assert.Contains(t, rec.Body.String(), `name="user_email"`)
}

func TestDetail_NotFound(t *testing.T) {
	s := newSuite(t, sampleEvents()...)

	for _, target := range []string{"/events/" + uuid.NewString(), "/events/not-a-uuid"} {
		rec := s.get(t, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Contains(t, rec.Body.String(), ErrEventNotFound, target)
	}
}

func TestCreateEvent_HappyPath(t *testing.T) {
	s := newSuite(t)

	rec := s.postForm(t, "/events/new", validEventForm())

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?created=true", rec.Header().Get("Location"))
	require.Len(t, s.store.created, 1)
	assert.Equal(t, models.EventTypeFitness, s.store.created[0].Type)
}

func TestCreateEvent_ValidationErrors(t *testing.T) {
	s := newSuite(t)
	form := validEventForm()
	form.Set("title", "   ")
	form.Set("date", "2025-05-31")
	form.Set("description", "too short")

	rec := s.postForm(t, "/events/new", form)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Event title is required")
	assert.Contains(t, body, "Event date cannot be in the past")
	assert.Contains(t, body, "Description must be at least 20 characters")
	assert.Contains(t, body, "9 / 20")
	assert.Empty(t, s.store.created)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.rejections.WithLabelValues(formEvent)))
}

func TestCreateEvent_SubmitFailure(t *testing.T) {
	s := newSuite(t)
	s.store.createErr = &storage.ServiceError{StatusCode: http.StatusConflict, Message: "duplicate key value"}

	rec := s.postForm(t, "/events/new", validEventForm())

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate key value")
	assert.Contains(t, rec.Body.String(), `value="Morning Run"`, "entered values are kept")
}

func TestNewEventForm(t *testing.T) {
	s := newSuite(t)

	rec := s.get(t, "/events/new")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `min="2025-06-01"`)
	assert.Contains(t, rec.Body.String(), `<option value="Entertainment">`)
	assert.Contains(t, rec.Body.String(), fmt.Sprintf("0 / %d", validation.MinDescriptionLen))
}

func TestSubmitRSVP(t *testing.T) {
	events := sampleEvents()
	target := "/events/" + events[0].ID.String() + "/rsvp"

	t.Run("happy path", func(t *testing.T) {
		s := newSuite(t, events...)

		rec := s.postForm(t, target, url.Values{
			"user_name":  {gofakeit.Name()},
			"user_email": {" " + gofakeit.Email() + " "},
		})

		require.Equal(t, http.StatusSeeOther, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/rsvp-success", loc.Path)
		assert.Equal(t, "Jazz Night", loc.Query().Get("event"))
		assert.Equal(t, "/events/"+events[0].ID.String(), loc.Query().Get("return"))
		require.Len(t, s.store.rsvps, 1)
		assert.Equal(t, events[0].ID, s.store.rsvps[0].EventID)
	})

	t.Run("blank fields", func(t *testing.T) {
		s := newSuite(t, events...)

		rec := s.postForm(t, target, url.Values{"user_name": {"Ana"}, "user_email": {"  "}})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Please fill in all fields")
		assert.Empty(t, s.store.rsvps)
	})

	t.Run("bad email", func(t *testing.T) {
		s := newSuite(t, events...)

		rec := s.postForm(t, target, url.Values{"user_name": {"Ana"}, "user_email": {"ana@example"}})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Please enter a valid email address")
	})

	t.Run("submit failure", func(t *testing.T) {
		s := newSuite(t, events...)
		s.store.rsvpErr = errors.New("connection reset")

		rec := s.postForm(t, target, url.Values{"user_name": {"Ana"}, "user_email": {"ana@example.com"}})

		require.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "Failed to submit RSVP")
	})

	t.Run("unknown event", func(t *testing.T) {
		s := newSuite(t, events...)

		rec := s.postForm(t, "/events/"+uuid.NewString()+"/rsvp", url.Values{"user_name": {"Ana"}})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRSVPSuccess(t *testing.T) {
	s := newSuite(t)

	body := s.get(t, "/rsvp-success").Body.String()
	assert.Contains(t, body, "the event")
	assert.Contains(t, body, `<a href="/">Back</a>`)

	body = s.get(t, "/rsvp-success?event=Jazz+Night&return=%2Fevents%2Fabc").Body.String()
	assert.Contains(t, body, "Jazz Night")
	assert.Contains(t, body, `<a href="/events/abc">Back</a>`)

	body = s.get(t, "/rsvp-success?return=https%3A%2F%2Fevil.example").Body.String()
	assert.NotContains(t, body, "evil.example")
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/events/1", "/events/1"},
		{"/?q=jazz", "/?q=jazz"},
		{"//evil.example", "/"},
		{`/\evil.example`, "/"},
		{"https://evil.example/", "/"},
		{"javascript:alert(1)", "/"},
		{"events/1", "/"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, localPath(tt.in), tt.in)
	}
}

func TestCalendar(t *testing.T) {
	s := newSuite(t, sampleEvents()...)

	rec := s.get(t, "/events.ics?type=Workshop")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar"))
	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "Go Workshop")
	assert.NotContains(t, body, "Jazz Night")
}

func TestNotFoundAndStatic(t *testing.T) {
	s := newSuite(t)

	rec := s.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")

	rec = s.get(t, "/static/app.css")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newSuite(t, sampleEvents()...)

	rec := s.get(t, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, map[string]string{"status": "ok", "events": "ready", "count": "2"}, got)
}

func TestAPIEvents(t *testing.T) {
	s := newSuite(t, sampleEvents()...)

	rec := s.get(t, "/api/events?location=Library")

	require.Equal(t, http.StatusOK, rec.Code)
	var got eventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Events, 1)
	assert.Equal(t, "Go Workshop", got.Events[0].Title)
	assert.Equal(t, []string{"Music", "Workshop"}, got.Types)
	assert.Equal(t, []string{"Blue Note", "Library"}, got.Locations)
	assert.Equal(t, "ready", got.Status)
	assert.Empty(t, got.Error)
}

func TestAPIEvent(t *testing.T) {
	events := sampleEvents()
	s := newSuite(t, events...)

	rec := s.get(t, "/api/events/"+events[0].ID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, events[0].ID, got.ID)

	rec = s.get(t, "/api/events/"+uuid.NewString())
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Event not found"}`, rec.Body.String())
}

func TestAPIRSVPs(t *testing.T) {
	s := newSuite(t)

	rec := s.get(t, "/api/events/"+uuid.NewString()+"/rsvps")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAPICreateEvent(t *testing.T) {
	form := validation.EventForm{
		Title: "Board Games", Type: "Social", Date: "2025-06-05",
		Location: "Cafe", Host: gofakeit.Name(), Description: "Bring your favourite game and friends.",
	}

	t.Run("created", func(t *testing.T) {
		s := newSuite(t)

		rec := s.postJSON(t, "/api/events", form)

		require.Equal(t, http.StatusCreated, rec.Code)
		var got models.Event
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Board Games", got.Title)
		assert.NotEqual(t, uuid.Nil, got.ID)
	})

	t.Run("invalid", func(t *testing.T) {
		s := newSuite(t)
		bad := form
		bad.Type = "Party"

		rec := s.postJSON(t, "/api/events", bad)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"errors":{"type":"Event type is invalid"}}`, rec.Body.String())
	})

	t.Run("service failure", func(t *testing.T) {
		s := newSuite(t)
		s.store.createErr = errors.New("timeout")

		rec := s.postJSON(t, "/api/events", form)

		require.Equal(t, http.StatusBadGateway, rec.Code)
		assert.JSONEq(t, `{"error":"Failed to create event"}`, rec.Body.String())
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newSuite(t)

		rec := s.do(t, http.MethodPost, "/api/events", "{", "application/json")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPICreateRSVP(t *testing.T) {
	s := newSuite(t)
	id := uuid.New()

	rec := s.postJSON(t, "/api/events/"+id.String()+"/rsvps", validation.RSVPForm{UserName: "", UserEmail: ""})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"errors":{"form":"Please fill in all fields"}}`, rec.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(s.rejections.WithLabelValues(formRSVP)))

	rec = s.postJSON(t, "/api/events/"+id.String()+"/rsvps", validation.RSVPForm{UserName: "Ana", UserEmail: "ana@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, s.store.rsvps, 1)
	assert.Equal(t, id, s.store.rsvps[0].EventID)
}

func TestInstrument(t *testing.T) {
	s := newSuite(t, sampleEvents()...)
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "duration_seconds"},
		[]string{"route", "method", "code"})
	panics := prometheus.NewCounter(prometheus.CounterOpts{Name: "panics_total"})

	mux := http.NewServeMux()
	mux.Handle("/", s.server)
	mux.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := Instrument(sl.Discard(), duration, panics, mux)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(panics))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 2, testutil.CollectAndCount(duration))
}
