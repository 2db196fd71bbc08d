package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"unicode/utf8"

	"github.com/BariVakhidov/eventboard/internal/domain/filter"
	"github.com/BariVakhidov/eventboard/internal/domain/models"
	"github.com/BariVakhidov/eventboard/internal/lib/ical"
	"github.com/BariVakhidov/eventboard/internal/lib/logger/sl"
	"github.com/BariVakhidov/eventboard/internal/lib/validation"
	"github.com/BariVakhidov/eventboard/internal/services/eventstore"
)

const calendarName = "Eventboard"

type listPage struct {
	Events        []models.Event
	Types         []string
	Locations     []string
	Criteria      filter.Criteria
	ActiveFilters int
	Total         int
	Loading       bool
	Error         string
	Created       bool
	ClearURL      string
	DismissURL    string
	CalendarURL   string
}

type detailPage struct {
	Event    models.Event
	Found    bool
	ShowRSVP bool
	Form     validation.RSVPForm
	Errors   validation.Errors
}

type createPage struct {
	Form           validation.EventForm
	Errors         validation.Errors
	Types          []models.EventType
	MinDate        string
	DescriptionLen int
	MinDescription int
}

type successPage struct {
	EventTitle string
	Return     string
}

type notFoundPage struct {
	Message string
}

// List renders the filtered event list.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot()
	query := r.URL.Query()
	criteria := filter.FromQuery(query)

	page := listPage{
		Events:        filter.VisibleEvents(snap.Events, criteria),
		Types:         filter.DistinctTypes(snap.Events),
		Locations:     filter.DistinctLocations(snap.Events),
		Criteria:      criteria,
		ActiveFilters: criteria.Active(),
		Total:         len(snap.Events),
		Loading:       snap.Status == eventstore.StatusLoading,
		Created:       query.Get("created") == "true",
		ClearURL:      withQuery("/", filter.Criteria{Search: criteria.Search}.Query()),
		DismissURL:    withQuery("/", criteria.Query()),
		CalendarURL:   withQuery("/events.ics", criteria.Query()),
	}
	if snap.Status == eventstore.StatusError && query.Get("dismissed") != "true" {
		page.Error = snap.Err
		dismiss := criteria.Query()
		dismiss.Set("dismissed", "true")
		page.DismissURL = withQuery("/", dismiss)
	}

	h.render(w, r, http.StatusOK, "list", page)
}

// Detail renders a single cached event. The RSVP form is shown on ?rsvp=1.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	event, ok := h.eventFromPath(r)
	if !ok {
		h.render(w, r, http.StatusNotFound, "detail", detailPage{})
		return
	}

	h.render(w, r, http.StatusOK, "detail", detailPage{
		Event:    event,
		Found:    true,
		ShowRSVP: r.URL.Query().Get("rsvp") != "",
	})
}

// SubmitRSVP validates and submits the RSVP dialog. On any error the detail
// page is shown again with the dialog open and the entered values kept.
func (h *Handler) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.SubmitRSVP"
	log := h.log.With(slog.String("op", op))

	event, ok := h.eventFromPath(r)
	if !ok {
		h.render(w, r, http.StatusNotFound, "detail", detailPage{})
		return
	}

	if !parseForm(w, r) {
		return
	}

	form := validation.RSVPForm{
		UserName:  r.PostForm.Get("user_name"),
		UserEmail: r.PostForm.Get("user_email"),
	}
	page := detailPage{Event: event, Found: true, ShowRSVP: true, Form: form}

	rsvp, errs := h.validator.ValidateRSVP(event.ID, form)
	if !errs.Valid() {
		h.rejected(formRSVP)
		page.Errors = errs
		h.render(w, r, http.StatusUnprocessableEntity, "detail", page)
		return
	}

	if _, err := h.store.CreateRSVP(r.Context(), rsvp); err != nil {
		log.Warn("rsvp not submitted", sl.Err(err))
		page.Errors = validation.Errors{submitErrorKey: eventstore.RSVPFailureMessage(err)}
		h.render(w, r, http.StatusBadGateway, "detail", page)
		return
	}

	v := url.Values{}
	v.Set("event", event.Title)
	v.Set("return", "/events/"+event.ID.String())
	http.Redirect(w, r, withQuery("/rsvp-success", v), http.StatusSeeOther)
}

// RSVPSuccess renders the confirmation. The back link only ever points at this site.
func (h *Handler) RSVPSuccess(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	title := query.Get("event")
	if title == "" {
		title = defaultEventTitle
	}

	h.render(w, r, http.StatusOK, "rsvp_success", successPage{
		EventTitle: title,
		Return:     localPath(query.Get("return")),
	})
}

func (h *Handler) NewEventForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "create", h.createPage(validation.EventForm{}, nil))
}

// CreateEvent validates the form and submits it. Validation errors re-render
// the form with 422; a rejected submission re-renders it with 502.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.CreateEvent"
	log := h.log.With(slog.String("op", op))

	if !parseForm(w, r) {
		return
	}

	form := validation.EventForm{
		Title:       r.PostForm.Get("title"),
		Type:        r.PostForm.Get("type"),
		Date:        r.PostForm.Get("date"),
		Location:    r.PostForm.Get("location"),
		Host:        r.PostForm.Get("host"),
		Description: r.PostForm.Get("description"),
	}

	event, errs := h.validator.ValidateEvent(form)
	if !errs.Valid() {
		h.rejected(formEvent)
		h.render(w, r, http.StatusUnprocessableEntity, "create", h.createPage(form, errs))
		return
	}

	if _, err := h.store.CreateEvent(r.Context(), event); err != nil {
		log.Warn("event not created", sl.Err(err))
		errs := validation.Errors{submitErrorKey: eventstore.CreateFailureMessage(err)}
		h.render(w, r, http.StatusBadGateway, "create", h.createPage(form, errs))
		return
	}

	http.Redirect(w, r, "/?created=true", http.StatusSeeOther)
}

func (h *Handler) createPage(form validation.EventForm, errs validation.Errors) createPage {
	return createPage{
		Form:           form,
		Errors:         errs,
		Types:          models.EventTypes(),
		MinDate:        models.FormatDate(models.Day(h.now(), h.loc)),
		DescriptionLen: utf8.RuneCountInString(form.Description),
		MinDescription: validation.MinDescriptionLen,
	}
}

// Calendar exports the visible events as an iCalendar feed.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot()
	events := filter.VisibleEvents(snap.Events, filter.FromQuery(r.URL.Query()))

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	_, _ = w.Write([]byte(ical.Calendar(calendarName, events, h.now())))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"events": string(snap.Status),
		"count":  strconv.Itoa(len(snap.Events)),
	})
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "not_found", notFoundPage{Message: ErrPageNotFound})
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}

	return path + "?" + v.Encode()
}

// parseForm reads a bounded urlencoded body and answers the request itself on failure.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	if err := r.ParseForm(); err != nil {
		status := http.StatusBadRequest
		if isMaxBytes(err) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, ErrInvalidBody, status)
		return false
	}

	return true
}

// isMaxBytes reports whether err came from an oversized body.
func isMaxBytes(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
