package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/BariVakhidov/eventboard/internal/domain/filter"
	"github.com/BariVakhidov/eventboard/internal/domain/models"
	"github.com/BariVakhidov/eventboard/internal/lib/logger/sl"
	"github.com/BariVakhidov/eventboard/internal/lib/validation"
	"github.com/BariVakhidov/eventboard/internal/services/eventstore"
	"github.com/google/uuid"
)

type eventsResponse struct {
	Events    []models.Event `json:"events"`
	Types     []string       `json:"types"`
	Locations []string       `json:"locations"`
	Status    string         `json:"status"`
	Error     string         `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Errors validation.Errors `json:"errors"`
}

// APIEvents returns the visible events plus the option vocabularies.
func (h *Handler) APIEvents(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot()
	criteria := filter.FromQuery(r.URL.Query())

	h.writeJSON(w, http.StatusOK, eventsResponse{
		Events:    filter.VisibleEvents(snap.Events, criteria),
		Types:     filter.DistinctTypes(snap.Events),
		Locations: filter.DistinctLocations(snap.Events),
		Status:    string(snap.Status),
		Error:     snap.Err,
	})
}

func (h *Handler) APIEvent(w http.ResponseWriter, r *http.Request) {
	event, ok := h.eventFromPath(r)
	if !ok {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrEventNotFound})
		return
	}

	h.writeJSON(w, http.StatusOK, event)
}

// APIRSVPs lists the RSVPs of an event straight from the data service.
// A lookup failure yields an empty list.
func (h *Handler) APIRSVPs(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrEventNotFound})
		return
	}

	h.writeJSON(w, http.StatusOK, h.store.RSVPsForEvent(r.Context(), id))
}

func (h *Handler) APICreateEvent(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.APICreateEvent"
	log := h.log.With(slog.String("op", op))

	var form validation.EventForm
	if status, ok := h.decode(w, r, &form); !ok {
		h.writeJSON(w, status, errorResponse{Error: ErrInvalidBody})
		return
	}

	event, errs := h.validator.ValidateEvent(form)
	if !errs.Valid() {
		h.rejected(formEvent)
		h.writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: errs})
		return
	}

	saved, err := h.store.CreateEvent(r.Context(), event)
	if err != nil {
		log.Warn("event not created", sl.Err(err))
		h.writeJSON(w, http.StatusBadGateway, errorResponse{Error: eventstore.CreateFailureMessage(err)})
		return
	}

	h.writeJSON(w, http.StatusCreated, saved)
}

// APICreateRSVP accepts RSVPs for any well-formed event id; whether the event
// exists is left to the data service.
func (h *Handler) APICreateRSVP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.APICreateRSVP"
	log := h.log.With(slog.String("op", op))

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrEventNotFound})
		return
	}

	var form validation.RSVPForm
	if status, ok := h.decode(w, r, &form); !ok {
		h.writeJSON(w, status, errorResponse{Error: ErrInvalidBody})
		return
	}

	rsvp, errs := h.validator.ValidateRSVP(id, form)
	if !errs.Valid() {
		h.rejected(formRSVP)
		h.writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: errs})
		return
	}

	saved, err := h.store.CreateRSVP(r.Context(), rsvp)
	if err != nil {
		log.Warn("rsvp not submitted", sl.Err(err))
		h.writeJSON(w, http.StatusBadGateway, errorResponse{Error: eventstore.RSVPFailureMessage(err)})
		return
	}

	h.writeJSON(w, http.StatusCreated, saved)
}

// decode reads a JSON body into v and reports the status to answer with on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) (int, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if isMaxBytes(err) {
			return http.StatusRequestEntityTooLarge, false
		}
		return http.StatusBadRequest, false
	}

	return 0, true
}
