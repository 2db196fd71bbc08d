// Package validation checks user-entered event and RSVP forms before they are
// submitted to the data service.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BariVakhidov/eventboard/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	// FormKey holds errors that belong to the whole form rather than one field.
	FormKey = "form"

	// MinDescriptionLen is the shortest accepted description, in characters after trimming.
	MinDescriptionLen = 20
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Errors maps a field name to its single human-readable error.
type Errors map[string]string

func (e Errors) Valid() bool {
	return len(e) == 0
}

// EventForm is the raw event-creation input.
type EventForm struct {
	Title       string `json:"title" validate:"required"`
	Type        string `json:"type" validate:"required,eventtype"`
	Date        string `json:"date" validate:"required,calendardate,notpast"`
	Location    string `json:"location" validate:"required"`
	Host        string `json:"host" validate:"required"`
	Description string `json:"description" validate:"required,mindescription"`
}

// RSVPForm is the raw RSVP input.
type RSVPForm struct {
	UserName  string `json:"user_name" validate:"required"`
	UserEmail string `json:"user_email" validate:"required,simpleemail"`
}

type messageKey struct {
	field string
	tag   string
}

var eventMessages = map[messageKey]string{
	{"title", "required"}:             "Event title is required",
	{"type", "required"}:              "Event type is required",
	{"type", "eventtype"}:             "Event type is invalid",
	{"date", "required"}:              "Event date is required",
	{"date", "calendardate"}:          "Event date is invalid",
	{"date", "notpast"}:               "Event date cannot be in the past",
	{"location", "required"}:          "Location is required",
	{"host", "required"}:              "Host name is required",
	{"description", "required"}:       "Description is required",
	{"description", "mindescription"}: fmt.Sprintf("Description must be at least %d characters", MinDescriptionLen),
}

const (
	msgFillAllFields = "Please fill in all fields"
	msgInvalidEmail  = "Please enter a valid email address"
	msgInvalidField  = "Invalid value"
)

type Validator struct {
	validate *validator.Validate
	now      func() time.Time
	loc      *time.Location
}

// New returns a Validator that compares event dates against now() in loc.
func New(now func() time.Time, loc *time.Location) *Validator {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}

	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      now,
		loc:      loc,
	}

	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.validate.RegisterValidation("eventtype", func(fl validator.FieldLevel) bool {
		return models.EventType(fl.Field().String()).Valid()
	})
	_ = v.validate.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
		_, err := models.ParseDate(fl.Field().String(), v.loc)
		return err == nil
	})
	_ = v.validate.RegisterValidation("notpast", v.notPast)
	_ = v.validate.RegisterValidation("mindescription", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) >= MinDescriptionLen
	})
	_ = v.validate.RegisterValidation("simpleemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})

	return v
}

func (v *Validator) notPast(fl validator.FieldLevel) bool {
	d, err := models.ParseDate(fl.Field().String(), v.loc)
	if err != nil {
		return true
	}

	return !d.Before(models.Day(v.now(), v.loc))
}

// ValidateEvent trims form and checks it. The trimmed record is returned even when
// errs is not empty so the form can be re-rendered with normalized values.
func (v *Validator) ValidateEvent(form EventForm) (models.NewEvent, Errors) {
	form = EventForm{
		Title:       strings.TrimSpace(form.Title),
		Type:        strings.TrimSpace(form.Type),
		Date:        strings.TrimSpace(form.Date),
		Location:    strings.TrimSpace(form.Location),
		Host:        strings.TrimSpace(form.Host),
		Description: strings.TrimSpace(form.Description),
	}

	event := models.NewEvent{
		Title:       form.Title,
		Type:        models.EventType(form.Type),
		Date:        form.Date,
		Location:    form.Location,
		Host:        form.Host,
		Description: form.Description,
	}

	errs := Errors{}
	for _, fe := range v.fieldErrors(form) {
		msg, ok := eventMessages[messageKey{fe.Field(), fe.Tag()}]
		if !ok {
			msg = msgInvalidField
		}
		errs[fe.Field()] = msg
	}

	return event, errs
}

// ValidateRSVP trims form and checks it. A blank name or email yields one shared
// error under FormKey; the email pattern is only checked once both are present.
func (v *Validator) ValidateRSVP(eventID uuid.UUID, form RSVPForm) (models.NewRSVP, Errors) {
	form = RSVPForm{
		UserName:  strings.TrimSpace(form.UserName),
		UserEmail: strings.TrimSpace(form.UserEmail),
	}

	rsvp := models.NewRSVP{
		EventID:   eventID,
		UserName:  form.UserName,
		UserEmail: form.UserEmail,
	}

	fieldErrs := v.fieldErrors(form)
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return rsvp, Errors{FormKey: msgFillAllFields}
		}
	}

	errs := Errors{}
	for _, fe := range fieldErrs {
		if fe.Tag() == "simpleemail" {
			errs[fe.Field()] = msgInvalidEmail
		}
	}

	return rsvp, errs
}

func (v *Validator) fieldErrors(s any) validator.ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return fieldErrs
	}

	return nil
}
