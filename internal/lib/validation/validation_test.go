package validation

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/BariVakhidov/eventboard/internal/domain/models"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, time.June, 10, 15, 30, 0, 0, time.UTC)

func newValidator() *Validator {
	return New(func() time.Time { return today }, time.UTC)
}

func validEventForm() EventForm {
	return EventForm{
		Title:       gofakeit.Sentence(3),
		Type:        string(models.EventTypeMusic),
		Date:        "2025-06-10",
		Location:    gofakeit.City(),
		Host:        gofakeit.Name(),
		Description: strings.Repeat("x", 20),
	}
}

func TestValidateEvent_HappyPath(t *testing.T) {
	form := validEventForm()
	form.Title = "  Jazz Night  "
	form.Description = "   " + strings.Repeat("d", 25) + "\n"

	event, errs := newValidator().ValidateEvent(form)
	require.True(t, errs.Valid(), "%v", errs)
	assert.Equal(t, "Jazz Night", event.Title)
	assert.Equal(t, strings.Repeat("d", 25), event.Description)
	assert.Equal(t, models.EventTypeMusic, event.Type)
}

func TestValidateEvent_DescriptionLength(t *testing.T) {
	v := newValidator()

	form := validEventForm()
	form.Description = "  " + strings.Repeat("a", 19) + "  "
	_, errs := v.ValidateEvent(form)
	assert.Equal(t, Errors{"description": "Description must be at least 20 characters"}, errs)

	form.Description = strings.Repeat("a", 20)
	_, errs = v.ValidateEvent(form)
	assert.True(t, errs.Valid())
}

func TestValidateEvent_DescriptionCountsCharacters(t *testing.T) {
	v := newValidator()

	form := validEventForm()
	form.Description = strings.Repeat("é", MinDescriptionLen)
	_, errs := v.ValidateEvent(form)
	assert.True(t, errs.Valid())

	form.Description = strings.Repeat("🎉", MinDescriptionLen)
	_, errs = v.ValidateEvent(form)
	assert.True(t, errs.Valid())

	form.Description = strings.Repeat("🎉", MinDescriptionLen/2)
	_, errs = v.ValidateEvent(form)
	assert.Contains(t, errs, "description")

	form.Description = strings.Repeat("a", MinDescriptionLen-1)
	_, errs = v.ValidateEvent(form)
	assert.Equal(t, fmt.Sprintf("Description must be at least %d characters", MinDescriptionLen), errs["description"])
}

func TestValidateEvent_Date(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name string
		date string
		want Errors
	}{
		{name: "today", date: "2025-06-10", want: Errors{}},
		{name: "tomorrow", date: "2025-06-11", want: Errors{}},
		{name: "yesterday", date: "2025-06-09", want: Errors{"date": "Event date cannot be in the past"}},
		{name: "missing", date: " ", want: Errors{"date": "Event date is required"}},
		{name: "garbage", date: "next friday", want: Errors{"date": "Event date is invalid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validEventForm()
			form.Date = tt.date
			_, errs := v.ValidateEvent(form)
			assert.Equal(t, tt.want, errs)
		})
	}
}

func TestValidateEvent_AllFieldsBlank(t *testing.T) {
	_, errs := newValidator().ValidateEvent(EventForm{Title: " ", Location: "\t"})

	assert.Equal(t, Errors{
		"title":       "Event title is required",
		"type":        "Event type is required",
		"date":        "Event date is required",
		"location":    "Location is required",
		"host":        "Host name is required",
		"description": "Description is required",
	}, errs)
}

func TestValidateEvent_UnknownType(t *testing.T) {
	form := validEventForm()
	form.Type = "music"

	_, errs := newValidator().ValidateEvent(form)
	assert.Equal(t, Errors{"type": "Event type is invalid"}, errs)
}

func TestValidateRSVP(t *testing.T) {
	v := newValidator()
	eventID := uuid.New()

	tests := []struct {
		name string
		form RSVPForm
		want Errors
	}{
		{name: "valid", form: RSVPForm{UserName: gofakeit.Name(), UserEmail: "a@b.co"}, want: Errors{}},
		{name: "generated email", form: RSVPForm{UserName: gofakeit.Name(), UserEmail: gofakeit.Email()}, want: Errors{}},
		{name: "not an email", form: RSVPForm{UserName: "Asha", UserEmail: "not-an-email"}, want: Errors{"user_email": msgInvalidEmail}},
		{name: "missing tld", form: RSVPForm{UserName: "Asha", UserEmail: "a@b"}, want: Errors{"user_email": msgInvalidEmail}},
		{name: "blank name", form: RSVPForm{UserName: "  ", UserEmail: "not-an-email"}, want: Errors{FormKey: msgFillAllFields}},
		{name: "blank email", form: RSVPForm{UserName: "Asha", UserEmail: ""}, want: Errors{FormKey: msgFillAllFields}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := v.ValidateRSVP(eventID, tt.form)
			assert.Equal(t, tt.want, errs)
		})
	}
}

func TestValidateRSVP_Trims(t *testing.T) {
	eventID := uuid.New()

	rsvp, errs := newValidator().ValidateRSVP(eventID, RSVPForm{UserName: " Asha ", UserEmail: " asha@example.com "})
	require.True(t, errs.Valid())
	assert.Equal(t, models.NewRSVP{EventID: eventID, UserName: "Asha", UserEmail: "asha@example.com"}, rsvp)
}
