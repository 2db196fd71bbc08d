// Package ical renders events as an iCalendar feed.
package ical

import (
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/BariVakhidov/eventboard/internal/domain/models"
)

const productID = "-//eventboard//events//EN"

// Calendar returns the VCALENDAR text for events. Each event becomes an all-day
// VEVENT; events with an unparseable date are skipped.
func Calendar(name string, events []models.Event, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, e := range events {
		day, err := models.ParseDate(e.Date, time.UTC)
		if err != nil {
			continue
		}

		vevent := cal.AddEvent(e.ID.String() + "@eventboard")
		vevent.SetDtStampTime(stamp)
		if !e.CreatedAt.IsZero() {
			vevent.SetCreatedTime(e.CreatedAt)
		}
		vevent.SetAllDayStartAt(day)
		vevent.SetAllDayEndAt(day.AddDate(0, 0, 1))
		vevent.SetSummary(e.Title)
		vevent.SetLocation(e.Location)
		vevent.SetDescription(e.Description + "\n\nHosted by " + e.Host)
		vevent.SetProperty(ics.ComponentPropertyCategories, string(e.Type))
	}

	return cal.Serialize()
}
