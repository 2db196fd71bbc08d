// Package filter derives the visible event list and the filter option
// vocabularies from an in-memory event collection.
package filter

import (
	"net/url"
	"slices"
	"strings"

	"github.com/BariVakhidov/eventboard/internal/domain/models"
)

// Criteria is the active free-text search plus the optional exact-match selectors.
// An empty selector matches every event.
type Criteria struct {
	Search   string
	Type     string
	Location string
	Date     string
}

// FromQuery reads criteria from the q, type, location and date parameters.
func FromQuery(v url.Values) Criteria {
	return Criteria{
		Search:   v.Get("q"),
		Type:     v.Get("type"),
		Location: v.Get("location"),
		Date:     v.Get("date"),
	}
}

// Query encodes c back into url parameters, omitting empty fields.
func (c Criteria) Query() url.Values {
	v := url.Values{}
	for key, val := range map[string]string{"q": c.Search, "type": c.Type, "location": c.Location, "date": c.Date} {
		if val != "" {
			v.Set(key, val)
		}
	}

	return v
}

// Active counts the selectors in use; the search term is not a selector.
func (c Criteria) Active() int {
	n := 0
	for _, s := range []string{c.Type, c.Location, c.Date} {
		if s != "" {
			n++
		}
	}

	return n
}

// IsZero reports whether c would let every event through.
func (c Criteria) IsZero() bool {
	return c.blankSearch() && c.Active() == 0
}

// Match reports whether e satisfies all four predicates of c.
func (c Criteria) Match(e models.Event) bool {
	return c.matchSearch(e) &&
		(c.Type == "" || string(e.Type) == c.Type) &&
		(c.Location == "" || e.Location == c.Location) &&
		(c.Date == "" || e.Date == c.Date)
}

// blankSearch reports whether the search box holds only whitespace.
func (c Criteria) blankSearch() bool {
	return strings.TrimSpace(c.Search) == ""
}

func (c Criteria) matchSearch(e models.Event) bool {
	if c.blankSearch() {
		return true
	}

	term := strings.ToLower(c.Search)

	return strings.Contains(strings.ToLower(e.Title), term) ||
		strings.Contains(strings.ToLower(e.Description), term) ||
		strings.Contains(strings.ToLower(e.Host), term)
}

// VisibleEvents returns the events matching c, keeping their input order.
func VisibleEvents(events []models.Event, c Criteria) []models.Event {
	visible := make([]models.Event, 0, len(events))
	for _, e := range events {
		if c.Match(e) {
			visible = append(visible, e)
		}
	}

	return visible
}

// DistinctTypes returns the sorted set of types present in events.
func DistinctTypes(events []models.Event) []string {
	return distinct(events, func(e models.Event) string { return string(e.Type) })
}

// DistinctLocations returns the sorted set of locations present in events.
func DistinctLocations(events []models.Event) []string {
	return distinct(events, func(e models.Event) string { return e.Location })
}

func distinct(events []models.Event, key func(models.Event) string) []string {
	seen := make(map[string]struct{}, len(events))
	values := make([]string, 0)
	for _, e := range events {
		k := key(e)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		values = append(values, k)
	}
	slices.Sort(values)

	return values
}
