package models

type EventType string

const (
	EventTypeWorkshop      EventType = "Workshop"
	EventTypeMusic         EventType = "Music"
	EventTypeSports        EventType = "Sports"
	EventTypeMeetup        EventType = "Meetup"
	EventTypeFitness       EventType = "Fitness"
	EventTypeSocial        EventType = "Social"
	EventTypeEntertainment EventType = "Entertainment"
)

const defaultTypeColor = "bg-gray-100 text-gray-800"

// typeColors is the only place a type is declared; EventTypes and Valid read from it.
var typeColors = []struct {
	t     EventType
	color string
}{
	{EventTypeWorkshop, "bg-green-100 text-green-800"},
	{EventTypeMusic, "bg-pink-100 text-pink-800"},
	{EventTypeSports, "bg-orange-100 text-orange-800"},
	{EventTypeMeetup, "bg-blue-100 text-blue-800"},
	{EventTypeFitness, "bg-teal-100 text-teal-800"},
	{EventTypeSocial, "bg-yellow-100 text-yellow-800"},
	{EventTypeEntertainment, "bg-red-100 text-red-800"},
}

// EventTypes returns every known type in declaration order.
func EventTypes() []EventType {
	types := make([]EventType, len(typeColors))
	for i, tc := range typeColors {
		types[i] = tc.t
	}

	return types
}

func (t EventType) Valid() bool {
	for _, tc := range typeColors {
		if tc.t == t {
			return true
		}
	}

	return false
}

// Color returns the badge classes for t. Types unknown to this build get a neutral badge.
func (t EventType) Color() string {
	for _, tc := range typeColors {
		if tc.t == t {
			return tc.color
		}
	}

	return defaultTypeColor
}

func (t EventType) String() string {
	return string(t)
}
