package converter

import (
	"github.com/BariVakhidov/eventboard/internal/domain/models"
	storageModel "github.com/BariVakhidov/eventboard/internal/storage/model"
)

func ToEventFromStorage(storageEvent storageModel.Event) models.Event {
	return models.Event{
		ID:          storageEvent.ID,
		Title:       storageEvent.Title,
		Type:        models.EventType(storageEvent.Type),
		Date:        storageEvent.Date,
		Location:    storageEvent.Location,
		Host:        storageEvent.Host,
		Description: storageEvent.Description,
		CreatedAt:   storageEvent.CreatedAt,
	}
}

func ToEventsFromStorage(storageEvents []storageModel.Event) []models.Event {
	events := make([]models.Event, len(storageEvents))
	for i, event := range storageEvents {
		events[i] = ToEventFromStorage(event)
	}

	return events
}
