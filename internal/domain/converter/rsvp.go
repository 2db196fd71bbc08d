package converter

import (
	"github.com/BariVakhidov/eventboard/internal/domain/models"
	storageModel "github.com/BariVakhidov/eventboard/internal/storage/model"
)

func ToRSVPFromStorage(storageRSVP storageModel.RSVP) models.RSVP {
	return models.RSVP{
		ID:        storageRSVP.ID,
		EventID:   storageRSVP.EventID,
		UserName:  storageRSVP.UserName,
		UserEmail: storageRSVP.UserEmail,
		CreatedAt: storageRSVP.CreatedAt,
	}
}

func ToRSVPsFromStorage(storageRSVPs []storageModel.RSVP) []models.RSVP {
	rsvps := make([]models.RSVP, len(storageRSVPs))
	for i, rsvp := range storageRSVPs {
		rsvps[i] = ToRSVPFromStorage(rsvp)
	}

	return rsvps
}
