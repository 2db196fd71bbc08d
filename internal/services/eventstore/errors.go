package eventstore

import "errors"

var (
	ErrEventNotSaved = errors.New("event not saved")
	ErrRSVPNotSaved  = errors.New("rsvp not saved")
	ErrFetchFailed   = errors.New("failed to fetch events")
)
