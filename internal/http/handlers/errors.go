package handlers

const (
	ErrEventNotFound = "Event not found"
	ErrPageNotFound  = "The page you're looking for doesn't exist."
	ErrInvalidBody   = "invalid request body"
	ErrInternal      = "internal error"
)
