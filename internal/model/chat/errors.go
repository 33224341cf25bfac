package chat

import "errors"

// Error kinds recovered at the conversation engine boundary.
var (
	ErrValidation      = errors.New("invalid message")
	ErrClassification  = errors.New("classification failed")
	ErrPersistence     = errors.New("persistence unavailable")
	ErrNotification    = errors.New("crisis notification failed")
	ErrSessionNotFound = errors.New("session not found")
)
