package notification

import "errors"

// Validation errors surfaced synchronously to dispatch callers. These are
// programmer errors in the calling collaborator, never retried.
var (
	ErrInvalidEventType = errors.New("invalid notification event type")
	ErrUnknownRecipient = errors.New("unknown recipient")
)
