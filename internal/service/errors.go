package service

import "errors"

// Sentinel errors returned by ThreadService. Handlers translate them to
// HTTP statuses with errors.Is; anything else is a persistence failure.
var (
	// ErrMissingFields: a required field is absent or blank. Nothing was written.
	ErrMissingFields = errors.New("missing required fields")

	// ErrInvalidField: a field is present but not one of its allowed values.
	ErrInvalidField = errors.New("invalid field value")

	// ErrNotFound covers both "doesn't exist" and "exists but isn't yours",
	// so callers can't probe for other people's ids.
	ErrNotFound = errors.New("not found")

	ErrAnonymousMessage = errors.New("cannot reply to anonymous message")

	// ErrForbidden: the caller's role may not perform the operation.
	ErrForbidden = errors.New("permission denied")

	// ErrAlreadyReplied: the message already has its one reply.
	ErrAlreadyReplied = errors.New("message already has a reply")
)
