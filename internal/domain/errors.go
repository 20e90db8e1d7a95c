package domain

import "errors"

var (
	// ErrSubmitInFlight indicates a creation request is already pending.
	ErrSubmitInFlight = errors.New("submission already in progress")

	// ErrEmptyQuery indicates a lookup was requested with a blank code.
	ErrEmptyQuery = errors.New("lookup query is empty")

	// ErrClosed indicates the owning view has been torn down.
	ErrClosed = errors.New("component closed")

	// ErrTransport indicates the backend could not be reached.
	ErrTransport = errors.New("transport failure")

	// ErrMalformedResponse indicates a success response whose body could not be decoded.
	ErrMalformedResponse = errors.New("malformed response body")

	// ErrClipboardUnavailable indicates no system clipboard is accessible.
	ErrClipboardUnavailable = errors.New("clipboard unavailable")

	// ErrInvalidDate indicates a calendar date could not be parsed.
	ErrInvalidDate = errors.New("invalid calendar date")
)
