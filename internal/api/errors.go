package api

import (
	"errors"
	"fmt"
	"net/http"
)

// GenericMessage is shown for failures that carry no backend text.
const GenericMessage = "Something went wrong."

// StatusError is a non-2xx response. Message is the response body text.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// ErrorMessage maps err to the text a view displays. Status errors show the
// backend's body, or fallback when the body was empty. Everything else,
// malformed success bodies included, shows GenericMessage.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Message != "" {
			return statusErr.Message
		}
		return fallback
	}
	return GenericMessage
}
