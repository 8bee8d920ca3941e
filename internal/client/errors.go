package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError is raised before any request is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// APIError is a non-2xx answer. Detail is the backend's message, if it sent one.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("http %d", e.Status)
}

func (e *APIError) IsAuth() bool {
	return e.Status == http.StatusUnauthorized
}

func (e *APIError) IsNotFoundOrForbidden() bool {
	return e.Status == http.StatusNotFound || e.Status == http.StatusForbidden
}

// TransportError covers unreachable hosts, timeouts and unreadable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// UserMessage picks what to show the user: the validation text, the backend's
// detail, or fallback. Transport failures use transportMsg.
func UserMessage(err error, fallback, transportMsg string) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Msg
	}
	var te *TransportError
	if errors.As(err, &te) {
		return transportMsg
	}
	var ae *APIError
	if errors.As(err, &ae) && ae.Detail != "" {
		return ae.Detail
	}
	return fallback
}
