package domain

import (
	"errors"
	"fmt"
)

const (
	// MsgGeneric is shown for transport failures and detail-less server errors.
	MsgGeneric = "An error occurred during search"
	// MsgMalformed is shown when the response cannot be classified.
	MsgMalformed = "Received an unreadable response from the search service"
)

var (
	// ErrEmptyQuery is returned for blank queries; callers ignore it silently.
	ErrEmptyQuery = errors.New("empty query")
	// ErrMalformedResponse matches every *MalformedResponseError.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrSessionNotFound is returned when the backend does not know a session.
	ErrSessionNotFound = errors.New("session not found")
)

// TransportError is a network or connection failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a non-success HTTP status. Detail is the server's message, if any.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Detail)
}

// MalformedResponseError means a success body could not be decoded or classified.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return "malformed response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// UserMessage maps an error to the message shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *ServerError
	if errors.As(err, &se) && se.Detail != "" {
		return se.Detail
	}
	if errors.Is(err, ErrMalformedResponse) {
		return MsgMalformed
	}
	return MsgGeneric
}

// ErrorClass returns a stable label for logs and metrics.
func ErrorClass(err error) string {
	var (
		te *TransportError
		se *ServerError
	)
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrEmptyQuery):
		return "empty_query"
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &se):
		return "server"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "other"
	}
}
