package proxy

import "net/http"

// Kind classifies a proxy failure into one of the HTTP status classes
type Kind int

const (
	KindUpstream Kind = iota
	KindInvalidRequest
	KindConfig
	KindRateLimited
)

// Error is a proxy failure. Message is safe to return to clients; Err holds
// the internal cause and must never be written to a response.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the failure kind to its HTTP status
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
