package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ValidationError is returned for bad local input before any network call is made
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UpstreamError is returned when a remote call completed but signaled failure
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Message)
}

// RateLimited reports whether the upstream asked the caller to back off
func (e *UpstreamError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// NetworkError wraps a transport-level failure where no response was received
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ObjectID is an artwork identifier as sent by clients, either a JSON number or string
type ObjectID string

// UnmarshalJSON accepts 123, "123" and null
func (o *ObjectID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = ObjectID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("objectID must be a number or string: %w", err)
	}
	*o = ObjectID(n.String())
	return nil
}

// MarshalJSON emits canonical integer ids as numbers and anything else, such
// as "+5" or "007", as a string
func (o ObjectID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.Atoi(string(o)); err == nil && strconv.Itoa(n) == string(o) {
		return []byte(o), nil
	}
	return json.Marshal(string(o))
}

// ObjectIDFromInt converts an artwork id to its wire form
func ObjectIDFromInt(id int) ObjectID {
	return ObjectID(strconv.Itoa(id))
}
