package api

import "fmt"

// The error taxonomy surfaced to callers. ValidationError and NotFoundError
// are raised locally and never reach the network. NetworkError means no
// usable response arrived; ServerError means the backend answered non-2xx.

// ValidationError reports a required-field check that failed before any
// network call was made.
type ValidationError struct {
	Resource string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Resource, e.Reason)
}

// NetworkError wraps a transport-level failure: connection refused, timeout,
// or an unreadable response body.
type NetworkError struct {
	Op  string // "list issues", "create project", ...
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response. Message carries the backend's own
// message verbatim when the body had one, else a generic description.
type ServerError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: server returned %d", e.Op, e.StatusCode)
}

// NotFoundError reports an operation against an id that is no longer in the
// local collection. Defensive: an optimistic removal can race a stale click.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}
