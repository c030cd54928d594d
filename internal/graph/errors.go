package graph

import (
	"errors"
	"fmt"
)

// ErrAuthRequired is returned when no bearer token is available. The client
// returns it before issuing any network call.
var ErrAuthRequired = errors.New("authentication required: no access token available")

// RemoteCallError describes a failed remote call: a non-2xx status, a
// transport failure (Status 0) or a 2xx body that could not be parsed.
type RemoteCallError struct {
	Method   string
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *RemoteCallError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Endpoint, e.Status, e.Message)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var rce *RemoteCallError
	if errors.As(err, &rce) {
		return rce.Status
	}
	return 0
}
