package upstream

import (
	"errors"
	"fmt"
)

// ErrUnauthorized signals a 401 from any upstream endpoint. Callers must
// treat it uniformly: abandon the operation, clear the credential, and
// send the user back to login. It is checked before any body parsing.
var ErrUnauthorized = errors.New("upstream: unauthorized")

// RejectionError carries the upstream API's own message for a non-2xx,
// non-401 response. The message is surfaced to the user verbatim.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("upstream rejected request (%d): %s", e.StatusCode, e.Message)
}

// NetworkError wraps a transport-level failure (offline, timeout, DNS).
// Local state is left unmodified and the user is prompted to retry.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("upstream unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
