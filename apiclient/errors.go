package apiclient

import "fmt"

// Application-level status codes embedded in response payloads, independent of
// the transport HTTP status.
const (
	// CodeTokenExpired means the access token expired; refresh and retry once.
	CodeTokenExpired = 419
	// CodeInvalidSession means the session is unrecoverable; force logout.
	CodeInvalidSession = 498
)

// RequestError is a transport-level non-success with no special application
// code attached. Message carries the payload's message field when present.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}
