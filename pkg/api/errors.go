package api

import "fmt"

// RequestError is any non-success HTTP response from the library API.
// The body is carried verbatim (after secret redaction) so the user sees
// whatever diagnostic the server returned.
type RequestError struct {
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed with status %d: %s", e.Status, e.Body)
}

// ConflictError reports a write rejected because the resource's server-side
// version no longer matches the expected version. The caller decides whether
// to re-read and retry; the client never retries a conflict itself.
type ConflictError struct {
	Status int
	Body   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict (status %d): resource was modified by another writer", e.Status)
}
