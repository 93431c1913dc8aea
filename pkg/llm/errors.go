package llm

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrNoProviders     = errors.New("no providers configured")
)

// StatusError captures a non-2xx upstream response with enough context to
// decide whether the call is worth retrying elsewhere.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// HTTPStatusCode exposes the upstream status for callers that map provider
// failures onto API responses.
func (e *StatusError) HTTPStatusCode() int { return e.StatusCode }

// UpstreamStatus extracts the upstream HTTP status from a provider error
// chain, if any.
func UpstreamStatus(err error) (int, bool) {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.StatusCode, true
}
