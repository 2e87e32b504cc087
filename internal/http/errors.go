package http

import (
	"errors"
	"fmt"
)

// ErrRateLimited is returned when the remote answers 429 Too Many Requests.
var ErrRateLimited = errors.New("rate limited by server")

// StatusError is returned for any other non-200 response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}
