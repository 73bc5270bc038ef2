package fetch

import (
	"fmt"
	"time"
)

// TimeoutError is returned when a fetch does not complete within its timeout.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("image fetch timed out after %s: %s", e.Timeout, e.URL)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// HTTPError is returned when the server answers with a non-success status.
type HTTPError struct {
	URL    string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("image fetch failed with status %d: %s", e.Status, e.URL)
}

// NetworkError wraps connection-level failures: DNS, refused or reset
// connections, malformed URLs and oversized bodies.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("image fetch failed: %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
