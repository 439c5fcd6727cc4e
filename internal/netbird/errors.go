package netbird

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection marks transport failures: DNS, TCP, TLS or timeout.
	ErrConnection = errors.New("unable to reach the NetBird API")

	// ErrAuthentication marks 401/403 responses from the API.
	ErrAuthentication = errors.New("NetBird API rejected the access token")
)

// APIError is returned when the API is reachable and authenticated but
// responds with an unexpected status or body shape. It carries the raw
// status and body for diagnostics.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("unexpected API response: %s", e.Body)
	}
	return fmt.Sprintf("unexpected API response (status %d): %s", e.Status, e.Body)
}
