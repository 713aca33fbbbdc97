package shared

import (
	"fmt"
	"net/http"
)

var (
	// Transport error taxonomy. Every non-2xx status an adapter sees is
	// translated into exactly one of these at the transport boundary;
	// upper layers never inspect HTTP internals.
	ErrAuthExpired = fmt.Errorf("authentication expired")
	ErrForbidden   = fmt.Errorf("insufficient permissions")
	ErrRateLimited = fmt.Errorf("rate limited by service")
	ErrNotFound    = fmt.Errorf("not found")
	ErrService     = fmt.Errorf("service error")

	// Precondition failures
	ErrValidation   = fmt.Errorf("validation failed")
	ErrNotConnected = fmt.Errorf("service not connected")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and lookup errors
	ErrPlaylistNotFound = fmt.Errorf("playlist not found: %w", ErrNotFound)
)

// FromStatus translates an HTTP status code from a service API into the
// error taxonomy. Returns nil for 2xx statuses.
func FromStatus(service string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s returned status %d", ErrAuthExpired, service, status)
	case status == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned status %d", ErrForbidden, service, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s returned status %d", ErrRateLimited, service, status)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s returned status %d", ErrNotFound, service, status)
	default:
		return fmt.Errorf("%w: %s returned status %d", ErrService, service, status)
	}
}
