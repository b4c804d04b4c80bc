package confluence

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// ErrNoHomepage indicates the space response carried no homepage reference.
var ErrNoHomepage = errors.New("confluence: space has no homepage")

// APIError is a non-2xx Confluence REST response. It unwraps to the domain
// error matching its status, so callers can test with errors.Is.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("confluence: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrInvalidConfig
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	default:
		return domain.ErrConnectorUnavailable
	}
}

// IsNotFound reports a 404 from the API.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports rejected credentials (401 or 403).
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized) || hasStatus(err, http.StatusForbidden)
}

// IsRateLimited reports a 429 from the API.
func IsRateLimited(err error) bool {
	return hasStatus(err, http.StatusTooManyRequests)
}

func hasStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
