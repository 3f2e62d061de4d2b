package api

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned for any non-2xx upstream response.
type APIError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: unexpected status %d from %s: %s", e.Op, e.StatusCode, e.URL, e.Body)
	}
	return fmt.Sprintf("%s: unexpected status %d from %s", e.Op, e.StatusCode, e.URL)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
