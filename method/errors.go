package method

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials is returned when no API key is configured. It is
// fatal for the whole adapter: every action is refused.
var ErrMissingCredentials = errors.New("method crm api key not configured")

// APIError is a non-success HTTP response from the Method CRM API, carrying
// the status code and the body text.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("method crm api error: %d - %s", e.Status, e.Body)
}

// InvalidResponseError indicates the CRM answered with a shape the adapter
// cannot use: not an array where one is required, or a record without an
// identifier.
type InvalidResponseError struct {
	Reason string
}

func (e *InvalidResponseError) Error() string {
	return "invalid response from method crm: " + e.Reason
}
