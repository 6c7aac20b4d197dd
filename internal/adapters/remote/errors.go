package remote

import "fmt"

// StatusError reports a non-2xx response from a backend endpoint.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.Endpoint, e.Code, e.Body)
}
