package synapse

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNotFound is returned (wrapped) for HTTP 404 responses and for user lookups that do not
// match any Synapse account.
var ErrNotFound = errors.New("not found")

// HTTPError is a non-2xx response from the Synapse REST API.
type HTTPError struct {
	Method string
	URL    string
	Status int
	Reason string
}

func (e *HTTPError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%v %v: %v %v", e.Method, e.URL, e.Status, e.Reason)
	}

	return fmt.Sprintf("%v %v: %v %v", e.Method, e.URL, e.Status, http.StatusText(e.Status))
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

func newHTTPError(method, url string, response *http.Response) error {
	err := HTTPError{
		Method: method,
		URL:    url,
		Status: response.StatusCode,
	}

	// Synapse error responses are {"reason": "..."}
	if b, _ := io.ReadAll(io.LimitReader(response.Body, 4096)); len(b) > 0 {
		reply := struct {
			Reason string `json:"reason"`
		}{}

		if json.Unmarshal(b, &reply) == nil {
			err.Reason = reply.Reason
		}
	}

	return &err
}
