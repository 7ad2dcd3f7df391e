package up

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// ErrMissingToken is returned by NewClient when no personal access token is
// given.
var ErrMissingToken = errors.New("up api token is required")

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 64 << 10

// ErrorObject is a single entry of the JSON:API errors array.
type ErrorObject struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Source *struct {
		Parameter string `json:"parameter,omitempty"`
		Pointer   string `json:"pointer,omitempty"`
	} `json:"source,omitempty"`
}

// APIError is returned for any non-2xx response from the Up API.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
	Errors     []ErrorObject
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Up API error: %s\n%s", e.Status, e.Body)
}

// IsUnauthorized reports whether err is an APIError for a rejected token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err is an APIError for a missing resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func newAPIError(resp *http.Response) *APIError {
	status := resp.Status
	if status == "" {
		status = strconv.Itoa(resp.StatusCode) + " " + http.StatusText(resp.StatusCode)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Status: status}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}
	apiErr.Body = string(body)

	var doc struct {
		Errors []ErrorObject `json:"errors"`
	}
	if json.Unmarshal(body, &doc) == nil {
		apiErr.Errors = doc.Errors
	}

	return apiErr
}
