package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotLoggedIn is returned by calls that need a token before Login.
var ErrNotLoggedIn = errors.New("apiclient: not logged in")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	Details   json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("medconnect: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func parseErrorResponse(resp *http.Response, body []byte) error {
	var env struct {
		Error struct {
			Code      string          `json:"code"`
			Message   string          `json:"message"`
			RequestID string          `json:"requestId"`
			Details   json.RawMessage `json:"details"`
		} `json:"error"`
	}

	apiErr := &APIError{Status: resp.StatusCode}

	if err := json.Unmarshal(body, &env); err == nil && env.Error.Code != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.RequestID = env.Error.RequestID
		apiErr.Details = env.Error.Details
		return apiErr
	}

	apiErr.Code = "http_" + fmt.Sprint(resp.StatusCode)
	apiErr.Message = http.StatusText(resp.StatusCode)
	return apiErr
}
