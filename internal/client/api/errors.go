package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ServerError is a non-2xx response from the authorization service. Message
// holds the server's own diagnostic text when one was provided, so upstream
// errors keep the reason the server gave.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// errorBody is the error envelope the service uses for failures.
type errorBody struct {
	Error string `json:"error"`
}

// newServerError drains up to a small amount of the response body looking
// for the JSON error envelope, falling back to the raw text.
func newServerError(resp *http.Response) *ServerError {
	se := &ServerError{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(body) == 0 {
		return se
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		se.Message = eb.Error
		return se
	}

	se.Message = strings.TrimSpace(string(body))
	return se
}
