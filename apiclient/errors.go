package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RequestError is returned for any failed call: a non-2xx response, or no
// response at all (StatusCode 0, Err set).
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string // Server supplied message, if any
	Err        error  // Transport failure, if no response was received
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports a 401 response
func (e *RequestError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// StatusCode returns the HTTP status of err when it is a *RequestError with a
// response, otherwise 0.
func StatusCode(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}

// Message returns the server supplied message carried by err, if any
func Message(err error) string {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Message
	}
	return ""
}

// errorBody covers the error envelopes the API is known to send
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newRequestError(method, path string, resp *http.Response) *RequestError {
	re := &RequestError{Method: method, Path: path, StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return re
	}
	var body errorBody
	if json.Unmarshal(data, &body) == nil {
		re.Message = strings.TrimSpace(body.Message)
		if re.Message == "" {
			re.Message = strings.TrimSpace(body.Error)
		}
	}
	return re
}
