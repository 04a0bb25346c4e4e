package httpx

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

const (
	contentTypeJSON = "application/json"
	maxBodyBytes    = 1 << 20
)

// ErrorBody is the error shape the restaurant API answers with
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"message": message, "error": <status text>}
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{Message: message, Error: http.StatusText(status)})
}

// DecodeJSON reads a JSON request body into v, rejecting unknown fields
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "invalid JSON body")
	}
	return nil
}
