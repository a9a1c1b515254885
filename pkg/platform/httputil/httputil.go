// Package httputil centralizes JSON response writing and the mapping from
// domain error codes to HTTP status codes.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "docaudit/pkg/domain-errors"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to its HTTP status. Internal and unavailable
// errors omit the description so backend detail never leaks to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.Code(err)

	status := http.StatusInternalServerError
	body := errorResponse{Error: "internal_error"}

	switch code {
	case dErrors.CodeBadRequest:
		status = http.StatusBadRequest
		body = errorResponse{Error: string(code), Description: err.Error()}
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
		body = errorResponse{Error: string(code), Description: err.Error()}
	case dErrors.CodeUnavailable:
		status = http.StatusBadGateway
		body = errorResponse{Error: string(code)}
	}

	WriteJSON(w, status, body)
}

// DecodeJSON decodes the request body into T, rejecting unknown fields. A
// failure writes a bad_request response and returns ok=false.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body"))
		return v, false
	}
	return v, true
}
