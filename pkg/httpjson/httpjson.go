// Package httpjson holds the JSON request/response helpers shared by the
// transport packages.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxRequestBody = 1 << 20

var ErrInvalidJSON = errors.New("invalid JSON")

// ErrorBody is the envelope written for every failed request.
type ErrorBody struct {
	Error    ErrorPayload `json:"error"`
	Redirect string       `json:"redirect,omitempty"`
}

type ErrorPayload struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError points a validation failure at one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError classifies err through its gRPC status and writes the error
// envelope.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorRedirect(w, err, "")
}

// WriteErrorRedirect is WriteError with a navigation hint for the UI.
func WriteErrorRedirect(w http.ResponseWriter, err error, redirect string) {
	st, code, msg := StatusFromGRPC(err)
	WriteJSON(w, st, ErrorBody{
		Error:    ErrorPayload{Code: code, Message: msg},
		Redirect: redirect,
	})
}

// Decode reads exactly one JSON object into v and rejects unknown fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return ErrInvalidJSON
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return ErrInvalidJSON
	}
	return nil
}
