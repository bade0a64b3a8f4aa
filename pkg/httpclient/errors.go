package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// APIError is a non-2xx answer from the backend. Message is what the user
// should see, taken verbatim from the response.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// GRPCStatus lets status.Code and status.FromError classify the error.
func (e *APIError) GRPCStatus() *status.Status {
	return status.New(codeForHTTP(e.StatusCode), e.Message)
}

func newAPIError(code int, raw []byte) *APIError {
	body := strings.TrimSpace(string(raw))
	msg := extractMessage(raw)
	if msg == "" {
		msg = body
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	return &APIError{StatusCode: code, Message: msg, Body: body}
}

func extractMessage(raw []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	if len(payload.Error) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Error, &s); err == nil {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}

func codeForHTTP(code int) codes.Code {
	switch {
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		return codes.InvalidArgument
	case code == http.StatusUnauthorized:
		return codes.Unauthenticated
	case code == http.StatusForbidden:
		return codes.PermissionDenied
	case code == http.StatusNotFound:
		return codes.NotFound
	case code == http.StatusConflict:
		return codes.FailedPrecondition
	case code == http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	case code >= 500:
		return codes.Unavailable
	default:
		return codes.Unknown
	}
}
