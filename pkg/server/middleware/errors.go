package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON body of every error the API returns.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Field names the request field that caused the error, if any.
	Field string `json:"field,omitempty"`
}

// Error codes.
const (
	CodeInvalidRequest  = "invalid_request"
	CodeRequestTooLarge = "request_too_large"
	CodeUnauthorized    = "unauthorized"
	CodeNotFound        = "not_found"
	CodeTimeout         = "request_timeout"
	CodeInternal        = "internal_error"
)

// WriteError writes an ErrorResponse with the given status.
func WriteError(w http.ResponseWriter, status int, detail ErrorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: detail})
}
