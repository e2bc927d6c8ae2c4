package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Codes carried in error bodies. Clients branch on these, not on messages.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeInvalidCourt     = "invalid_court"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeUnsupportedImage = "unsupported_image"
	ErrCodeTooLarge         = "too_large"
)

// APIError is the payload of every 4xx/5xx response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope: {"error":{"code":...,"message":...}}.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// encodeFailure is sent when a response value cannot be marshalled
var encodeFailure = []byte(`{"error":{"code":"internal","message":"response could not be encoded"}}`)

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: APIError{Code: code, Message: message}})
}

// writeJSON marshals data before writing the header, so a value that fails
// to encode turns into a clean 500 instead of a truncated body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("encode response", "err", err)
		status, body = http.StatusInternalServerError, encodeFailure
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
