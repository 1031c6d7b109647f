package utils

import "net/http"

// APIError is a structured failure carried from services to the HTTP
// boundary. Each failure is terminal for the request; no retries happen
// locally.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Context any    `json:"context,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func BadRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message}
}

func NotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: message}
}

func Unauthorized(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Message: message}
}

func Forbidden(message string) *APIError {
	return &APIError{Status: http.StatusForbidden, Message: message}
}

func Internal(message string) *APIError {
	return &APIError{Status: http.StatusInternalServerError, Message: message}
}
