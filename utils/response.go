package utils

import (
	"encoding/json"
	"errors"
	"net/http"
)

type responseMeta struct {
	Status  int  `json:"status"`
	Success bool `json:"success"`
}

type successBody struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type successEnvelope struct {
	Meta responseMeta `json:"meta"`
	Data successBody  `json:"data"`
}

type failureEnvelope struct {
	Meta  responseMeta `json:"meta"`
	Error *APIError    `json:"error"`
}

// WriteJSON sends a success envelope with the given message and payload.
func WriteJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(successEnvelope{
		Meta: responseMeta{Status: status, Success: true},
		Data: successBody{Message: message, Data: data},
	})
}

// WriteError sends a failure envelope. Non-API errors are masked as a
// generic internal failure so internals never leak to the client.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = Internal("Your Request Is Failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	json.NewEncoder(w).Encode(failureEnvelope{
		Meta:  responseMeta{Status: apiErr.Status, Success: false},
		Error: apiErr,
	})
}
