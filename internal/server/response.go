// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type errorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type errorBody struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []errorDetail `json:"details,omitempty"`
}

type envelope struct {
	Data      any        `json:"data,omitempty"`
	Error     *errorBody `json:"error,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	write(w, status, envelope{Data: data, RequestID: requestIDFrom(r)})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string, details []errorDetail) {
	write(w, status, envelope{
		Error:     &errorBody{Code: code, Message: msg, Details: details},
		RequestID: requestIDFrom(r),
	})
}

// writeErrorWithData sends an error that still carries a payload, such as
// the current usage alongside quota_exceeded.
func writeErrorWithData(w http.ResponseWriter, r *http.Request, status int, code, msg string, data any) {
	write(w, status, envelope{
		Data:      data,
		Error:     &errorBody{Code: code, Message: msg},
		RequestID: requestIDFrom(r),
	})
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encoding response", "error", err)
	}
}
