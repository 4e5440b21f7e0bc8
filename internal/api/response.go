// Package api holds the JSON response helpers and middleware of the hub API.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/strefethen/soundtouch-hub-go/internal/apperrors"
)

// ListResponse is the envelope of every collection endpoint.
// Example: {"object": "list", "data": [...], "url": "/v1/devices"}
type ListResponse struct {
	Object string `json:"object"`
	Data   any    `json:"data"`
	URL    string `json:"url"`
}

// ErrorResponse wraps an error body.
type ErrorResponse struct {
	Error     apperrors.ErrorBody `json:"error"`
	RequestID string              `json:"request_id,omitempty"`
}

// WriteJSON sends a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// WriteError serializes err as {"error": {...}}. Server-side failures are
// logged with their cause.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.EnsureAppError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.Printf("API: %s %s failed: %v", r.Method, r.URL.Path, appErr)
	}
	_ = WriteJSON(w, appErr.StatusCode, ErrorResponse{
		Error:     appErr.Body(),
		RequestID: GetRequestID(r),
	})
}

// WriteList writes a list envelope.
func WriteList(w http.ResponseWriter, url string, data any) error {
	return WriteJSON(w, http.StatusOK, ListResponse{
		Object: "list",
		Data:   data,
		URL:    url,
	})
}

// WriteResource writes a single resource with status 200.
func WriteResource(w http.ResponseWriter, resource any) error {
	return WriteJSON(w, http.StatusOK, resource)
}
