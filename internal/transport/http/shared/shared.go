// Package shared centralizes JSON response envelopes so every handler
// translates domain errors to HTTP statuses the same way.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "cohortd/pkg/domain-errors"
)

// WriteJSON answers with the given status and a JSON body.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps a domain error to its HTTP status and a JSON error
// envelope. Internal detail stays out of the response body.
func WriteError(w http.ResponseWriter, err error) {
	status := dErrors.ToHTTPStatus(err)
	message := "internal error"
	var domainErr *dErrors.Error
	if status < http.StatusInternalServerError && errors.As(err, &domainErr) {
		message = domainErr.Message
	}
	WriteJSON(w, status, map[string]string{
		"error":   string(dErrors.CodeOf(err)),
		"message": message,
	})
}
