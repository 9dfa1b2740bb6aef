// Package httpapi exposes the HTTP API layer of the service.
package httpapi

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/warungdata/katalog/internal/errs"
)

// jsonError represents a JSON error payload.
type jsonError struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonError{Error: message, Details: details})
}

// WriteError renders a classified error, mapping its code to an HTTP status.
func WriteError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errs.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(jsonError{
		Error: err.Error(),
		Code:  string(errs.CodeOf(err)),
	})
}
