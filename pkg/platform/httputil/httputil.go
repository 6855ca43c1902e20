// Package httputil centralizes JSON response writing and domain error
// translation so handlers never map codes to statuses by hand.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "clinid/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into its HTTP response. Internal
// errors omit the description so store internals never reach clients;
// every other code returns its caller-safe message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	message := ""

	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
		message = de.Message
	}

	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal && message != "" {
		body["error_description"] = message
	}
	WriteJSON(w, dErrors.HTTPStatus(code), body)
}
