// Package httputil centralizes JSON response and error envelope writing so
// every handler renders failures the same way.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "vaultbridge/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope. Internal
// errors keep their description out of the response; everything else surfaces
// the description so callers can act on it.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	body := map[string]string{
		"error": string(code),
	}
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) && de.Description != "" {
		body["error_description"] = de.Description
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}
