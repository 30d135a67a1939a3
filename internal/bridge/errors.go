package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Provider error codes the gateway special-cases. Everything else propagates
// as an opaque *APIError.
const codeDuplicateRecord = "duplicate_record"

// APIError is a non-2xx response from the custody provider. It keeps the
// provider's code and raw payload for diagnosis; transport layers must not
// leak it to API callers directly.
type APIError struct {
	Status int
	Code   string
	Body   json.RawMessage
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("bridge: provider returned %d (%s)", e.Status, e.Code)
	}
	return fmt.Sprintf("bridge: provider returned %d", e.Status)
}

// IsDuplicate reports whether the provider rejected a creation because the
// record already exists.
func (e *APIError) IsDuplicate() bool {
	return e.Code == codeDuplicateRecord
}

// AsAPIError extracts an *APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
