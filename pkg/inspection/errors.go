package inspection

import (
	"fmt"

	"mediatrust-hq/orchestrator/pkg/audit"
)

// ErrNotFound is returned by GetReport when no record exists for an asset.
var ErrNotFound = audit.ErrNotFound

// ValidationError reports a malformed inspection request.
type ValidationError struct {
	// Field is the request field at fault ("body" for the payload as a whole)
	Field string

	// Message describes what is wrong with the field
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}
