package alert

import (
	"errors"
	"fmt"
)

// Sentinel errors for the alert service layer.
var (
	// ErrNotFound means no rule matched both the id and the caller's tenant
	// scope. Deliberately indistinguishable from "exists but not yours".
	ErrNotFound = errors.New("alert rule not found")
	// ErrPermissionDenied rejects rule creation by an under-privileged role.
	ErrPermissionDenied = errors.New("insufficient privileges for alert rules")
)

// ValidationError reports missing or invalid input. It surfaces immediately
// and is never retried; the stored rule is left unchanged.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
