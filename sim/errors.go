package sim

import (
	"errors"
	"fmt"
)

// ErrInternal marks a failure that is a defect in the simulator rather than a
// problem with the caller's input. SimulationService wraps every
// non-validation failure with it.
var ErrInternal = errors.New("internal simulation fault")

// ValidationError reports malformed, missing, mismatched or out-of-range
// input. Field is the request field name as the caller sent it, including an
// index suffix for per-group fields (e.g. "contact_rate[1]").
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err (or anything it wraps) is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InconsistentGridError means a group's series length disagrees with the
// shared time grid. It can only happen if the integrator output was built
// incorrectly.
type InconsistentGridError struct {
	Group int
	Want  int
	Got   int
}

func (e *InconsistentGridError) Error() string {
	return fmt.Sprintf("group %d: series has %d points, time grid has %d", e.Group, e.Got, e.Want)
}
