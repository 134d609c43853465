package policy

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig matches any *NormalizeError via errors.Is.
var ErrInvalidConfig = errors.New("asyncguard: invalid retry config")

// NormalizeError names the RetryConfig field that failed validation.
// Field uses the YAML spelling so messages match config files.
type NormalizeError struct {
	Field string
	Value string
}

func (e *NormalizeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s=%q must not be negative", ErrInvalidConfig, e.Field, e.Value)
}

func (e *NormalizeError) Is(target error) bool {
	return target == ErrInvalidConfig
}
