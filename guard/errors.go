package guard

import (
	"errors"
	"fmt"
)

// ErrBusy is returned by Run when a sequence is already in flight.
var ErrBusy = errors.New("asyncguard: guard is busy")

// CallbackPanicError is a panic recovered from the success callback.
type CallbackPanicError struct {
	Value any
}

func (e *CallbackPanicError) Error() string {
	return fmt.Sprintf("asyncguard: panic in success callback: %v", e.Value)
}

// ErrNoAction is the failure of a guard created with a nil action.
var ErrNoAction = errors.New("asyncguard: guard has no action")
