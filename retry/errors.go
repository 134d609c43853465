package retry

import (
	"errors"
	"fmt"

	"github.com/aponysus/asyncguard/policy"
)

// ErrExhausted matches any *ExhaustedRetriesError via errors.Is.
var ErrExhausted = errors.New("asyncguard: retries exhausted")

// ExhaustedRetriesError is the terminal failure of a sequence whose attempt
// budget reached zero. Last is the final TimeoutError or ActionError.
type ExhaustedRetriesError struct {
	Key      policy.Key
	Attempts int
	Last     error
}

func (e *ExhaustedRetriesError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if k := e.Key.String(); k != "" {
		return fmt.Sprintf("asyncguard: %s: retries exhausted after %d attempts: %v", k, e.Attempts, e.Last)
	}
	return fmt.Sprintf("asyncguard: retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Last
}

func (e *ExhaustedRetriesError) Is(target error) bool {
	return target == ErrExhausted
}

// Cause returns the last attempt error behind an exhausted sequence, or err
// itself when it is not an *ExhaustedRetriesError.
func Cause(err error) error {
	var ex *ExhaustedRetriesError
	if errors.As(err, &ex) && ex.Last != nil {
		return ex.Last
	}
	return err
}
