package classify

// OutcomeKind describes the executor's decision about an attempt result.
type OutcomeKind int

const (
	OutcomeUnknown OutcomeKind = iota
	OutcomeSuccess
	OutcomeRetryable
	OutcomeAbort
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Standard Outcome.Reason strings.
const (
	ReasonSuccess                 = "success"
	ReasonTimeout                 = "timeout"
	ReasonActionError             = "action_error"
	ReasonRetryableError          = "retryable_error"
	ReasonNonRetryable            = "non_retryable"
	ReasonPanic                   = "panic"
	ReasonContextCanceled         = "context_canceled"
	ReasonContextDeadlineExceeded = "context_deadline_exceeded"
)

// Outcome describes the classification of an attempt.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}
