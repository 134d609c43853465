package guard

// Phase is the coarse lifecycle position of a guard.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the observable state of a guard. Message is only set in
// PhaseFailed.
type State struct {
	Phase   Phase
	Message string
}

func idleState() State      { return State{Phase: PhaseIdle} }
func loadingState() State   { return State{Phase: PhaseLoading} }
func succeededState() State { return State{Phase: PhaseSucceeded} }

func failedState(msg string) State {
	return State{Phase: PhaseFailed, Message: msg}
}

func (s State) Loading() bool { return s.Phase == PhaseLoading }
func (s State) Failed() bool  { return s.Phase == PhaseFailed }

func (s State) String() string {
	if s.Phase == PhaseFailed {
		return "failed(" + s.Message + ")"
	}
	return s.Phase.String()
}
