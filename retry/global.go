package retry

import (
	"log/slog"
	"sync/atomic"
)

var globalExec atomic.Pointer[Executor]

// DefaultExecutor returns the shared, lazily initialized executor. It is
// NewDefaultExecutor() unless SetGlobal installed one first.
func DefaultExecutor() *Executor {
	if e := globalExec.Load(); e != nil {
		return e
	}
	globalExec.CompareAndSwap(nil, NewDefaultExecutor())
	return globalExec.Load()
}

// SetGlobal installs exec as the shared executor. It only succeeds before
// the first DefaultExecutor call; later calls log a warning and report false.
func SetGlobal(exec *Executor) bool {
	if exec == nil {
		return false
	}
	if !globalExec.CompareAndSwap(nil, exec) {
		slog.Warn("retry: SetGlobal called after global executor already initialized; ignoring")
		return false
	}
	return true
}
