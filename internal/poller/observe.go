// Package poller drives one submitted job to a terminal state by polling its status.
package poller

import "github.com/jonathan/whisper-client/internal/types"

// Action tells the polling loop what to do after an observation.
type Action int

const (
	// ActionNone means the job was already terminal; nothing happens.
	ActionNone Action = iota
	// ActionContinue means sleep for the poll interval and query again.
	ActionContinue
	// ActionEmitResult means the job completed; deliver its transcript and stop.
	ActionEmitResult
	// ActionEmitError means the job failed; deliver its error detail and stop.
	ActionEmitError
	// ActionEmitTerminated means the job was stopped outside this client; report it and stop.
	ActionEmitTerminated
	// ActionEmitCancelled means the job was cancelled; report it and stop.
	ActionEmitCancelled
)

var actionNames = map[Action]string{
	ActionNone:           "none",
	ActionContinue:       "continue",
	ActionEmitResult:     "emit_result",
	ActionEmitError:      "emit_error",
	ActionEmitTerminated: "emit_terminated",
	ActionEmitCancelled:  "emit_cancelled",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Stops reports whether the action ends the polling loop.
func (a Action) Stops() bool {
	return a != ActionContinue
}

// Observe is the job state transition function. It is total over
// current × observed: a terminal current state absorbs every observation,
// a non-terminal observation keeps the loop going and is tracked as the new
// state, and each terminal observation maps to its own stop action.
func Observe(current, observed types.JobState) (types.JobState, Action) {
	if current.IsTerminal() {
		return current, ActionNone
	}

	switch observed {
	case types.StateQueued, types.StateProcessing:
		return observed, ActionContinue
	case types.StateCompleted:
		return types.StateCompleted, ActionEmitResult
	case types.StateFailed:
		return types.StateFailed, ActionEmitError
	case types.StateTerminated:
		return types.StateTerminated, ActionEmitTerminated
	case types.StateCancelled:
		return types.StateCancelled, ActionEmitCancelled
	default:
		return types.StateProcessing, ActionContinue
	}
}
