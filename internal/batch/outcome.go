package batch

import (
	"errors"
	"time"

	"github.com/jonathan/whisper-client/internal/acquisition"
	"github.com/jonathan/whisper-client/internal/client"
	"github.com/jonathan/whisper-client/internal/ingestion"
	"github.com/jonathan/whisper-client/internal/poller"
	"github.com/jonathan/whisper-client/internal/types"
)

// Item is one unit of batch work: a local audio file or a remote media URL.
type Item struct {
	Source string
	Remote bool
}

// LocalItems wraps resolved file paths as items.
func LocalItems(paths []string) []Item {
	items := make([]Item, len(paths))
	for i, p := range paths {
		items[i] = Item{Source: p}
	}
	return items
}

// Outcome kinds reported alongside the terminal state.
const (
	KindValidation           = "validation_error"
	KindJobNotFound          = "job_not_found"
	KindServiceUnreachable   = "service_unreachable"
	KindPipelineStageFailed  = "pipeline_stage_failed"
	KindPollDeadline         = "poll_deadline"
	KindExternallyTerminated = "externally_terminated"
	KindNotAttempted         = "not_attempted"
	KindError                = "error"
)

// Outcome is the per-item record of a batch run.
type Outcome struct {
	Item       Item
	JobID      string
	State      types.JobState
	Transcript *types.Transcript
	Detail     string
	Err        error
	ReportPath string
	Attempted  bool
	Elapsed    time.Duration
}

// Kind classifies the outcome for reporting. Errors take precedence over the state.
func (o Outcome) Kind() string {
	if !o.Attempted {
		return KindNotAttempted
	}
	if o.Err != nil && o.State != types.StateCompleted {
		switch {
		case errors.Is(o.Err, client.ErrValidation),
			errors.Is(o.Err, ingestion.ErrInvalidURL),
			errors.Is(o.Err, ingestion.ErrUnsupportedFormat):
			return KindValidation
		case errors.Is(o.Err, client.ErrJobNotFound):
			return KindJobNotFound
		case errors.Is(o.Err, client.ErrServiceUnreachable):
			return KindServiceUnreachable
		case errors.Is(o.Err, acquisition.ErrStageFailed):
			return KindPipelineStageFailed
		case errors.Is(o.Err, poller.ErrPollDeadline):
			return KindPollDeadline
		default:
			return KindError
		}
	}
	if o.State == types.StateTerminated {
		return KindExternallyTerminated
	}
	return string(o.State)
}

// Summary aggregates a batch run.
type Summary struct {
	RunID       string
	Outcomes    []Outcome
	Counts      map[types.JobState]int
	Interrupted bool
	Elapsed     time.Duration
}

func newSummary(runID string, capacity int) *Summary {
	return &Summary{
		RunID:    runID,
		Outcomes: make([]Outcome, 0, capacity),
		Counts:   make(map[types.JobState]int),
	}
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	s.Counts[o.State]++
}

// AllCompleted reports whether every item produced a transcript.
func (s *Summary) AllCompleted() bool {
	if len(s.Outcomes) == 0 {
		return false
	}
	for _, o := range s.Outcomes {
		if o.State != types.StateCompleted {
			return false
		}
	}
	return true
}
