// Package types provides type definitions for the job data exchanged with the transcription service.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"
	"time"
)

// JobState is the lifecycle state of a server-side transcription job.
type JobState string

// JobState values. Queued and Processing are the only non-terminal states.
const (
	StateQueued     JobState = "queued"
	StateProcessing JobState = "processing"
	StateCompleted  JobState = "completed"
	StateFailed     JobState = "failed"
	StateTerminated JobState = "terminated"
	StateCancelled  JobState = "cancelled"
)

// AllStates lists every JobState in lifecycle order.
var AllStates = []JobState{
	StateQueued,
	StateProcessing,
	StateCompleted,
	StateFailed,
	StateTerminated,
	StateCancelled,
}

// IsTerminal reports whether no further transitions can follow s.
func (s JobState) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateTerminated, StateCancelled:
		return true
	default:
		return false
	}
}

func (s JobState) String() string {
	return string(s)
}

// ParseJobState maps a service status string onto a JobState.
// The second return value is false when the string is not recognised,
// in which case StateProcessing is returned.
func ParseJobState(raw string) (JobState, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "queued", "pending":
		return StateQueued, true
	case "processing", "running":
		return StateProcessing, true
	case "completed":
		return StateCompleted, true
	case "failed":
		return StateFailed, true
	case "terminated":
		return StateTerminated, true
	case "cancelled", "canceled":
		return StateCancelled, true
	default:
		return StateProcessing, false
	}
}

// FileInfo describes the uploaded file as recorded by the service.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Progress is the optional processing progress reported for a running job.
type Progress struct {
	TotalDuration     float64 `json:"total_duration"`
	ProcessedDuration float64 `json:"processed_duration"`
	TotalChunks       int     `json:"total_chunks"`
	ProcessedChunks   int     `json:"processed_chunks"`
	Percentage        float64 `json:"percentage"`
}

// JobSnapshot is one observation of a job as returned by the service.
type JobSnapshot struct {
	JobID     string      `json:"job_id"`
	Status    string      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Result    *Transcript `json:"result,omitempty"`
	FileInfo  *FileInfo   `json:"file_info,omitempty"`
	CreatedAt *float64    `json:"created_at,omitempty"` // unix seconds
	Filename  string      `json:"filename,omitempty"`
	Progress  *Progress   `json:"progress,omitempty"`
}

// State returns the parsed JobState of the snapshot.
func (s *JobSnapshot) State() JobState {
	state, _ := ParseJobState(s.Status)
	return state
}

// Created returns the submission time, or the zero time when the service did not report one.
func (s *JobSnapshot) Created() time.Time {
	if s.CreatedAt == nil {
		return time.Time{}
	}
	sec := int64(*s.CreatedAt)
	nsec := int64((*s.CreatedAt - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// Job is the client-side record of one transcription job, owned by a single poller.
type Job struct {
	ID          string
	State       JobState
	Result      *Transcript
	Detail      string
	SubmittedAt time.Time
	SourceFile  string
	Last        *JobSnapshot
}
