//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    JobState
		terminal bool
	}{
		{StateQueued, false},
		{StateProcessing, false},
		{StateCompleted, true},
		{StateFailed, true},
		{StateTerminated, true},
		{StateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.state.IsTerminal())
		})
	}
}

func TestParseJobState(t *testing.T) {
	tests := []struct {
		raw   string
		want  JobState
		known bool
	}{
		{"queued", StateQueued, true},
		{"pending", StateQueued, true},
		{"Processing", StateProcessing, true},
		{"running", StateProcessing, true},
		{" completed ", StateCompleted, true},
		{"failed", StateFailed, true},
		{"terminated", StateTerminated, true},
		{"cancelled", StateCancelled, true},
		{"canceled", StateCancelled, true},
		{"warming-up", StateProcessing, false},
		{"", StateProcessing, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, known := ParseJobState(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestJobSnapshot_Decode(t *testing.T) {
	body := `{
		"job_id": "abc-123",
		"status": "completed",
		"message": "done",
		"created_at": 1234567890.5,
		"filename": "talk.mp3",
		"file_info": {"name": "talk.mp3", "size": 1000},
		"result": {
			"text": "hello world",
			"segments": [
				{"id": 0, "seek": 0, "start": 0.0, "end": 4.2, "text": "hello", "tokens": [1, 2]},
				{"id": 1, "seek": 100, "start": 4.2, "end": 9.8, "text": "world", "tokens": [3]}
			]
		}
	}`

	var snap JobSnapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))

	assert.Equal(t, "abc-123", snap.JobID)
	assert.Equal(t, StateCompleted, snap.State())
	require.NotNil(t, snap.Result)
	require.Len(t, snap.Result.Segments, 2)
	assert.Equal(t, "hello", snap.Result.Segments[0].Text)
	assert.Equal(t, 9.8, snap.Result.Segments[1].End)
	require.NotNil(t, snap.FileInfo)
	assert.Equal(t, int64(1000), snap.FileInfo.Size)
	assert.Equal(t, int64(1234567890), snap.Created().Unix())
	assert.Equal(t, 500*time.Millisecond, time.Duration(snap.Created().Nanosecond()))
}

func TestJobSnapshot_CreatedMissing(t *testing.T) {
	snap := JobSnapshot{JobID: "x", Status: "queued"}
	assert.True(t, snap.Created().IsZero())
}
