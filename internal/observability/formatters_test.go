package observability

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/whisper-client/internal/types"
)

func createdAt(v float64) *float64 {
	return &v
}

func TestPrintJobs(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	jobs := []types.JobSnapshot{
		{JobID: "job-1", Status: "completed", Filename: "a.mp3", CreatedAt: createdAt(1234567890)},
		{JobID: "job-2", Status: "failed", Filename: "b.wav", Message: "decoder error"},
		{JobID: "job-3", Status: "processing"},
	}

	p.PrintJobs(jobs, true)
	output := buf.String()

	assert.Contains(t, output, "✓ job-1 - completed a.mp3")
	assert.Contains(t, output, "✗ job-2 - failed b.wav")
	assert.Contains(t, output, "⋯ job-3 - processing")
	assert.Contains(t, output, "Created: 2009-02-13 23:31:30")
	assert.Contains(t, output, "Message: decoder error")
	assert.Contains(t, output, "Created: Unknown")
}

func TestPrintJobs_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintJobs(nil, false)
	assert.Contains(t, buf.String(), "(none)")
}

func TestPrintStatus_VerboseCompleted(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStatus(&types.JobSnapshot{
		JobID:    "job-9",
		Status:   "completed",
		Filename: "talk.mp3",
		Result: &types.Transcript{
			Text: "hello world",
			Segments: []types.Segment{
				{Start: 0, End: 4.2, Text: " hello"},
				{Start: 4.2, End: 9.8, Text: " world"},
			},
		},
	}, true)
	output := buf.String()

	assert.Contains(t, output, "Status for job job-9")
	assert.Contains(t, output, "File: talk.mp3")
	assert.Contains(t, output, "hello world")
	assert.Contains(t, output, "0s -> 4.2s: hello")
	assert.Contains(t, output, "4.2s -> 9.8s: world")
}

func TestPrintStatus_Progress(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStatus(&types.JobSnapshot{
		JobID:    "job-1",
		Status:   "processing",
		Progress: &types.Progress{Percentage: 42.5, ProcessedChunks: 17, TotalChunks: 40},
	}, false)

	assert.Contains(t, buf.String(), "Progress: 42.5% (17/40 chunks)")
}

func TestPrintStatus_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStatus(nil, true)
	assert.Empty(t, buf.String())
}

func TestPrintItemResult(t *testing.T) {
	tests := []struct {
		name   string
		state  types.JobState
		detail string
		report string
		want   string
	}{
		{"completed with report", types.StateCompleted, "", "/out/a.md", "✓ Saved transcript to: /out/a.md"},
		{"completed without report", types.StateCompleted, "", "", "✓ Transcribed a.mp3"},
		{"terminated", types.StateTerminated, "admin stop", "", "terminated by the service: admin stop"},
		{"cancelled", types.StateCancelled, "", "", "⊘ Cancelled a.mp3"},
		{"failed", types.StateFailed, "bad audio", "", "✗ Error processing a.mp3: bad audio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).PrintItemResult("a.mp3", tt.state, tt.detail, tt.report)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSummary(3, map[types.JobState]int{
		types.StateCompleted: 2,
		types.StateFailed:    1,
	}, 1500*time.Millisecond)
	output := buf.String()

	assert.Contains(t, output, "BATCH SUMMARY")
	assert.Contains(t, output, "Items:    3")
	assert.Contains(t, output, "Completed:2")
	assert.Contains(t, output, "Failed:   1")
	assert.Contains(t, output, "Cancelled:0")
	assert.Contains(t, output, "Elapsed:  2s")
}

func TestStateLabel(t *testing.T) {
	assert.Equal(t, "Terminated", StateLabel(types.StateTerminated))
}

func TestPrintServiceUnavailable(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintServiceUnavailable("http://localhost:9673", errors.New("connection refused"))
	assert.Contains(t, buf.String(), "connection refused")
	assert.Contains(t, buf.String(), "docker compose up -d")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn", false)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	logger, err = NewLogger(&buf, "warn", true)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	_, err = NewLogger(&buf, "chatty", false)
	assert.Error(t, err)
}

func TestPrintStage(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStage("downloading")
	assert.Equal(t, "⋯ Downloading\n", buf.String())
}

func TestPrintToolUnavailable(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintToolUnavailable(errors.New("external tool unavailable: yt-dlp"))
	assert.Contains(t, buf.String(), "✗ Error: external tool unavailable: yt-dlp")
	assert.Contains(t, buf.String(), "yt-dlp and ffmpeg")
}

func TestPrintTerminated(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.PrintTerminated(&types.JobSnapshot{JobID: "job-1", Message: "Job terminated"})
	p.PrintTerminated(&types.JobSnapshot{JobID: "job-2"})
	p.PrintTerminated(nil)

	assert.Contains(t, buf.String(), "⊘ Job job-1: Job terminated")
	assert.Contains(t, buf.String(), "⊘ Job job-2: termination requested")
}

func TestPrintKeyValues(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintKeyValues("CLIENT INFO", []KeyValue{
		{Key: "Service", Value: "http://localhost:9673"},
		{Key: "Formats", Value: "flac, m4a"},
	})
	output := buf.String()

	assert.Contains(t, output, "CLIENT INFO")
	assert.Contains(t, output, "Service:  http://localhost:9673")
	assert.Contains(t, output, "Formats:  flac, m4a")
}
