package types

import "fmt"

// Segment is one timed span of transcribed speech. Times are in seconds.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the result payload of a completed job.
// Segments are in reading order, sorted by start time.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// Duration returns the end time of the last segment, or 0 for an empty transcript.
func (t *Transcript) Duration() float64 {
	if t == nil || len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

// Validate checks that segments are ordered by start time and that no segment ends before it starts.
func (t *Transcript) Validate() error {
	if t == nil {
		return fmt.Errorf("transcript is nil")
	}
	for i, seg := range t.Segments {
		if seg.End < seg.Start {
			return fmt.Errorf("segment %d ends before it starts (%.2f < %.2f)", i, seg.End, seg.Start)
		}
		if i > 0 && seg.Start < t.Segments[i-1].Start {
			return fmt.Errorf("segment %d starts before segment %d", i, i-1)
		}
	}
	return nil
}
