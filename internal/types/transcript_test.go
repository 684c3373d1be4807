//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranscript_Validate(t *testing.T) {
	t.Run("ordered", func(t *testing.T) {
		tr := &Transcript{Segments: []Segment{
			{Start: 0.0, End: 4.2, Text: "hello"},
			{Start: 4.2, End: 9.8, Text: "world"},
		}}
		assert.NoError(t, tr.Validate())
		assert.Equal(t, 9.8, tr.Duration())
	})

	t.Run("end before start", func(t *testing.T) {
		tr := &Transcript{Segments: []Segment{{Start: 3, End: 1}}}
		assert.ErrorContains(t, tr.Validate(), "ends before it starts")
	})

	t.Run("out of order", func(t *testing.T) {
		tr := &Transcript{Segments: []Segment{{Start: 5, End: 6}, {Start: 1, End: 2}}}
		assert.ErrorContains(t, tr.Validate(), "starts before")
	})

	t.Run("nil", func(t *testing.T) {
		var tr *Transcript
		assert.Error(t, tr.Validate())
		assert.Zero(t, tr.Duration())
	})
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(ErrCancelled))
	assert.True(t, IsCancelled(fmt.Errorf("poll: %w", ErrCancelled)))
	assert.False(t, IsCancelled(errors.New("boom")))
	assert.False(t, IsCancelled(nil))
}
