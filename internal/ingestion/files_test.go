package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedAudioFormat(t *testing.T) {
	tests := []struct {
		file string
		want bool
	}{
		{"test.mp3", true},
		{"test.wav", true},
		{"test.m4a", true},
		{"test.ogg", true},
		{"test.flac", true},
		{"TEST.MP3", true},
		{"test.txt", false},
		{"test.pdf", false},
		{"test", false},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSupportedAudioFormat(tt.file))
		})
	}
}

func TestAudioMIMEType(t *testing.T) {
	mimeType, err := AudioMIMEType("a/b/song.FLAC")
	require.NoError(t, err)
	assert.Equal(t, "audio/flac", mimeType)

	_, err = AudioMIMEType("notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"flac", "m4a", "mp3", "ogg", "wav"}, SupportedFormats())
}

func TestCollectAudioFiles(t *testing.T) {
	base := t.TempDir()
	write := func(rel string) {
		p := filepath.Join(base, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("dummy"), 0644))
	}
	write("test1.mp3")
	write("test2.wav")
	write("test3.txt")
	write("subdir/test4.mp3")
	write("subdir/test5.wav")

	t.Run("non-recursive", func(t *testing.T) {
		files, err := CollectAudioFiles(base, false)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(base, "test1.mp3"),
			filepath.Join(base, "test2.wav"),
		}, files)
	})

	t.Run("recursive", func(t *testing.T) {
		files, err := CollectAudioFiles(base, true)
		require.NoError(t, err)
		assert.Len(t, files, 4)
	})

	t.Run("single file", func(t *testing.T) {
		files, err := CollectAudioFiles(filepath.Join(base, "test1.mp3"), false)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("unsupported single file", func(t *testing.T) {
		files, err := CollectAudioFiles(filepath.Join(base, "test3.txt"), false)
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := CollectAudioFiles(filepath.Join(base, "nope"), false)
		assert.Error(t, err)
	})
}
