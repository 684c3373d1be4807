package ingestion

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// audioMIMETypes maps supported extensions to the content type sent with the upload.
var audioMIMETypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"m4a":  "audio/mp4",
	"ogg":  "audio/ogg",
	"flac": "audio/flac",
}

// SupportedFormats returns the supported audio extensions, sorted, without dots.
func SupportedFormats() []string {
	formats := make([]string, 0, len(audioMIMETypes))
	for ext := range audioMIMETypes {
		formats = append(formats, ext)
	}
	sort.Strings(formats)
	return formats
}

func extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// IsSupportedAudioFormat reports whether path has a supported audio extension (case-insensitive).
func IsSupportedAudioFormat(path string) bool {
	_, ok := audioMIMETypes[extension(path)]
	return ok
}

// AudioMIMEType returns the upload content type for path.
func AudioMIMEType(path string) (string, error) {
	mimeType, ok := audioMIMETypes[extension(path)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
	return mimeType, nil
}

// CollectAudioFiles returns the supported audio files at path.
// A file path yields itself when supported. A directory yields its direct
// children, or its whole tree when recursive is set. Results are sorted.
func CollectAudioFiles(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", path, err)
	}

	if !info.IsDir() {
		if IsSupportedAudioFormat(path) {
			return []string{path}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != path && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && IsSupportedAudioFormat(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", path, err)
	}

	sort.Strings(files)
	return files, nil
}
