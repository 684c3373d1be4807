package rendering

import "strings"

// EscapeMarkdown escapes characters that would otherwise be read as inline
// markdown formatting: \ ` * _ [ ] < > #
func EscapeMarkdown(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) + len(text)/4)

	for _, r := range text {
		switch r {
		case '\\', '`', '*', '_', '[', ']', '<', '>', '#':
			result.WriteByte('\\')
		}
		result.WriteRune(r)
	}

	return result.String()
}
