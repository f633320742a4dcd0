package ytdlp

import "strings"

// HasSubtitles reports whether a --list-subs output describes any usable
// subtitle track. The listing is unstructured, so this is a heuristic: an
// English track line, or a populated Language/Formats table.
func HasSubtitles(listing string) bool {
	lines := strings.Split(strings.TrimSpace(listing), "\n")
	for _, line := range lines {
		if strings.Contains(line, "Language") && strings.Contains(line, "Formats") {
			if len(lines) > 2 {
				return true
			}
		}
		if strings.HasPrefix(line, "en ") || strings.Contains(strings.ToLower(line), "english") {
			return true
		}
	}
	return false
}
