package scheduler

import (
	"os"
	"path/filepath"
	"strings"
)

// SanitizeTitle mirrors how the output layer flattens characters that are
// unsafe in filenames, so artifact probes match what was actually written.
func SanitizeTitle(title string) string {
	replacer := strings.NewReplacer(
		"<", "_", ">", "_", ":", "_", "\"", "_",
		"/", "_", "\\", "_", "|", "_", "?", "_", "*", "_",
	)
	return replacer.Replace(title)
}

// ProbeArtifact looks in dir for a video file matching the item's title.
// A file over MinResumeBytes is assumed to be a partial transfer (50%); a
// smaller file is treated as already complete (100%).
func ProbeArtifact(dir, title string) (found bool, percent int) {
	pattern := filepath.Join(dir, "*"+globEscape(SanitizeTitle(title))+"*.mp4")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return false, 0
	}
	for _, match := range matches {
		info, statErr := os.Stat(match)
		if statErr != nil || info.IsDir() {
			continue
		}
		if info.Size() > MinResumeBytes {
			return true, 50
		}
		return true, 100
	}
	return false, 0
}

// CleanupSubtitleArtifacts removes stray subtitle files left next to a
// finished video once their content has been embedded. Best effort only.
func (s *Scheduler) cleanupSubtitleArtifacts(title string) {
	clean := globEscape(SanitizeTitle(title))
	for _, ext := range []string{"srt", "vtt"} {
		pattern := filepath.Join(s.opts.VideoDir, "*"+clean+"*."+ext)
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, match := range matches {
			_ = os.Remove(match)
		}
	}
}

// globEscape neutralizes pattern metacharacters that survive title
// sanitization, like square brackets.
func globEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '[', ']', '*', '?', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
