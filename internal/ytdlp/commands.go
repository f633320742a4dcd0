package ytdlp

import (
	"fmt"
	"strings"
)

// FallbackItemFormat is the tab-separated print template used by the
// one-item-at-a-time feed query.
const FallbackItemFormat = "%(id)s\t%(title)s\t%(uploader)s\t%(duration)s"

// ScanArgs builds the flat-playlist feed query for the newest limit entries.
func ScanArgs(feedURL string, limit int) []string {
	return []string{
		"--flat-playlist",
		"--playlist-items", fmt.Sprintf("1-%d", limit),
		"--dump-json",
		"--no-warnings",
		feedURL,
	}
}

// FallbackScanArgs builds the single-entry query for position (1-based),
// used when the bulk scan keeps failing.
func FallbackScanArgs(feedURL string, position int) []string {
	return []string{
		"--flat-playlist",
		"--playlist-items", fmt.Sprintf("%d", position),
		"--print", FallbackItemFormat,
		"--no-warnings",
		feedURL,
	}
}

// ListSubsArgs builds the subtitle availability probe.
func ListSubsArgs(videoURL string) []string {
	return []string{
		"--list-subs",
		"--no-warnings",
		"--no-cookies",
		videoURL,
	}
}

// DownloadSpec carries everything that varies between download invocations.
type DownloadSpec struct {
	URL            string
	OutputTemplate string
	MaxHeight      string
	Resume         bool
	Subtitles      bool
}

// DownloadArgs builds the full download invocation. Flag order is stable:
// the resume flag, then subtitle flags, then the URL come last.
func DownloadArgs(spec DownloadSpec) []string {
	args := []string{
		"-f", formatSelector(spec.MaxHeight),
		"--merge-output-format", "mp4",
		"--no-cookies",
		"--no-cache-dir",
		"--no-part",
		"--no-mtime",
		"--sponsorblock-remove", "sponsor,intro,outro,selfpromo,preview,interaction",
		"--embed-chapters",
		"--embed-metadata",
		"--no-embed-thumbnail",
		"--no-playlist",
		"--output", spec.OutputTemplate,
		"--newline",
		"--no-warnings",
		"--progress",
		"--retries", "10",
		"--fragment-retries", "10",
		"--file-access-retries", "5",
		"--socket-timeout", "30",
	}
	if spec.Resume {
		args = append(args, "--continue")
	}
	if spec.Subtitles {
		args = append(args,
			"--write-auto-sub",
			"--write-sub",
			"--sub-langs", "en",
			"--convert-subs", "srt",
			"--embed-subs",
		)
	}
	return append(args, spec.URL)
}

// FFprobeDurationArgs builds the ffprobe invocation that prints a media
// file's duration in seconds as a bare number.
func FFprobeDurationArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

func formatSelector(maxHeight string) string {
	h := strings.TrimSpace(maxHeight)
	if h == "" || strings.EqualFold(h, "best") {
		return "bestvideo+bestaudio/best"
	}
	return fmt.Sprintf("bestvideo[height<=%s]+bestaudio/best[height<=%s]", h, h)
}
