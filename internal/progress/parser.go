// Package progress classifies the retrieval tool's output lines.
package progress

import (
	"regexp"
	"strconv"
	"strings"
)

type Kind int

const (
	KindNone Kind = iota
	KindDownload
	KindStarting
	KindExtract
	KindConverting
	KindPlaylistItem
)

// Event is one classified output line. Fields are populated per kind:
// Download carries percent/size/speed/ETA, Extract carries the destination
// file, PlaylistItem carries current/total.
type Event struct {
	Kind    Kind
	Percent float64
	Size    string
	Speed   string
	ETA     string
	File    string
	Current int
	Total   int
}

var (
	downloadRe = regexp.MustCompile(`\[download\]\s+(\d+\.?\d*)%\s+of\s+~?\s*(\d+\.?\d*)(\w+)\s+at\s+(\d+\.?\d*)(\w+)/s\s+ETA\s+(\d+:\d+|\d+)`)
	extractRe  = regexp.MustCompile(`\[ExtractAudio\]\s+Destination:\s+(.+)`)
	ffmpegRe   = regexp.MustCompile(`\[FFmpeg\]\s+Converting\s+.+\s+to\s+.+`)
	playlistRe = regexp.MustCompile(`\[download\]\s+Downloading\s+item\s+(\d+)\s+of\s+(\d+)`)
)

// ParseLine classifies a single output line. Unrecognized lines return
// KindNone; malformed numeric fields degrade to zero values.
func ParseLine(line string) Event {
	if m := downloadRe.FindStringSubmatch(line); m != nil {
		percent, _ := strconv.ParseFloat(m[1], 64)
		return Event{
			Kind:    KindDownload,
			Percent: percent,
			Size:    m[2] + m[3],
			Speed:   m[4] + m[5] + "/s",
			ETA:     m[6],
		}
	}
	if m := extractRe.FindStringSubmatch(line); m != nil {
		return Event{Kind: KindExtract, File: strings.TrimSpace(m[1])}
	}
	if ffmpegRe.MatchString(line) {
		return Event{Kind: KindConverting}
	}
	if m := playlistRe.FindStringSubmatch(line); m != nil {
		current, _ := strconv.Atoi(m[1])
		total, _ := strconv.Atoi(m[2])
		return Event{Kind: KindPlaylistItem, Current: current, Total: total}
	}
	if strings.Contains(line, "[download] Destination:") {
		return Event{Kind: KindStarting}
	}
	return Event{Kind: KindNone}
}
