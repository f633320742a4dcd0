package durcache

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"yt-feed-sync/internal/ytdlp"
)

const probeTimeout = 30 * time.Second

// mediaExtensions are the file types counted when summing a library
// directory's total duration.
var mediaExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".flac": true, ".aac": true, ".ogg": true,
	".m4a": true, ".mp4": true, ".mkv": true, ".avi": true, ".mov": true,
	".flv": true, ".webm": true,
}

// Prober measures media durations through ffprobe, consulting the cache
// before spawning a subprocess.
type Prober struct {
	inv   ytdlp.Invoker
	cache *Cache
}

func NewProber(inv ytdlp.Invoker, cache *Cache) *Prober {
	return &Prober{inv: inv, cache: cache}
}

// Duration returns filePath's duration in seconds, probing on cache miss.
func (p *Prober) Duration(ctx context.Context, filePath string) (float64, error) {
	if secs, ok := p.cache.Get(filePath); ok {
		return secs, nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	stdout, _, err := p.inv.Capture(probeCtx, "ffprobe", ytdlp.FFprobeDurationArgs(filePath)...)
	if err != nil {
		return 0, err
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(stdout), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration for %s: %w", filePath, err)
	}
	p.cache.Set(filePath, secs)
	return secs, nil
}

// DirectoryStats is the result of summing a directory tree's media files.
type DirectoryStats struct {
	TotalSeconds float64
	Formatted    string
	FileCount    int
}

// DirectoryDuration walks root, sums the durations of all media files, and
// persists whatever the cache learned. Files that cannot be probed are
// skipped. An empty tree reports "0sec".
func (p *Prober) DirectoryDuration(ctx context.Context, root string) (DirectoryStats, error) {
	stats := DirectoryStats{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !mediaExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		secs, probeErr := p.Duration(ctx, path)
		if probeErr != nil {
			return nil
		}
		stats.TotalSeconds += secs
		stats.FileCount++
		return nil
	})
	if saveErr := p.cache.Save(); saveErr != nil && err == nil {
		err = saveErr
	}

	if stats.FileCount == 0 {
		stats.Formatted = "0sec"
	} else {
		stats.Formatted = FormatShort(stats.TotalSeconds)
	}
	return stats, err
}

// FormatShort renders a duration like "3hr 45min", "4min 26sec", or "26sec".
func FormatShort(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		return "Unknown"
	}
	total := int(math.Round(seconds))
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dhr %dmin", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dhr", hours)
	case minutes > 0 && secs > 0:
		return fmt.Sprintf("%dmin %dsec", minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%dmin", minutes)
	default:
		return fmt.Sprintf("%dsec", secs)
	}
}
