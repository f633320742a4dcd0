// Package feed queries a source's upstream listing for its newest items.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"yt-feed-sync/internal/logger"
	"yt-feed-sync/internal/model"
	"yt-feed-sync/internal/ytdlp"
)

// fallbackCeiling caps how many entries the one-at-a-time fallback will
// fetch; each entry is a separate subprocess.
const fallbackCeiling = 50

const fallbackItemTimeout = 30 * time.Second

// Options tunes scan retries and timeouts.
type Options struct {
	QueryTimeout time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	// FirstRun lifts the fallback ceiling: the initial population fetches
	// exactly as many entries as it was asked for.
	FirstRun bool
}

type Scanner struct {
	inv  ytdlp.Invoker
	log  *logger.Logger
	opts Options
}

func NewScanner(inv ytdlp.Invoker, log *logger.Logger, opts Options) *Scanner {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	return &Scanner{inv: inv, log: log.WithComponent("feed"), opts: opts}
}

// flatEntry is the subset of the scan query's JSON-lines output we consume.
type flatEntry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Duration float64 `json:"duration"`
}

// Scan returns the newest limit items of the source's feed, newest first.
// An empty feed is not an error. The bulk query is retried on timeout; when
// it keeps failing outright the scanner falls back to fetching entries one
// position at a time.
func (s *Scanner) Scan(ctx context.Context, source model.Source, limit int) ([]model.Item, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("scan limit must be positive, got %d", limit)
	}
	feedURL := source.FeedURL()
	log := s.log.WithSource(source.Key, source.DisplayName)

	for attempt := 1; attempt <= s.opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, 2*s.opts.QueryTimeout)
		stdout, _, err := s.inv.Capture(attemptCtx, "yt-dlp", ytdlp.ScanArgs(feedURL, limit)...)
		cancel()

		if err == nil {
			items := parseFlatEntries(stdout, source.DisplayName)
			log.Debug("scan complete", "items", len(items), "attempt", attempt)
			return items, nil
		}

		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("feed query timed out", "attempt", attempt)
			if attempt == s.opts.MaxRetries {
				return nil, nil
			}
		} else {
			log.Error("feed query failed", "attempt", attempt, "error", err)
			if attempt == s.opts.MaxRetries {
				return s.fallbackScan(ctx, source, limit)
			}
		}

		select {
		case <-time.After(s.opts.RetryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, nil
}

// fallbackScan fetches entries one position at a time. Slower, but survives
// feeds whose bulk listing keeps erroring. Stops at the first missing or
// failing position since later positions would fail the same way.
func (s *Scanner) fallbackScan(ctx context.Context, source model.Source, limit int) ([]model.Item, error) {
	feedURL := source.FeedURL()
	log := s.log.WithSource(source.Key, source.DisplayName)
	log.Info("falling back to per-item feed query")

	max := limit
	if !s.opts.FirstRun && max > fallbackCeiling {
		max = fallbackCeiling
	}

	var items []model.Item
	for pos := 1; pos <= max; pos++ {
		if err := ctx.Err(); err != nil {
			return items, nil
		}

		itemCtx, cancel := context.WithTimeout(ctx, fallbackItemTimeout)
		stdout, _, err := s.inv.Capture(itemCtx, "yt-dlp", ytdlp.FallbackScanArgs(feedURL, pos)...)
		cancel()
		if err != nil || strings.TrimSpace(stdout) == "" {
			break
		}

		item, ok := parseFallbackLine(stdout, source.DisplayName)
		if !ok {
			break
		}
		items = append(items, item)
	}

	log.Info("fallback scan complete", "items", len(items))
	return items, nil
}

// parseFlatEntries parses the scan query's JSON-lines output. Malformed
// lines are skipped rather than failing the whole scan.
func parseFlatEntries(stdout, defaultUploader string) []model.Item {
	var items []model.Item
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var entry flatEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.ID == "" {
			continue
		}
		uploader := entry.Uploader
		if uploader == "" {
			uploader = defaultUploader
		}
		items = append(items, model.Item{
			ID:              entry.ID,
			Title:           titleOrUnknown(entry.Title),
			URL:             watchURL(entry.ID),
			Uploader:        uploader,
			DurationSeconds: int(entry.Duration),
		})
	}
	return items
}

func parseFallbackLine(stdout, defaultUploader string) (model.Item, bool) {
	parts := strings.Split(strings.TrimSpace(stdout), "\t")
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
		return model.Item{}, false
	}
	item := model.Item{
		ID:       strings.TrimSpace(parts[0]),
		Title:    titleOrUnknown(parts[1]),
		Uploader: defaultUploader,
	}
	item.URL = watchURL(item.ID)
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		item.Uploader = strings.TrimSpace(parts[2])
	}
	if len(parts) > 3 {
		if secs, err := strconv.Atoi(strings.TrimSpace(parts[3])); err == nil {
			item.DurationSeconds = secs
		}
	}
	return item, true
}

func titleOrUnknown(raw string) string {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "Unknown"
	}
	return title
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
