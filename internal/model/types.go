package model

import "strings"

const (
	KindChannel  = "channel"
	KindPlaylist = "playlist"
)

// Item is one downloadable unit discovered in a source feed. Identity is ID
// alone: title and URL may change upstream, the ID never does.
type Item struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	Uploader        string `json:"uploader,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// IsShort reports whether the item falls under the short-content threshold.
// Unknown durations (0) count as short, matching the feed tool's behavior of
// reporting shorts without a duration field.
func (it Item) IsShort(thresholdSeconds int) bool {
	return it.DurationSeconds < thresholdSeconds
}

// Source is a monitored channel or playlist. Key is the channel handle or the
// playlist URL and is unique across the registry.
type Source struct {
	Key          string `json:"key"`
	DisplayName  string `json:"display_name"`
	Kind         string `json:"kind"`
	InitialLimit int    `json:"initial_limit,omitempty"`
}

// FeedURL resolves the scannable URL for the source. Channel handles expand to
// their /videos listing; anything that already looks like a URL passes through.
func (s Source) FeedURL() string {
	key := strings.TrimSpace(s.Key)
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	handle := strings.TrimPrefix(key, "@")
	return "https://www.youtube.com/@" + handle + "/videos"
}

func IsKnownKind(kind string) bool {
	return kind == KindChannel || kind == KindPlaylist
}

// FetchTask pairs one item with the source it was discovered in. The planner
// emits tasks in scan order; the scheduler wraps each in exactly one job.
type FetchTask struct {
	Item   Item   `json:"item"`
	Source Source `json:"source"`
}

// Completion is the scheduler's verdict for one task. Every submitted task
// yields exactly one completion, success or failure.
type Completion struct {
	JobID        string    `json:"job_id"`
	Task         FetchTask `json:"task"`
	Success      bool      `json:"success"`
	ResumeUsed   bool      `json:"resume_used,omitempty"`
	ErrorSummary string    `json:"error_summary,omitempty"`
}

// DownloadRecord is one successfully fetched item in a source's history.
type DownloadRecord struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	DownloadedAt string `json:"downloaded_at"`
}

// HistoryEntry is the durable per-source record of everything already
// fetched. DownloadedItems is append-ordered; an ID appears at most once.
type HistoryEntry struct {
	DownloadedItems []DownloadRecord `json:"downloaded_items"`
	LastDownloadAt  string           `json:"last_download_at,omitempty"`
}

// Contains reports whether the given item ID is already in the history.
func (h HistoryEntry) Contains(id string) bool {
	for _, rec := range h.DownloadedItems {
		if rec.ID == id {
			return true
		}
	}
	return false
}

// ResumeEntry is the durable record of an item's last known partial-transfer
// state. Created when a job starts with partial local evidence, cleared on
// success, retained on failure so a later run can pick the transfer back up.
type ResumeEntry struct {
	ProgressPercent int    `json:"progress_percent"`
	SourceKey       string `json:"source_key"`
	Kind            string `json:"kind"`
	URL             string `json:"url,omitempty"`
	Title           string `json:"title,omitempty"`
	LastTouchedAt   string `json:"last_touched_at"`
}

// LastDownload is the snapshot of the most recent successful fetch, written
// for status display across process restarts.
type LastDownload struct {
	SourceKey  string `json:"source_key"`
	SourceName string `json:"source_name"`
	ItemID     string `json:"item_id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Timestamp  string `json:"timestamp"`
}
