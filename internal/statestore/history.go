package statestore

import (
	"time"

	"yt-feed-sync/internal/model"
)

// historyFile is the on-disk shape of history.json: one entry per source plus
// the archive-wide first-run marker.
type historyFile struct {
	SchemaVersion     int                            `json:"schema_version"`
	Sources           map[string]*model.HistoryEntry `json:"sources"`
	FirstRunCompleted bool                           `json:"first_run_completed"`
	LastUpdated       string                         `json:"last_updated,omitempty"`
}

const historySchemaVersion = 1

// HistoryStore is the durable record of items already fetched, per source.
// Every mutation persists immediately: the write-through is what makes a
// crash mid-run safe, so mutations are never batched. Only the orchestrator
// goroutine touches a HistoryStore.
type HistoryStore struct {
	path       string
	maxEntries int
	data       historyFile
}

// LoadHistory reads history.json, treating a missing or corrupt file as an
// empty archive. A corrupt file is replaced with the empty default right
// away, not left on disk until the first mutation. maxEntries caps each
// source's retained records (FIFO by append order); <= 0 means unbounded.
func LoadHistory(path string, maxEntries int) (*HistoryStore, error) {
	s := &HistoryStore{path: path, maxEntries: maxEntries}
	loaded := ReadJSONLenient(path, &s.data)
	if !loaded {
		s.data = historyFile{}
	}
	s.data.SchemaVersion = historySchemaVersion
	if s.data.Sources == nil {
		s.data.Sources = make(map[string]*model.HistoryEntry)
	}
	if !loaded && fileExists(path) {
		if err := s.save(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *HistoryStore) Entry(sourceKey string) model.HistoryEntry {
	if e, ok := s.data.Sources[sourceKey]; ok && e != nil {
		return *e
	}
	return model.HistoryEntry{}
}

func (s *HistoryStore) IsDownloaded(sourceKey, id string) bool {
	e, ok := s.data.Sources[sourceKey]
	if !ok || e == nil {
		return false
	}
	return e.Contains(id)
}

// Append records a successful download and persists the store. Appending an
// ID already present is a no-op, which keeps commits idempotent. When the
// per-source cap is exceeded the oldest records by append order are evicted.
func (s *HistoryStore) Append(sourceKey string, rec model.DownloadRecord) error {
	e, ok := s.data.Sources[sourceKey]
	if !ok || e == nil {
		e = &model.HistoryEntry{}
		s.data.Sources[sourceKey] = e
	}
	if e.Contains(rec.ID) {
		return nil
	}
	if rec.DownloadedAt == "" {
		rec.DownloadedAt = time.Now().UTC().Format(time.RFC3339)
	}
	e.DownloadedItems = append(e.DownloadedItems, rec)
	if s.maxEntries > 0 && len(e.DownloadedItems) > s.maxEntries {
		e.DownloadedItems = e.DownloadedItems[len(e.DownloadedItems)-s.maxEntries:]
	}
	e.LastDownloadAt = rec.DownloadedAt
	return s.save()
}

func (s *HistoryStore) FirstRunCompleted() bool {
	return s.data.FirstRunCompleted
}

// MarkFirstRunCompleted flips the archive-wide first-run flag and persists.
// The flag never flips back.
func (s *HistoryStore) MarkFirstRunCompleted() error {
	if s.data.FirstRunCompleted {
		return nil
	}
	s.data.FirstRunCompleted = true
	return s.save()
}

// SourceKeys returns the keys of all sources with at least one record.
func (s *HistoryStore) SourceKeys() []string {
	keys := make([]string, 0, len(s.data.Sources))
	for k, e := range s.data.Sources {
		if e != nil && len(e.DownloadedItems) > 0 {
			keys = append(keys, k)
		}
	}
	return keys
}

func (s *HistoryStore) save() error {
	s.data.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return WriteJSON(s.path, s.data)
}
