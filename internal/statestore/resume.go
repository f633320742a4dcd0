package statestore

import (
	"time"

	"yt-feed-sync/internal/model"
)

type resumeFile struct {
	SchemaVersion int                          `json:"schema_version"`
	Entries       map[string]model.ResumeEntry `json:"entries"`
	LastCleanup   string                       `json:"last_cleanup,omitempty"`
}

const resumeSchemaVersion = 1

// ResumeStore is the durable map of in-flight item IDs to last-known
// transfer progress. Its whole purpose is crash survival, so every mutation
// persists immediately. Entries older than the retention window are swept
// once, at load time.
type ResumeStore struct {
	path      string
	retention time.Duration
	data      resumeFile
}

// LoadResume reads resume.json, treating missing or corrupt files as empty,
// and drops entries whose last touch predates now minus retentionDays. A
// corrupt file is replaced with the empty default right away.
func LoadResume(path string, retentionDays int) (*ResumeStore, error) {
	s := &ResumeStore{path: path, retention: time.Duration(retentionDays) * 24 * time.Hour}
	loaded := ReadJSONLenient(path, &s.data)
	if !loaded {
		s.data = resumeFile{}
	}
	s.data.SchemaVersion = resumeSchemaVersion
	if s.data.Entries == nil {
		s.data.Entries = make(map[string]model.ResumeEntry)
	}
	if !loaded && fileExists(path) {
		if err := s.save(); err != nil {
			return nil, err
		}
	}
	if swept := s.sweep(time.Now().UTC()); swept > 0 {
		if err := s.save(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *ResumeStore) Get(id string) (model.ResumeEntry, bool) {
	e, ok := s.data.Entries[id]
	return e, ok
}

// Put stores the entry under id, stamping LastTouchedAt, and persists.
func (s *ResumeStore) Put(id string, e model.ResumeEntry) error {
	e.LastTouchedAt = time.Now().UTC().Format(time.RFC3339)
	s.data.Entries[id] = e
	return s.save()
}

// Clear removes the entry for id, persisting only when something was
// actually removed.
func (s *ResumeStore) Clear(id string) error {
	if _, ok := s.data.Entries[id]; !ok {
		return nil
	}
	delete(s.data.Entries, id)
	return s.save()
}

func (s *ResumeStore) Len() int {
	return len(s.data.Entries)
}

// Snapshot returns a copy of all entries, safe to hand to other goroutines.
func (s *ResumeStore) Snapshot() map[string]model.ResumeEntry {
	out := make(map[string]model.ResumeEntry, len(s.data.Entries))
	for id, e := range s.data.Entries {
		out[id] = e
	}
	return out
}

// sweep drops entries older than the retention window and returns how many
// were removed. Entries with unparsable timestamps are treated as expired.
func (s *ResumeStore) sweep(now time.Time) int {
	if s.retention <= 0 {
		return 0
	}
	cutoff := now.Add(-s.retention)
	swept := 0
	for id, e := range s.data.Entries {
		touched, err := time.Parse(time.RFC3339, e.LastTouchedAt)
		if err != nil || touched.Before(cutoff) {
			delete(s.data.Entries, id)
			swept++
		}
	}
	if swept > 0 {
		s.data.LastCleanup = now.Format(time.RFC3339)
	}
	return swept
}

func (s *ResumeStore) save() error {
	return WriteJSON(s.path, s.data)
}
