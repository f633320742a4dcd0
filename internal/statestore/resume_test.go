package statestore

import (
	"path/filepath"
	"testing"
	"time"

	"yt-feed-sync/internal/model"
)

func TestResumePutSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.json")
	store, err := LoadResume(path, 7)
	if err != nil {
		t.Fatalf("LoadResume: %v", err)
	}

	err = store.Put("v1", model.ResumeEntry{
		ProgressPercent: 42,
		SourceKey:       "chan",
		Kind:            model.KindChannel,
		URL:             "https://example/v1",
		Title:           "Halfway",
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	reloaded, err := LoadResume(path, 7)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	entry, ok := reloaded.Get("v1")
	if !ok {
		t.Fatal("entry should survive reload")
	}
	if entry.ProgressPercent != 42 || entry.SourceKey != "chan" {
		t.Fatalf("unexpected entry after reload: %+v", entry)
	}
	if entry.LastTouchedAt == "" {
		t.Fatal("Put should stamp last_touched_at")
	}
}

func TestResumeClearPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.json")
	store, err := LoadResume(path, 7)
	if err != nil {
		t.Fatalf("LoadResume: %v", err)
	}
	if err := store.Put("v1", model.ResumeEntry{SourceKey: "chan"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Clear("v1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear("v1"); err != nil {
		t.Fatalf("Clear of absent entry: %v", err)
	}

	reloaded, err := LoadResume(path, 7)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Len() != 0 {
		t.Fatalf("expected empty store after clear, got %d entries", reloaded.Len())
	}
}

func TestResumeSweepsStaleEntriesAtLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.json")

	stale := time.Now().UTC().Add(-10 * 24 * time.Hour).Format(time.RFC3339)
	fresh := time.Now().UTC().Format(time.RFC3339)
	seed := resumeFile{
		SchemaVersion: resumeSchemaVersion,
		Entries: map[string]model.ResumeEntry{
			"old":    {SourceKey: "chan", LastTouchedAt: stale},
			"recent": {SourceKey: "chan", LastTouchedAt: fresh},
			"broken": {SourceKey: "chan", LastTouchedAt: "not-a-time"},
		},
	}
	if err := WriteJSON(path, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store, err := LoadResume(path, 7)
	if err != nil {
		t.Fatalf("LoadResume: %v", err)
	}
	if _, ok := store.Get("old"); ok {
		t.Fatal("stale entry should have been swept")
	}
	if _, ok := store.Get("broken"); ok {
		t.Fatal("entry with unparsable timestamp should have been swept")
	}
	if _, ok := store.Get("recent"); !ok {
		t.Fatal("fresh entry should survive the sweep")
	}

	// Sweep persists, so a second load sees the trimmed file.
	reloaded, err := LoadResume(path, 7)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Len() != 1 {
		t.Fatalf("expected 1 entry after persisted sweep, got %d", reloaded.Len())
	}
}

func TestResumeCorruptFileRewrittenAtLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.json")
	if err := WriteBytes(path, []byte("{not json")); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}

	if _, err := LoadResume(path, 7); err != nil {
		t.Fatalf("LoadResume: %v", err)
	}

	var file resumeFile
	if err := ReadJSON(path, &file); err != nil {
		t.Fatalf("corrupt file should have been replaced with valid JSON: %v", err)
	}
	if len(file.Entries) != 0 {
		t.Fatalf("rewritten file should be the empty default: %+v", file)
	}
}

func TestResumeZeroRetentionKeepsEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.json")
	stale := time.Now().UTC().Add(-365 * 24 * time.Hour).Format(time.RFC3339)
	seed := resumeFile{
		SchemaVersion: resumeSchemaVersion,
		Entries:       map[string]model.ResumeEntry{"old": {LastTouchedAt: stale}},
	}
	if err := WriteJSON(path, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store, err := LoadResume(path, 0)
	if err != nil {
		t.Fatalf("LoadResume: %v", err)
	}
	if _, ok := store.Get("old"); !ok {
		t.Fatal("retention 0 should disable the sweep")
	}
}
