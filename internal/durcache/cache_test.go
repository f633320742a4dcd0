package durcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeMedia(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write media file: %v", err)
	}
	return path
}

func TestCacheHitRequiresExactIdentity(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "durations.json")
	media := writeMedia(t, dir, "a.mp4", "original content")

	cache := Load(cachePath)
	cache.Set(media, 125.5)

	if secs, ok := cache.Get(media); !ok || secs != 125.5 {
		t.Fatalf("expected hit, got %v %v", secs, ok)
	}

	// Rewriting the file changes size, invalidating the entry.
	if err := os.WriteFile(media, []byte("different length content entirely"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if _, ok := cache.Get(media); ok {
		t.Fatal("changed file should miss")
	}
}

func TestCacheMtimeChangeInvalidates(t *testing.T) {
	dir := t.TempDir()
	media := writeMedia(t, dir, "a.mp4", "content")

	cache := Load(filepath.Join(dir, "durations.json"))
	cache.Set(media, 60)

	// Same size, different mtime.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(media, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if _, ok := cache.Get(media); ok {
		t.Fatal("mtime change should miss")
	}
}

func TestCacheMissingFileMisses(t *testing.T) {
	dir := t.TempDir()
	media := writeMedia(t, dir, "a.mp4", "content")

	cache := Load(filepath.Join(dir, "durations.json"))
	cache.Set(media, 60)

	if err := os.Remove(media); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := cache.Get(media); ok {
		t.Fatal("deleted file should miss")
	}
}

func TestCacheSaveOnlyWhenDirty(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "durations.json")
	media := writeMedia(t, dir, "a.mp4", "content")

	cache := Load(cachePath)
	if err := cache.Save(); err != nil {
		t.Fatalf("clean save: %v", err)
	}
	if _, err := os.Stat(cachePath); !os.IsNotExist(err) {
		t.Fatal("clean save should not create the file")
	}

	cache.Set(media, 60)
	if err := cache.Save(); err != nil {
		t.Fatalf("dirty save: %v", err)
	}
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("cache file should exist after dirty save: %v", err)
	}

	reloaded := Load(cachePath)
	if secs, ok := reloaded.Get(media); !ok || secs != 60 {
		t.Fatalf("reloaded cache should hit: %v %v", secs, ok)
	}
}

func TestLoadCorruptStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "durations.json")
	if err := os.WriteFile(cachePath, []byte("{oops"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if cache := Load(cachePath); cache.Len() != 0 {
		t.Fatal("corrupt cache should start empty")
	}
}
