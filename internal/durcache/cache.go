// Package durcache caches media file durations keyed by file identity so
// repeated library walks avoid re-probing unchanged files.
package durcache

import (
	"os"

	"yt-feed-sync/internal/statestore"
)

// Entry pins a cached duration to the exact file it was probed from.
type Entry struct {
	MTimeUnixNano   int64   `json:"mtime_unix_nano"`
	Size            int64   `json:"size"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type Cache struct {
	path    string
	entries map[string]Entry
	dirty   bool
}

// Load reads the cache file; missing or corrupt files start empty.
func Load(path string) *Cache {
	c := &Cache{path: path, entries: make(map[string]Entry)}
	statestore.ReadJSONLenient(path, &c.entries)
	if c.entries == nil {
		c.entries = make(map[string]Entry)
	}
	return c
}

// Get returns the cached duration for filePath, but only when the file's
// current mtime and size match the entry exactly. Any mismatch, or a
// missing file, is a cache miss.
func (c *Cache) Get(filePath string) (float64, bool) {
	entry, ok := c.entries[filePath]
	if !ok {
		return 0, false
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return 0, false
	}
	if info.ModTime().UnixNano() != entry.MTimeUnixNano || info.Size() != entry.Size {
		return 0, false
	}
	return entry.DurationSeconds, true
}

// Set records the duration for filePath against its current mtime and size.
// A file that cannot be stat'ed is not recorded.
func (c *Cache) Set(filePath string, durationSeconds float64) {
	info, err := os.Stat(filePath)
	if err != nil {
		return
	}
	c.entries[filePath] = Entry{
		MTimeUnixNano:   info.ModTime().UnixNano(),
		Size:            info.Size(),
		DurationSeconds: durationSeconds,
	}
	c.dirty = true
}

// Save persists the cache, but only when something changed since the last
// save.
func (c *Cache) Save() error {
	if !c.dirty {
		return nil
	}
	if err := statestore.WriteJSON(c.path, c.entries); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

func (c *Cache) Len() int {
	return len(c.entries)
}
