package orchestrator

import (
	"os"
	"path/filepath"
	"sort"
	"time"
)

// housekeeping removes artifacts older than the configured retention and
// prunes directories the removals emptied. Everything here is best effort;
// a file that cannot be deleted is logged and skipped.
func (o *Orchestrator) housekeeping() {
	days := o.cfg.Cleanup.CleanupDays
	if days <= 0 {
		return
	}
	root := o.cfg.Paths.VideoDir
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)

	removed := 0
	var dirs []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != root {
				dirs = append(dirs, path)
			}
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if rmErr := os.Remove(path); rmErr != nil {
				o.log.Warn("remove old artifact", "path", path, "error", rmErr)
				return nil
			}
			removed++
		}
		return nil
	})
	if err != nil {
		o.log.Warn("housekeeping walk", "error", err)
	}

	// Deepest first, so a chain of emptied directories collapses in one
	// pass. os.Remove refuses non-empty directories, which is exactly the
	// guard we want.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	pruned := 0
	for _, dir := range dirs {
		if os.Remove(dir) == nil {
			pruned++
		}
	}

	if removed > 0 || pruned > 0 {
		o.log.Info("housekeeping complete", "removed_files", removed, "pruned_dirs", pruned)
	}
}
