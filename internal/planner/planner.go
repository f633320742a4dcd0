// Package planner decides which scanned items become download tasks.
package planner

import "yt-feed-sync/internal/model"

// History is the read side of the download archive the planner consults.
type History interface {
	IsDownloaded(sourceKey, id string) bool
}

// Policy selects between the initial-population pass and the steady-state
// incremental pass.
type Policy struct {
	FirstRun              bool
	FilterShorts          bool
	ShortThresholdSeconds int
}

// Stats summarizes one planning pass over a source's scan results.
type Stats struct {
	Scanned           int
	SkippedShorts     int
	AlreadyDownloaded int
	Planned           int
}

// ScanDepth returns how many feed entries to request for a source. The
// initial pass takes exactly the source's population size. Afterwards the
// gap-check window applies, widened to the per-source ceiling when the
// operator configured a larger one.
func ScanDepth(firstRun bool, initialLimit, gapCheckLimit, maxPerSource int) int {
	if firstRun {
		return initialLimit
	}
	depth := gapCheckLimit
	if maxPerSource > depth {
		depth = maxPerSource
	}
	return depth
}

// Plan turns scan results into download tasks, preserving feed order and
// never emitting two tasks for the same item.
//
// First run: the first InitialLimit items verbatim. History and the shorts
// filter do not apply; the operator asked for exactly that many newest items.
//
// Steady state: shorts are dropped first (when filtering is on), then items
// already in history; whatever remains is new work. Items beyond the scan
// window that were never downloaded are not reconciled, the gap window is a
// bounded heuristic.
func Plan(source model.Source, items []model.Item, hist History, pol Policy) ([]model.FetchTask, Stats) {
	stats := Stats{Scanned: len(items)}
	var tasks []model.FetchTask
	seen := make(map[string]bool, len(items))

	if pol.FirstRun {
		for _, item := range items {
			if len(tasks) >= source.InitialLimit {
				break
			}
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			tasks = append(tasks, model.FetchTask{Item: item, Source: source})
		}
		stats.Planned = len(tasks)
		return tasks, stats
	}

	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true

		if pol.FilterShorts && item.IsShort(pol.ShortThresholdSeconds) {
			stats.SkippedShorts++
			continue
		}
		if hist.IsDownloaded(source.Key, item.ID) {
			stats.AlreadyDownloaded++
			continue
		}
		tasks = append(tasks, model.FetchTask{Item: item, Source: source})
	}
	stats.Planned = len(tasks)
	return tasks, stats
}
