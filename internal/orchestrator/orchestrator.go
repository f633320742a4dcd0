// Package orchestrator drives one full synchronization pass: scan, plan,
// download, commit.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"yt-feed-sync/internal/config"
	"yt-feed-sync/internal/feed"
	"yt-feed-sync/internal/logger"
	"yt-feed-sync/internal/model"
	"yt-feed-sync/internal/planner"
	"yt-feed-sync/internal/progress"
	"yt-feed-sync/internal/scheduler"
	"yt-feed-sync/internal/statestore"
	"yt-feed-sync/internal/ytdlp"
)

// SourceResult summarizes one source's share of a pass.
type SourceResult struct {
	Source            model.Source
	ScanFailed        bool
	Scanned           int
	SkippedShorts     int
	AlreadyDownloaded int
	Planned           int
	Succeeded         int
	Failed            int
}

// Result summarizes a whole pass for the CLI.
type Result struct {
	FirstRun  bool
	Sources   []SourceResult
	Planned   int
	Succeeded int
	Failed    int
}

type Orchestrator struct {
	cfg  *config.Config
	base *logger.Logger
	log  *logger.Logger
	inv  ytdlp.Invoker
	sink *progress.Sink
}

func New(cfg *config.Config, log *logger.Logger, inv ytdlp.Invoker, sink *progress.Sink) *Orchestrator {
	return &Orchestrator{cfg: cfg, base: log, log: log.WithComponent("orchestrator"), inv: inv, sink: sink}
}

// Sync runs one pass. All store mutations happen here, on the single
// goroutine consuming the scheduler's event stream, so the stores need no
// locking. Failed downloads are not retried within a pass; their resume
// entries survive for the next one.
func (o *Orchestrator) Sync(ctx context.Context) (*Result, error) {
	if err := ytdlp.CheckDependencies(); err != nil {
		return nil, err
	}

	if err := statestore.Mkdir(o.cfg.Paths.VideoDir); err != nil {
		return nil, err
	}
	paths := statestore.Paths{StateDir: o.cfg.Paths.StateDir}

	lock, err := statestore.AcquireArchiveLock(o.cfg.Paths.StateDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			o.log.Warn("release archive lock", "error", releaseErr)
		}
	}()

	o.housekeeping()

	history, err := statestore.LoadHistory(paths.History(), o.cfg.Sync.HistoryMaxEntries)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	resume, err := statestore.LoadResume(paths.Resume(), o.cfg.Download.ResumeRetentionDays)
	if err != nil {
		return nil, fmt.Errorf("load resume state: %w", err)
	}

	firstRun := !history.FirstRunCompleted()
	result := &Result{FirstRun: firstRun}
	o.log.Info("starting sync", "first_run", firstRun, "sources", len(o.cfg.Sources))

	scanner := feed.NewScanner(o.inv, o.base, feed.Options{
		QueryTimeout: o.cfg.QueryTimeout(),
		MaxRetries:   o.cfg.Scan.MaxRetries,
		RetryDelay:   o.cfg.RetryDelay(),
		FirstRun:     firstRun,
	})

	var tasks []model.FetchTask
	perSource := make(map[string]*SourceResult)
	for _, source := range o.cfg.SourceList() {
		sr := &SourceResult{Source: source}
		perSource[source.Key] = sr

		depth := planner.ScanDepth(firstRun, source.InitialLimit, o.cfg.Scan.GapCheckLimit, o.cfg.Scan.MaxPerSource)
		if depth <= 0 {
			o.log.Info("skipping source, scan limit is zero", "source", source.Key)
			continue
		}
		items, scanErr := scanner.Scan(ctx, source, depth)
		if scanErr != nil {
			o.log.Error("scan failed", "source", source.Key, "error", scanErr)
			sr.ScanFailed = true
			continue
		}

		planned, stats := planner.Plan(source, items, history, planner.Policy{
			FirstRun:              firstRun,
			FilterShorts:          o.cfg.Sync.FilterShorts,
			ShortThresholdSeconds: o.cfg.Sync.ShortThresholdSeconds,
		})
		sr.Scanned = stats.Scanned
		sr.SkippedShorts = stats.SkippedShorts
		sr.AlreadyDownloaded = stats.AlreadyDownloaded
		sr.Planned = stats.Planned
		tasks = append(tasks, planned...)
	}
	result.Planned = len(tasks)

	sched := scheduler.New(o.inv, o.sink, o.base, scheduler.Options{
		Workers:       o.cfg.Download.MaxParallel,
		VideoDir:      o.cfg.Paths.VideoDir,
		MaxResolution: o.cfg.Download.MaxResolution,
		KnownResume:   resume.Snapshot(),
	})

	for ev := range sched.Run(ctx, tasks) {
		switch ev.Kind {
		case scheduler.EventStarted:
			if ev.ResumeUsed {
				if putErr := resume.Put(ev.Task.Item.ID, ev.Resume); putErr != nil {
					o.log.Warn("persist resume entry", "item", ev.Task.Item.ID, "error", putErr)
				}
			}
		case scheduler.EventCompleted:
			o.commit(ev.Completion, history, resume, paths, perSource, result)
		}
	}

	// The initial population is considered done once its commits are on
	// disk, never before.
	if firstRun {
		if markErr := history.MarkFirstRunCompleted(); markErr != nil {
			return nil, fmt.Errorf("mark first run completed: %w", markErr)
		}
	}

	for _, source := range o.cfg.SourceList() {
		result.Sources = append(result.Sources, *perSource[source.Key])
	}

	o.log.Info("sync finished", "planned", result.Planned, "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

// commit applies one completion to the stores. Success appends to history,
// drops any resume entry, and refreshes the last-download snapshot; failure
// leaves the resume entry in place for the next pass.
func (o *Orchestrator) commit(
	c model.Completion,
	history *statestore.HistoryStore,
	resume *statestore.ResumeStore,
	paths statestore.Paths,
	perSource map[string]*SourceResult,
	result *Result,
) {
	sr := perSource[c.Task.Source.Key]

	if !c.Success {
		result.Failed++
		if sr != nil {
			sr.Failed++
		}
		o.log.Warn("download failed",
			"source", c.Task.Source.Key,
			"item", c.Task.Item.ID,
			"summary", c.ErrorSummary)
		return
	}

	if err := history.Append(c.Task.Source.Key, model.DownloadRecord{
		ID:    c.Task.Item.ID,
		Title: c.Task.Item.Title,
		URL:   c.Task.Item.URL,
	}); err != nil {
		o.log.Error("record download in history", "item", c.Task.Item.ID, "error", err)
	}
	if err := resume.Clear(c.Task.Item.ID); err != nil {
		o.log.Warn("clear resume entry", "item", c.Task.Item.ID, "error", err)
	}
	if err := statestore.SaveLastDownload(paths.LastDownload(), model.LastDownload{
		SourceKey:  c.Task.Source.Key,
		SourceName: c.Task.Source.DisplayName,
		ItemID:     c.Task.Item.ID,
		Title:      c.Task.Item.Title,
		URL:        c.Task.Item.URL,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		o.log.Warn("write last-download snapshot", "error", err)
	}

	result.Succeeded++
	if sr != nil {
		sr.Succeeded++
	}
}
