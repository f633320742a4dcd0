package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"yt-feed-sync/internal/config"
	"yt-feed-sync/internal/logger"
	"yt-feed-sync/internal/progress"
	"yt-feed-sync/internal/statestore"
	"yt-feed-sync/internal/ytdlp"
)

// fakeInvoker serves the feed scan and subtitle probe from canned data and
// scripts the download outcome. Real binaries are never executed; the PATH
// stub below only satisfies the startup dependency check.
type fakeInvoker struct {
	feedJSON  string
	streamErr error
	stderr    []string
	streams   int
}

func (f *fakeInvoker) Capture(_ context.Context, _ string, args ...string) (string, string, error) {
	joined := strings.Join(args, " ")
	if strings.Contains(joined, "--list-subs") {
		return "no subtitles", "", nil
	}
	if strings.Contains(joined, "--flat-playlist") {
		return f.feedJSON, "", nil
	}
	return "", "", fmt.Errorf("unexpected capture: %s", joined)
}

func (f *fakeInvoker) Stream(_ string, _ []string, onLine func(ytdlp.OutputStream, string)) error {
	f.streams++
	for _, line := range f.stderr {
		onLine(ytdlp.StreamStderr, line)
	}
	return f.streamErr
}

func stubYtdlpOnPath(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("PATH stub requires a POSIX shell")
	}
	dir := t.TempDir()
	for _, name := range []string{"yt-dlp", "ffmpeg", "ffprobe"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Paths.VideoDir = filepath.Join(t.TempDir(), "videos")
	cfg.Paths.StateDir = filepath.Join(t.TempDir(), "state")
	cfg.Scan.MaxRetries = 1
	cfg.Scan.RetryDelaySeconds = 0
	cfg.Cleanup.CleanupDays = 0
	if err := cfg.AddSource(config.SourceConfig{Key: "creator", Name: "Creator", Kind: "channel", InitialLimit: 2}); err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	return cfg
}

const feedThreeItems = `{"id":"v1","title":"Newest","uploader":"Creator","duration":30}
{"id":"v2","title":"Second","uploader":"Creator","duration":600}
{"id":"v3","title":"Third","uploader":"Creator","duration":900}
`

func runSync(t *testing.T, cfg *config.Config, inv ytdlp.Invoker) *Result {
	t.Helper()
	o := New(cfg, logger.Default(), inv, progress.NewSink())
	result, err := o.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	return result
}

func TestSyncFirstRunPopulatesAndMarksCompleted(t *testing.T) {
	stubYtdlpOnPath(t)
	cfg := testConfig(t)
	inv := &fakeInvoker{feedJSON: feedThreeItems}

	result := runSync(t, cfg, inv)

	if !result.FirstRun {
		t.Fatal("expected first-run pass")
	}
	// Initial population takes the 2 newest verbatim, short included.
	if result.Planned != 2 || result.Succeeded != 2 || result.Failed != 0 {
		t.Fatalf("result: %+v", result)
	}

	paths := statestore.Paths{StateDir: cfg.Paths.StateDir}
	history, err := statestore.LoadHistory(paths.History(), 0)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if !history.FirstRunCompleted() {
		t.Fatal("first-run flag should be set after the pass")
	}
	if !history.IsDownloaded("creator", "v1") || !history.IsDownloaded("creator", "v2") {
		t.Fatal("history should contain the populated items")
	}
	if history.IsDownloaded("creator", "v3") {
		t.Fatal("v3 is beyond the initial limit")
	}

	if snap, ok := statestore.LoadLastDownload(paths.LastDownload()); !ok || snap.SourceKey != "creator" {
		t.Fatalf("last-download snapshot: %+v ok=%v", snap, ok)
	}
}

func TestSyncSecondPassIsIdempotent(t *testing.T) {
	stubYtdlpOnPath(t)
	cfg := testConfig(t)
	inv := &fakeInvoker{feedJSON: feedThreeItems}

	runSync(t, cfg, inv)
	inv.streams = 0
	result := runSync(t, cfg, inv)

	if result.FirstRun {
		t.Fatal("second pass must not be a first run")
	}
	// v1 is a short now that steady-state filtering applies, v2 is in
	// history; only v3 is new work.
	if result.Planned != 1 || result.Succeeded != 1 {
		t.Fatalf("result: %+v", result)
	}
	if len(result.Sources) != 1 {
		t.Fatalf("sources: %+v", result.Sources)
	}
	sr := result.Sources[0]
	if sr.SkippedShorts != 1 || sr.AlreadyDownloaded != 1 {
		t.Fatalf("source stats: %+v", sr)
	}

	// A third pass finds nothing at all to do.
	inv.streams = 0
	result = runSync(t, cfg, inv)
	if result.Planned != 0 || inv.streams != 0 {
		t.Fatalf("third pass should be a no-op: %+v streams=%d", result, inv.streams)
	}
}

func TestSyncFailureDoesNotTouchHistory(t *testing.T) {
	stubYtdlpOnPath(t)
	cfg := testConfig(t)
	inv := &fakeInvoker{
		feedJSON:  feedThreeItems,
		stderr:    []string{"ERROR: This video is unavailable"},
		streamErr: fmt.Errorf("yt-dlp failed: exit status 1"),
	}

	result := runSync(t, cfg, inv)
	if result.Succeeded != 0 || result.Failed != 2 {
		t.Fatalf("result: %+v", result)
	}

	paths := statestore.Paths{StateDir: cfg.Paths.StateDir}
	history, err := statestore.LoadHistory(paths.History(), 0)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if history.IsDownloaded("creator", "v1") {
		t.Fatal("failed download must not enter history")
	}
	// The pass still completes, and the first-run flag still flips: the
	// initial population was attempted.
	if !history.FirstRunCompleted() {
		t.Fatal("first-run flag should be set even when downloads fail")
	}
}

func TestSyncRefusesConcurrentPass(t *testing.T) {
	stubYtdlpOnPath(t)
	cfg := testConfig(t)

	lock, err := statestore.AcquireArchiveLock(cfg.Paths.StateDir)
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			t.Fatalf("release: %v", err)
		}
	}()

	o := New(cfg, logger.Default(), &fakeInvoker{feedJSON: feedThreeItems}, progress.NewSink())
	if _, err := o.Sync(context.Background()); err == nil {
		t.Fatal("expected lock contention error")
	}
}

func TestSyncZeroLimitSourceSkippedGracefully(t *testing.T) {
	stubYtdlpOnPath(t)
	cfg := testConfig(t)
	cfg.Sources[0].InitialLimit = 0
	cfg.Scan.InitialPerSource = 0

	inv := &fakeInvoker{feedJSON: feedThreeItems}
	result := runSync(t, cfg, inv)
	if len(result.Sources) != 1 {
		t.Fatalf("sources: %+v", result.Sources)
	}
	sr := result.Sources[0]
	if sr.ScanFailed {
		t.Fatal("a zero limit is a skip, not a scan failure")
	}
	if sr.Scanned != 0 || result.Planned != 0 {
		t.Fatalf("skipped source must plan nothing: %+v", result)
	}
	if inv.streams != 0 {
		t.Fatalf("no downloads expected, got %d", inv.streams)
	}
}
