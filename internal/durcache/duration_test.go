package durcache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"yt-feed-sync/internal/ytdlp"
)

type probeStub struct {
	durations map[string]string
	calls     int
}

func (p *probeStub) Capture(_ context.Context, name string, args ...string) (string, string, error) {
	p.calls++
	if name != "ffprobe" {
		return "", "", fmt.Errorf("unexpected tool %s", name)
	}
	path := args[len(args)-1]
	out, ok := p.durations[path]
	if !ok {
		return "", "", fmt.Errorf("probe failed for %s", path)
	}
	return out + "\n", "", nil
}

func (p *probeStub) Stream(string, []string, func(ytdlp.OutputStream, string)) error {
	return fmt.Errorf("stream not supported")
}

func TestProberUsesCacheOnSecondCall(t *testing.T) {
	dir := t.TempDir()
	media := writeMedia(t, dir, "a.mp4", "content")

	stub := &probeStub{durations: map[string]string{media: "90.5"}}
	prober := NewProber(stub, Load(filepath.Join(dir, "durations.json")))

	for i := 0; i < 2; i++ {
		secs, err := prober.Duration(context.Background(), media)
		if err != nil {
			t.Fatalf("Duration call %d: %v", i+1, err)
		}
		if secs != 90.5 {
			t.Fatalf("duration: got %v", secs)
		}
	}
	if stub.calls != 1 {
		t.Fatalf("expected a single probe, got %d", stub.calls)
	}
}

func TestDirectoryDurationSumsMediaFilesOnly(t *testing.T) {
	dir := t.TempDir()
	a := writeMedia(t, dir, "a.mp4", "aaa")
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	b := writeMedia(t, sub, "b.mp3", "bbb")
	writeMedia(t, dir, "notes.txt", "not media")

	stub := &probeStub{durations: map[string]string{a: "3600", b: "2700"}}
	cachePath := filepath.Join(dir, "durations.json")
	prober := NewProber(stub, Load(cachePath))

	stats, err := prober.DirectoryDuration(context.Background(), dir)
	if err != nil {
		t.Fatalf("DirectoryDuration: %v", err)
	}
	if stats.FileCount != 2 {
		t.Fatalf("file count: got %d", stats.FileCount)
	}
	if stats.TotalSeconds != 6300 {
		t.Fatalf("total seconds: got %v", stats.TotalSeconds)
	}
	if stats.Formatted != "1hr 45min" {
		t.Fatalf("formatted: got %q", stats.Formatted)
	}

	// The walk persists what it learned.
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("cache should have been saved: %v", err)
	}
}

func TestDirectoryDurationSkipsUnprobeableFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeMedia(t, dir, "a.mp4", "aaa")
	writeMedia(t, dir, "broken.mkv", "bbb")

	stub := &probeStub{durations: map[string]string{a: "26"}}
	prober := NewProber(stub, Load(filepath.Join(dir, "durations.json")))

	stats, err := prober.DirectoryDuration(context.Background(), dir)
	if err != nil {
		t.Fatalf("DirectoryDuration: %v", err)
	}
	if stats.FileCount != 1 || stats.Formatted != "26sec" {
		t.Fatalf("stats: %+v", stats)
	}
}

func TestFormatShort(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{seconds: 13500, want: "3hr 45min"},
		{seconds: 7200, want: "2hr"},
		{seconds: 266, want: "4min 26sec"},
		{seconds: 120, want: "2min"},
		{seconds: 26, want: "26sec"},
		{seconds: 0, want: "0sec"},
		{seconds: -1, want: "Unknown"},
	}
	for _, tt := range tests {
		if got := FormatShort(tt.seconds); got != tt.want {
			t.Errorf("FormatShort(%v): got %q want %q", tt.seconds, got, tt.want)
		}
	}
}
