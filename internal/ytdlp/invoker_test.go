package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

func writeFakeTool(t *testing.T, name, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool harness requires a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write fake tool: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestCaptureReturnsBothStreams(t *testing.T) {
	writeFakeTool(t, "fake-tool", `echo "out line"
echo "err line" 1>&2
exit 0
`)

	stdout, stderr, err := ExecInvoker{}.Capture(context.Background(), "fake-tool")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !strings.Contains(stdout, "out line") {
		t.Fatalf("stdout missing: %q", stdout)
	}
	if !strings.Contains(stderr, "err line") {
		t.Fatalf("stderr missing: %q", stderr)
	}
}

func TestCaptureNonzeroExit(t *testing.T) {
	writeFakeTool(t, "fake-tool", `echo "boom" 1>&2
exit 3
`)

	_, stderr, err := ExecInvoker{}.Capture(context.Background(), "fake-tool")
	if err == nil {
		t.Fatal("expected error for nonzero exit")
	}
	if !strings.Contains(stderr, "boom") {
		t.Fatalf("stderr should still be returned: %q", stderr)
	}
}

func TestCaptureTimeout(t *testing.T) {
	writeFakeTool(t, "fake-tool", `sleep 5
`)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, _, err := ExecInvoker{}.Capture(ctx, "fake-tool")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout in error, got %v", err)
	}
}

func TestStreamDeliversLinesFromBothPipes(t *testing.T) {
	writeFakeTool(t, "fake-tool", `echo "progress 1"
printf 'cr-a\rcr-b\r'
echo ""
echo "ERROR: bad thing" 1>&2
exit 0
`)

	var mu sync.Mutex
	var lines []string
	err := ExecInvoker{}.Stream("fake-tool", nil, func(stream OutputStream, line string) {
		if line == "" {
			return
		}
		mu.Lock()
		lines = append(lines, string(stream)+":"+line)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	mu.Lock()
	joined := strings.Join(lines, "\n")
	mu.Unlock()
	for _, want := range []string{"stdout:progress 1", "stdout:cr-a", "stdout:cr-b", "stderr:ERROR: bad thing"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in delivered lines:\n%s", want, joined)
		}
	}
}

func TestStreamReportsExitFailure(t *testing.T) {
	writeFakeTool(t, "fake-tool", `exit 1
`)

	err := ExecInvoker{}.Stream("fake-tool", nil, func(OutputStream, string) {})
	if err == nil {
		t.Fatal("expected error for exit 1")
	}
}
