package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

type OutputStream string

const (
	StreamStdout OutputStream = "stdout"
	StreamStderr OutputStream = "stderr"
)

// Invoker abstracts how external tools are executed so the feed scanner,
// scheduler, and duration cache can be exercised without real binaries.
type Invoker interface {
	// Capture runs the command to completion and returns both output
	// streams. The context bounds the whole invocation; on expiry the
	// process is killed and the error reports the timeout.
	Capture(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

	// Stream runs the command and delivers every output line through
	// onLine as it arrives, reading both pipes concurrently so neither
	// can stall the process. The returned error reflects the exit status
	// only; onLine has already seen all output.
	Stream(name string, args []string, onLine func(stream OutputStream, line string)) error
}

// ExecInvoker runs commands through os/exec.
type ExecInvoker struct{}

func (ExecInvoker) Capture(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return stdout.String(), stderr.String(), fmt.Errorf("%s timed out: %w", name, ctxErr)
	}
	if err != nil {
		return stdout.String(), stderr.String(), fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), stderr.String(), nil
}

func (ExecInvoker) Stream(name string, args []string, onLine func(stream OutputStream, line string)) error {
	cmd := exec.Command(name, args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("setup stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("setup stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	var wg sync.WaitGroup
	read := func(stream OutputStream, r interface{ Read([]byte) (int, error) }) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)
		scanner.Split(splitByNewlineOrCR)
		for scanner.Scan() {
			if onLine != nil {
				onLine(stream, scanner.Text())
			}
		}
	}

	wg.Add(2)
	go read(StreamStdout, stdoutPipe)
	go read(StreamStderr, stderrPipe)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

// splitByNewlineOrCR treats a bare carriage return as a line boundary so
// in-place progress updates arrive as individual lines.
func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i == 0 {
				return 1, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
