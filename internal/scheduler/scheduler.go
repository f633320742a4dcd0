// Package scheduler runs planned download tasks on a bounded worker pool
// and reports everything it does as an event stream.
package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"yt-feed-sync/internal/logger"
	"yt-feed-sync/internal/model"
	"yt-feed-sync/internal/progress"
	"yt-feed-sync/internal/ytdlp"
)

// MinResumeBytes is the partial-artifact threshold: anything smaller is
// treated as a stub not worth resuming.
const MinResumeBytes = 1024 * 1024

const subsProbeTimeout = 30 * time.Second

type EventKind int

const (
	// EventStarted announces a job before its tool invocation. When the
	// job resumes a partial transfer it carries the proposed resume entry.
	EventStarted EventKind = iota
	// EventProgress surfaces one classified output line.
	EventProgress
	// EventCompleted is the job's single terminal event.
	EventCompleted
)

type Event struct {
	Kind       EventKind
	JobID      string
	Task       model.FetchTask
	ResumeUsed bool
	Resume     model.ResumeEntry
	Progress   progress.Event
	Completion model.Completion
}

// Options configures a scheduler for one synchronization pass.
type Options struct {
	Workers       int
	VideoDir      string
	MaxResolution string
	// KnownResume is a read-only snapshot of persisted resume entries,
	// taken before the pass starts.
	KnownResume map[string]model.ResumeEntry
}

type Scheduler struct {
	inv  ytdlp.Invoker
	sink *progress.Sink
	log  *logger.Logger
	opts Options
}

func New(inv ytdlp.Invoker, sink *progress.Sink, log *logger.Logger, opts Options) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Scheduler{inv: inv, sink: sink, log: log.WithComponent("scheduler"), opts: opts}
}

// Run executes all tasks on the worker pool and returns the event stream.
// The channel carries exactly one EventCompleted per task and is closed
// once every worker has drained. Once the context is cancelled no further
// downloads start: in-flight invocations run to completion, every task
// still queued fails with an interruption summary. The scheduler never
// touches persistent state; committing completions is the consumer's job.
func (s *Scheduler) Run(ctx context.Context, tasks []model.FetchTask) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		jobs := make(chan model.FetchTask)
		var wg sync.WaitGroup
		for i := 0; i < s.opts.Workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for task := range jobs {
					if ctx.Err() != nil {
						s.abortTask(task, events)
						continue
					}
					s.runTask(ctx, task, events)
				}
			}()
		}

	dispatch:
		for i, task := range tasks {
			if ctx.Err() != nil {
				s.abortRemaining(tasks[i:], events)
				break dispatch
			}
			select {
			case jobs <- task:
			case <-ctx.Done():
				s.abortRemaining(tasks[i:], events)
				break dispatch
			}
		}
		close(jobs)
		wg.Wait()
	}()

	return events
}

func (s *Scheduler) abortRemaining(tasks []model.FetchTask, events chan<- Event) {
	for _, task := range tasks {
		s.abortTask(task, events)
	}
}

// abortTask emits the terminal event for a task the pass was interrupted
// before dispatching. No tool ran, so any persisted resume entry stays as
// it was, exactly like an ordinary failure.
func (s *Scheduler) abortTask(task model.FetchTask, events chan<- Event) {
	jobID := uuid.NewString()
	s.log.WithJob(jobID, task.Item.ID).Warn("download skipped, pass interrupted", "title", task.Item.Title)
	events <- Event{
		Kind:  EventCompleted,
		JobID: jobID,
		Task:  task,
		Completion: model.Completion{
			JobID:        jobID,
			Task:         task,
			Success:      false,
			ErrorSummary: "interrupted before start",
		},
	}
}

func (s *Scheduler) runTask(ctx context.Context, task model.FetchTask, events chan<- Event) {
	jobID := uuid.NewString()
	log := s.log.WithJob(jobID, task.Item.ID)
	s.sink.Start(jobID, task.Item.Title)

	resume := s.shouldResume(task)
	started := Event{Kind: EventStarted, JobID: jobID, Task: task, ResumeUsed: resume}
	if resume {
		started.Resume = model.ResumeEntry{
			ProgressPercent: s.artifactPercent(task),
			SourceKey:       task.Source.Key,
			Kind:            task.Source.Kind,
			URL:             task.Item.URL,
			Title:           task.Item.Title,
		}
	}
	events <- started

	subsAvailable := s.subtitlesAvailable(ctx, task.Item.URL)
	log.Info("starting download", "title", task.Item.Title, "resume", resume, "subtitles", subsAvailable)

	success, summary := s.invoke(jobID, task, events, resume, subsAvailable)

	// A failure blamed on subtitles (or rate limiting while fetching them)
	// gets one more attempt with subtitles disabled.
	if !success && subsAvailable && subtitleFailure(summary) {
		log.Warn("subtitle failure, retrying without subtitles", "summary", summary)
		success, summary = s.invoke(jobID, task, events, resume, false)
	}

	if success {
		summary = ""
		if subsAvailable {
			s.cleanupSubtitleArtifacts(task.Item.Title)
		}
		log.Info("download complete")
	} else {
		log.Error("download failed", "summary", summary)
	}

	s.sink.Finish(jobID)
	events <- Event{
		Kind:  EventCompleted,
		JobID: jobID,
		Task:  task,
		Completion: model.Completion{
			JobID:        jobID,
			Task:         task,
			Success:      success,
			ResumeUsed:   resume,
			ErrorSummary: summary,
		},
	}
}

// invoke runs one tool invocation, forwarding classified output lines as
// progress events. Success requires exit 0 and a stderr free of ERROR lines;
// the tool sometimes exits 0 after logging a fatal error.
func (s *Scheduler) invoke(jobID string, task model.FetchTask, events chan<- Event, resume, subtitles bool) (bool, string) {
	args := ytdlp.DownloadArgs(ytdlp.DownloadSpec{
		URL:            task.Item.URL,
		OutputTemplate: s.outputTemplate(),
		MaxHeight:      s.opts.MaxResolution,
		Resume:         resume,
		Subtitles:      subtitles,
	})

	var mu sync.Mutex
	var stderrTail []string
	errorSeen := false

	err := s.inv.Stream("yt-dlp", args, func(stream ytdlp.OutputStream, line string) {
		if stream == ytdlp.StreamStderr {
			mu.Lock()
			if strings.Contains(line, "ERROR:") {
				errorSeen = true
			}
			stderrTail = append(stderrTail, line)
			if len(stderrTail) > 5 {
				stderrTail = stderrTail[1:]
			}
			mu.Unlock()
		}

		if ev := progress.ParseLine(line); ev.Kind != progress.KindNone {
			s.sink.Apply(jobID, ev)
			events <- Event{Kind: EventProgress, JobID: jobID, Task: task, Progress: ev}
		}
	})

	mu.Lock()
	defer mu.Unlock()
	summary := strings.TrimSpace(strings.Join(stderrTail, "\n"))
	if err != nil && summary == "" {
		summary = err.Error()
	}
	return err == nil && !errorSeen, summary
}

// shouldResume reports whether a prior transfer for this item is worth
// picking up: either a partial artifact on disk or a persisted resume entry,
// as long as the artifact probe does not say the file is already complete.
func (s *Scheduler) shouldResume(task model.FetchTask) bool {
	found, percent := ProbeArtifact(s.opts.VideoDir, task.Item.Title)
	if found && percent < 100 {
		return true
	}
	if _, known := s.opts.KnownResume[task.Item.ID]; known && percent < 100 {
		return true
	}
	return false
}

func (s *Scheduler) artifactPercent(task model.FetchTask) int {
	if _, percent := ProbeArtifact(s.opts.VideoDir, task.Item.Title); percent > 0 {
		return percent
	}
	if entry, ok := s.opts.KnownResume[task.Item.ID]; ok {
		return entry.ProgressPercent
	}
	return 0
}

func (s *Scheduler) subtitlesAvailable(ctx context.Context, url string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, subsProbeTimeout)
	defer cancel()
	stdout, _, err := s.inv.Capture(probeCtx, "yt-dlp", ytdlp.ListSubsArgs(url)...)
	if err != nil {
		return false
	}
	return ytdlp.HasSubtitles(stdout)
}

func (s *Scheduler) outputTemplate() string {
	return s.opts.VideoDir + "/%(title)s.%(ext)s"
}

func subtitleFailure(summary string) bool {
	return strings.Contains(strings.ToLower(summary), "subtitles") || strings.Contains(summary, "429")
}
