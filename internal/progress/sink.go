package progress

import (
	"sort"
	"sync"
)

// Snapshot is the last known transfer state of one job.
type Snapshot struct {
	JobID   string
	Title   string
	Percent float64
	Speed   string
	ETA     string
	Stage   string
}

const (
	StageQueued      = "queued"
	StageConnecting  = "connecting"
	StageDownloading = "downloading"
	StageConverting  = "converting"
	StageDone        = "done"
)

// Sink holds per-job snapshots behind a mutex so worker goroutines can
// publish and a display goroutine can read concurrently.
type Sink struct {
	mu   sync.Mutex
	jobs map[string]Snapshot
}

func NewSink() *Sink {
	return &Sink{jobs: make(map[string]Snapshot)}
}

func (s *Sink) Start(jobID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[jobID] = Snapshot{JobID: jobID, Title: title, Stage: StageQueued}
}

// Apply folds a classified output line into the job's snapshot. Events that
// carry no state for the display (KindNone, playlist markers) are ignored.
func (s *Sink) Apply(jobID string, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.jobs[jobID]
	if !ok {
		snap = Snapshot{JobID: jobID}
	}
	switch ev.Kind {
	case KindStarting:
		snap.Stage = StageConnecting
	case KindDownload:
		snap.Stage = StageDownloading
		if ev.Percent >= snap.Percent {
			snap.Percent = ev.Percent
		}
		snap.Speed = ev.Speed
		snap.ETA = ev.ETA
	case KindExtract, KindConverting:
		snap.Stage = StageConverting
	default:
		return
	}
	s.jobs[jobID] = snap
}

func (s *Sink) Finish(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.jobs[jobID]; ok {
		snap.Stage = StageDone
		snap.Percent = 100
		s.jobs[jobID] = snap
	}
}

func (s *Sink) Snapshot(jobID string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.jobs[jobID]
	return snap, ok
}

// All returns every job's snapshot, ordered by job ID for stable display.
func (s *Sink) All() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Snapshot, 0, len(s.jobs))
	for _, snap := range s.jobs {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID < out[j].JobID })
	return out
}
