package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"NetPulse/pkg/uuidutil"
)

type Job func()

// Scheduler runs one-shot deferred jobs on background timers. It is a
// process-wide service with an explicit lifecycle: jobs can only be scheduled
// between Start and Stop, and Stop cancels everything still pending.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	logger  *slog.Logger
	running bool
}

func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		timers: make(map[string]*time.Timer),
		logger: logger,
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.logger.Info("scheduler started")
}

// Stop cancels all pending jobs. Jobs whose timers already fired keep
// running; Schedule calls after Stop are no-ops.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	s.running = false
	s.logger.Info("scheduler stopped")
}

// Schedule runs job once after delay and returns a handle usable with
// Cancel. On a stopped scheduler it returns an empty handle and does nothing.
func (s *Scheduler) Schedule(delay time.Duration, job Job) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Warn("schedule request on stopped scheduler, dropping job")
		return ""
	}

	id := uuidutil.New()
	s.timers[id] = time.AfterFunc(delay, func() {
		s.remove(id)
		job()
	})

	s.logger.Debug("job scheduled",
		"job_id", id,
		"delay", delay,
		"fire_at", time.Now().Add(delay).Format(time.RFC3339),
	)
	return id
}

// Cancel stops a pending job. It reports false when the job already fired,
// was cancelled before, or never existed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, exists := s.timers[id]
	if !exists {
		return false
	}
	delete(s.timers, id)
	return timer.Stop()
}

// PendingCount reports how many jobs are waiting to fire.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, id)
}
