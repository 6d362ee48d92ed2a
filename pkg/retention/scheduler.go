package retention

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is the work a Scheduler runs on every tick.
type Job func(ctx context.Context)

// Scheduler runs a job on a cron schedule. Ticks that fire while the
// previous run is still in progress are skipped, and a panicking run is
// logged instead of crashing the process.
type Scheduler struct {
	job      Job
	logger   *slog.Logger
	location *time.Location

	mu       sync.Mutex
	cron     *cron.Cron
	entryID  cron.EntryID
	schedule string
	ctx      context.Context
	running  bool
}

// NewScheduler creates a scheduler for job. Schedules are evaluated in UTC.
func NewScheduler(job Job, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		job:      job,
		logger:   logger.With("component", "retention.scheduler"),
		location: time.UTC,
	}
}

// Start begins running the job on schedule, a standard 5-field cron
// expression or descriptor ("@daily", "@every 6h").
//
// Common cron expressions:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "0 */6 * * *"  - Every 6 hours
//   - "0 0 * * 0"    - Weekly on Sunday at midnight
//
// An empty schedule leaves the scheduler stopped. Jobs receive ctx, and
// the scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if schedule == "" {
		s.logger.Info("retention schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return &ScheduleError{Schedule: schedule, Cause: err}
	}

	cl := cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s.ctx = ctx

	id, err := s.cron.AddFunc(schedule, s.tick)
	if err != nil {
		return &ScheduleError{Schedule: schedule, Cause: err}
	}
	s.entryID = id
	s.schedule = schedule

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started", "schedule", schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Reschedule replaces the schedule of a running scheduler. A run already in
// progress is not interrupted.
func (s *Scheduler) Reschedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return &ScheduleError{Schedule: schedule, Cause: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || schedule == s.schedule {
		s.schedule = schedule
		return nil
	}

	id, err := s.cron.AddFunc(schedule, s.tick)
	if err != nil {
		return &ScheduleError{Schedule: schedule, Cause: err}
	}
	s.cron.Remove(s.entryID)
	s.entryID = id

	s.logger.Info("retention schedule updated", "previous", s.schedule, "schedule", schedule)
	s.schedule = schedule
	return nil
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return
	}
	s.job(ctx)
}

// Stop stops the scheduler and waits for a running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cron == nil || !s.running {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.running = false
	s.mu.Unlock()

	<-c.Stop().Done()
	s.logger.Info("retention scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Schedule returns the active cron expression.
func (s *Scheduler) Schedule() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.schedule
}

// NextRun returns the next scheduled run time, or nil when stopped.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil || !s.running {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	next := entry.Next
	if next.IsZero() {
		sched, err := cron.ParseStandard(s.schedule)
		if err != nil {
			return nil
		}
		next = sched.Next(time.Now().In(s.location))
	}
	return &next
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
