package retention

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"gatherly/eventkeeper/pkg/lifecycle"
	"gatherly/eventkeeper/pkg/telemetry/logging"
	"gatherly/eventkeeper/pkg/telemetry/metrics"
	"gatherly/eventkeeper/pkg/telemetry/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Run phases, used in RunError and span names.
const (
	PhaseSync  = "sync"
	PhasePlan  = "plan"
	PhaseApply = "apply"
	PhaseSweep = "sweep"
)

// Source lists the snapshots a run plans over.
type Source interface {
	ListEvents(ctx context.Context) ([]lifecycle.EventSnapshot, error)
	ListWallPosts(ctx context.Context, eventID string) ([]lifecycle.WallPostSnapshot, error)
}

// Executor applies the side effects a run decides on. Implementations must
// be idempotent: the same command applied twice has the effect of one.
type Executor interface {
	SyncCompleted(ctx context.Context, ids []string) (Outcome, error)
	Apply(ctx context.Context, plan PlannerOutput) (*ApplyReport, error)
	DeleteWallPosts(ctx context.Context, eventID string, ids []string) (int64, error)
}

// SpanStarter starts tracing spans. Both trace.Tracer and *tracing.Tracer
// satisfy it.
type SpanStarter interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
}

// RunnerConfig controls batch runs.
type RunnerConfig struct {
	// Schedule is the cron expression used by Start. Empty disables scheduling.
	Schedule string

	// BatchTimeout bounds a single run. Zero means no timeout.
	BatchTimeout time.Duration

	// SweepWallPosts enables the wall post phase.
	SweepWallPosts bool
}

// Runner executes retention batches: persist completed states, plan, apply,
// then purge expired wall posts.
type Runner struct {
	source   Source
	executor Executor
	config   RunnerConfig
	clock    lifecycle.Clock
	metrics  *metrics.Collector
	tracer   SpanStarter
	logger   *slog.Logger

	scheduler *Scheduler

	mu          sync.RWMutex
	planner     *Planner
	lastSuccess time.Time
	lastReport  *RunReport
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithClock sets the clock used to evaluate "now" for each run.
func WithClock(clock lifecycle.Clock) RunnerOption {
	return func(r *Runner) { r.clock = clock }
}

// WithPlanner sets the planner (and therefore the retention policy).
func WithPlanner(p *Planner) RunnerOption {
	return func(r *Runner) { r.planner = p }
}

// WithMetrics records run and plan metrics on c.
func WithMetrics(c *metrics.Collector) RunnerOption {
	return func(r *Runner) { r.metrics = c }
}

// WithTracer emits one span per run and phase.
func WithTracer(t SpanStarter) RunnerOption {
	return func(r *Runner) { r.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner reading from source and writing through executor.
func NewRunner(source Source, executor Executor, cfg RunnerConfig, opts ...RunnerOption) *Runner {
	r := &Runner{
		source:   source,
		executor: executor,
		config:   cfg,
		clock:    lifecycle.SystemClock{},
		tracer:   noop.NewTracerProvider().Tracer(tracing.InstrumentationName),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.planner == nil {
		r.planner = NewPlanner(nil)
	}
	r.logger = r.logger.With("component", "retention.runner")
	r.scheduler = NewScheduler(r.runScheduled, r.logger)
	return r
}

// UpdatePolicy swaps the planner used by subsequent runs.
func (r *Runner) UpdatePolicy(p *Planner) {
	if p == nil {
		return
	}
	r.mu.Lock()
	r.planner = p
	r.mu.Unlock()
}

func (r *Runner) currentPlanner() *Planner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.planner
}

// Run executes one retention batch.
//
// Phases run in order: sync persists effectively completed events, plan
// re-lists events so the planner sees the synced states, apply executes the
// plan, and sweep purges expired wall posts of events that were not just
// deleted. Failing to list events aborts the run with a *RunError. Failures
// of individual commands do not; they are joined into the returned error,
// each wrapped in a *RunError naming its phase, and retried by the next run.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	if r.config.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.BatchTimeout)
		defer cancel()
	}

	now := r.clock.Now()
	planner := r.currentPlanner()
	report := &RunReport{RunID: runID, StartedAt: now}
	started := time.Now()

	ctx, span := r.tracer.Start(ctx, "retention.run",
		trace.WithAttributes(tracing.RunAttributes(runID, "run")...))
	defer span.End()

	r.logger.InfoContext(ctx, "retention run started", "now", now)

	var errs []error

	// Phase 1: persist completed states.
	syncErr, err := r.syncPhase(ctx, runID, planner, now, report)
	if err != nil {
		return r.finish(ctx, span, report, started, err, nil)
	}
	if syncErr != nil {
		errs = append(errs, syncErr)
	}

	// Phase 2: plan against the synced snapshots.
	events, err := r.planPhase(ctx, runID, planner, now, report)
	if err != nil {
		return r.finish(ctx, span, report, started, err, errs)
	}

	// Phase 3: apply.
	if err := r.applyPhase(ctx, runID, report); err != nil {
		errs = append(errs, err)
	}

	// Phase 4: wall posts.
	if r.config.SweepWallPosts {
		if err := r.sweepPhase(ctx, runID, events, now, report); err != nil {
			errs = append(errs, err)
		}
	}

	return r.finish(ctx, span, report, started, nil, errs)
}

func (r *Runner) syncPhase(ctx context.Context, runID string, planner *Planner, now time.Time, report *RunReport) (partial, fatal error) {
	ctx, span := r.tracer.Start(ctx, "retention.sync",
		trace.WithAttributes(tracing.RunAttributes(runID, PhaseSync)...))
	defer span.End()

	events, err := r.source.ListEvents(ctx)
	if err != nil {
		tracing.SetStatus(span, err)
		return nil, NewRunError(runID, PhaseSync, err)
	}

	ids := planner.PlanSync(events, now)
	span.SetAttributes(attribute.Int(tracing.AttrToSync, len(ids)))
	if len(ids) == 0 {
		return nil, nil
	}

	outcome, err := r.executor.SyncCompleted(ctx, ids)
	report.Applied.Sync.Add(outcome)
	if err != nil {
		tracing.SetStatus(span, err)
		r.logger.WarnContext(ctx, "some completed states were not persisted", "failed", outcome.Failed, "error", err)
		return NewRunError(runID, PhaseSync, err), nil
	}
	return nil, nil
}

func (r *Runner) planPhase(ctx context.Context, runID string, planner *Planner, now time.Time, report *RunReport) ([]lifecycle.EventSnapshot, error) {
	ctx, span := r.tracer.Start(ctx, "retention.plan",
		trace.WithAttributes(tracing.RunAttributes(runID, PhasePlan)...))
	defer span.End()

	events, err := r.source.ListEvents(ctx)
	if err != nil {
		tracing.SetStatus(span, err)
		return nil, NewRunError(runID, PhasePlan, err)
	}

	report.EventsScanned = len(events)
	report.Plan = planner.Plan(events, now)

	span.SetAttributes(attribute.Int(tracing.AttrEventsScanned, len(events)))
	tracing.SetPlanAttributes(span, len(report.Plan.ToNotify), len(report.Plan.ToArchive), len(report.Plan.ToDelete))
	r.metrics.RecordPlan(len(report.Plan.ToNotify), len(report.Plan.ToArchive), len(report.Plan.ToDelete))

	r.logger.DebugContext(ctx, "retention plan computed",
		"events", len(events),
		"to_notify", len(report.Plan.ToNotify),
		"to_archive", len(report.Plan.ToArchive),
		"to_delete", len(report.Plan.ToDelete),
	)
	return events, nil
}

func (r *Runner) applyPhase(ctx context.Context, runID string, report *RunReport) error {
	if report.Plan.Empty() {
		return nil
	}

	ctx, span := r.tracer.Start(ctx, "retention.apply",
		trace.WithAttributes(tracing.RunAttributes(runID, PhaseApply)...))
	defer span.End()

	applied, err := r.executor.Apply(ctx, report.Plan)
	report.Applied.Merge(applied)
	span.SetAttributes(attribute.Int(tracing.AttrFailed, report.Applied.Failed()))
	if err != nil {
		tracing.SetStatus(span, err)
		return NewRunError(runID, PhaseApply, err)
	}
	return nil
}

func (r *Runner) sweepPhase(ctx context.Context, runID string, events []lifecycle.EventSnapshot, now time.Time, report *RunReport) error {
	ctx, span := r.tracer.Start(ctx, "retention.sweep",
		trace.WithAttributes(tracing.RunAttributes(runID, PhaseSweep)...))
	defer span.End()

	deleted := make(map[string]struct{}, len(report.Plan.ToDelete))
	for _, id := range report.Plan.ToDelete {
		deleted[id] = struct{}{}
	}

	var errs []error
	for _, e := range events {
		if e.WallRetentionMonths == nil || *e.WallRetentionMonths <= 0 {
			continue
		}
		if _, gone := deleted[e.ID]; gone {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		posts, err := r.source.ListWallPosts(ctx, e.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		ids := ExpiredWallPostIDs(e.ID, e.WallRetentionMonths, posts, now)
		if len(ids) == 0 {
			continue
		}

		n, err := r.executor.DeleteWallPosts(ctx, e.ID, ids)
		report.WallPostsDeleted += n
		if err != nil {
			errs = append(errs, err)
		}
	}

	span.SetAttributes(attribute.Int64(tracing.AttrWallPosts, report.WallPostsDeleted))
	if len(errs) > 0 {
		err := errors.Join(errs...)
		tracing.SetStatus(span, err)
		return NewRunError(runID, PhaseSweep, err)
	}
	return nil
}

func (r *Runner) finish(ctx context.Context, span trace.Span, report *RunReport, started time.Time, fatal error, errs []error) (*RunReport, error) {
	report.Duration = time.Since(started)

	var err error
	status := metrics.StatusSuccess
	switch {
	case fatal != nil:
		status = metrics.StatusError
		err = errors.Join(append([]error{fatal}, errs...)...)
	case len(errs) > 0:
		status = metrics.StatusPartial
		err = errors.Join(errs...)
	}
	report.Status = status

	r.metrics.RecordRun(status, report.Duration, report.EventsScanned)
	tracing.SetStatus(span, err)

	r.mu.Lock()
	r.lastReport = report
	if status == metrics.StatusSuccess {
		r.lastSuccess = report.StartedAt
	}
	r.mu.Unlock()

	attrs := []any{
		"status", status,
		"duration", report.Duration,
		"events_scanned", report.EventsScanned,
		"synced", report.Applied.Sync.Applied,
		"notified", report.Applied.Notify.Applied,
		"archived", report.Applied.Archive.Applied,
		"deleted", report.Applied.Delete.Applied,
		"wall_posts_deleted", report.WallPostsDeleted,
		"failed", report.Applied.Failed(),
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "retention run finished with errors", append(attrs, "error", err)...)
	} else {
		r.logger.InfoContext(ctx, "retention run completed", attrs...)
	}

	return report, err
}

func (r *Runner) runScheduled(ctx context.Context) {
	_, _ = r.Run(ctx)
}

// LastSuccess returns the start time of the last run that finished without
// errors, or the zero time.
func (r *Runner) LastSuccess() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSuccess
}

// LastReport returns the report of the most recent run, or nil.
func (r *Runner) LastReport() *RunReport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastReport
}

// Start runs batches on the configured schedule until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	return r.scheduler.Start(ctx, r.config.Schedule)
}

// Reschedule changes the cron schedule of a started runner.
func (r *Runner) Reschedule(schedule string) error {
	return r.scheduler.Reschedule(schedule)
}

// Stop stops scheduled runs and waits for a run in progress.
func (r *Runner) Stop() {
	r.scheduler.Stop()
}

// IsRunning reports whether scheduled runs are active.
func (r *Runner) IsRunning() bool {
	return r.scheduler.IsRunning()
}

// NextRun returns the next scheduled run time, or nil.
func (r *Runner) NextRun() *time.Time {
	return r.scheduler.NextRun()
}
