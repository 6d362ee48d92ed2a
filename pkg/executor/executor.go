package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gatherly/eventkeeper/pkg/lifecycle"
	"gatherly/eventkeeper/pkg/notify"
	"gatherly/eventkeeper/pkg/retention"
	"gatherly/eventkeeper/pkg/store"
	"gatherly/eventkeeper/pkg/telemetry/logging"
	"gatherly/eventkeeper/pkg/telemetry/metrics"
)

// Executor applies retention commands through a store and a notifier.
type Executor struct {
	store      store.Store
	notifier   notify.Notifier
	calculator *retention.Calculator
	clock      lifecycle.Clock
	metrics    *metrics.Collector
	logger     *slog.Logger
	graceDays  int
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock sets the clock used to timestamp writes.
func WithClock(c lifecycle.Clock) Option {
	return func(e *Executor) { e.clock = c }
}

// WithCalculator sets the calculator used to fill in archival dates of notices.
func WithCalculator(c *retention.Calculator) Option {
	return func(e *Executor) { e.calculator = c }
}

// WithMetrics records command outcomes on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Executor) { e.metrics = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithDefaultGracePeriod sets the grace period used when ScheduleDeletion is
// called with zero days.
func WithDefaultGracePeriod(days int) Option {
	return func(e *Executor) { e.graceDays = days }
}

// New creates an executor. A nil notifier logs notices.
func New(s store.Store, n notify.Notifier, opts ...Option) *Executor {
	e := &Executor{
		store:      s,
		notifier:   n,
		calculator: retention.NewCalculator(retention.DefaultPolicy()),
		clock:      lifecycle.SystemClock{},
		logger:     slog.Default(),
		graceDays:  retention.DefaultGracePeriodDays,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "executor")
	if e.notifier == nil {
		e.notifier = notify.NewLogNotifier(e.logger)
	}
	return e
}

// SyncCompleted persists the completed state of the given events.
func (e *Executor) SyncCompleted(ctx context.Context, ids []string) (retention.Outcome, error) {
	return e.each(ctx, retention.CommandSync, ids, func(ctx context.Context, id string) (bool, error) {
		return e.store.MarkCompleted(ctx, id)
	})
}

// Apply executes a plan. A failing command does not stop the others; all
// failures are returned joined, each as a *CommandError.
func (e *Executor) Apply(ctx context.Context, plan retention.PlannerOutput) (*retention.ApplyReport, error) {
	report := &retention.ApplyReport{}
	var errs []error

	var err error
	report.Notify, err = e.each(ctx, retention.CommandNotify, plan.ToNotify, e.notify)
	errs = append(errs, err)

	report.Archive, err = e.each(ctx, retention.CommandArchive, plan.ToArchive, func(ctx context.Context, id string) (bool, error) {
		return e.store.Archive(ctx, id, e.clock.Now())
	})
	errs = append(errs, err)

	report.Delete, err = e.each(ctx, retention.CommandDelete, plan.ToDelete, func(ctx context.Context, id string) (bool, error) {
		return e.store.PermanentlyDelete(ctx, id)
	})
	errs = append(errs, err)

	return report, errors.Join(errs...)
}

// each applies fn to every id and tallies the outcome. fn reports whether it
// changed anything; false means the command was already applied.
func (e *Executor) each(ctx context.Context, command string, ids []string, fn func(ctx context.Context, id string) (bool, error)) (retention.Outcome, error) {
	var (
		out  retention.Outcome
		errs []error
	)
	for _, id := range ids {
		cctx := logging.WithCommand(logging.WithEventID(ctx, id), command)

		applied, err := func() (bool, error) {
			if err := ctx.Err(); err != nil {
				return false, err
			}
			return fn(cctx, id)
		}()

		switch {
		case err != nil:
			out.Failed++
			errs = append(errs, NewCommandError(command, id, err))
			e.metrics.RecordCommand(command, metrics.ResultFailed)
			e.logger.WarnContext(cctx, "retention command failed", "error", err)
		case applied:
			out.Applied++
			e.metrics.RecordCommand(command, metrics.ResultApplied)
			e.logger.DebugContext(cctx, "retention command applied")
		default:
			out.Skipped++
			e.metrics.RecordCommand(command, metrics.ResultSkipped)
			e.logger.DebugContext(cctx, "retention command already applied")
		}
	}
	return out, errors.Join(errs...)
}

// notify claims the notification, hands it off and releases the claim if
// the hand-off fails.
func (e *Executor) notify(ctx context.Context, id string) (bool, error) {
	event, err := e.store.GetEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	at := e.clock.Now()
	claimed, err := e.store.MarkNotified(ctx, id, at)
	if err != nil || !claimed {
		return false, err
	}

	archival, _ := e.calculator.ArchivalDate(event, at)
	notice := notify.Notice{
		EventID:             event.ID,
		OrganizerID:         event.OrganizerID,
		Title:               event.Title,
		ArchivalDate:        archival,
		DataRetentionMonths: event.DataRetentionMonths,
		SentAt:              at,
	}

	if err := e.notifier.NotifyRetention(ctx, notice); err != nil {
		// The claim must be released even if ctx is what failed the hand-off.
		if _, relErr := e.store.ReleaseNotification(context.WithoutCancel(ctx), id, at); relErr != nil {
			return false, errors.Join(err, relErr)
		}
		return false, err
	}
	return true, nil
}

// DeleteWallPosts deletes expired wall posts of one event.
func (e *Executor) DeleteWallPosts(ctx context.Context, eventID string, ids []string) (int64, error) {
	ctx = logging.WithCommand(logging.WithEventID(ctx, eventID), retention.CommandDeleteWallPost)

	n, err := e.store.DeleteWallPosts(ctx, eventID, ids)
	e.metrics.RecordWallPostsDeleted(int(n))
	if err != nil {
		e.metrics.RecordCommand(retention.CommandDeleteWallPost, metrics.ResultFailed)
		e.logger.WarnContext(ctx, "wall post deletion failed", "posts", len(ids), "error", err)
		return n, NewCommandError(retention.CommandDeleteWallPost, eventID, err)
	}
	e.metrics.RecordCommand(retention.CommandDeleteWallPost, metrics.ResultApplied)
	e.logger.DebugContext(ctx, "wall posts deleted", "deleted", n)
	return n, nil
}

// ScheduleDeletion schedules permanent deletion of an event after
// graceDays days. Zero uses the default grace period.
func (e *Executor) ScheduleDeletion(ctx context.Context, id string, graceDays int) (time.Time, error) {
	if graceDays == 0 {
		graceDays = e.graceDays
	}
	if err := retention.ValidateGracePeriod(graceDays); err != nil {
		return time.Time{}, err
	}

	at := retention.DeletionDate(e.clock.Now(), graceDays)
	if err := e.store.ScheduleDeletion(ctx, id, at); err != nil {
		return time.Time{}, NewCommandError("schedule_deletion", id, err)
	}

	e.logger.InfoContext(logging.WithEventID(ctx, id), "event deletion scheduled",
		"delete_at", at, "grace_period_days", graceDays)
	return at, nil
}

// CancelScheduledDeletion cancels a scheduled deletion.
func (e *Executor) CancelScheduledDeletion(ctx context.Context, id string) error {
	if err := e.store.CancelScheduledDeletion(ctx, id); err != nil {
		return NewCommandError("cancel_deletion", id, err)
	}
	e.logger.InfoContext(logging.WithEventID(ctx, id), "scheduled deletion cancelled")
	return nil
}

// UpdateRetentionSettings validates and applies organizer retention settings.
func (e *Executor) UpdateRetentionSettings(ctx context.Context, id string, settings lifecycle.RetentionSettings) (lifecycle.EventSnapshot, error) {
	if err := retention.ValidateRetentionSettings(settings); err != nil {
		return lifecycle.EventSnapshot{}, err
	}

	before, err := e.store.GetEvent(ctx, id)
	if err != nil {
		return lifecycle.EventSnapshot{}, NewCommandError("update_retention", id, err)
	}
	updated, err := e.store.UpdateRetentionSettings(ctx, id, settings)
	if err != nil {
		return lifecycle.EventSnapshot{}, NewCommandError("update_retention", id, err)
	}

	e.logger.InfoContext(logging.WithEventID(ctx, id), "retention settings updated",
		"data_retention_months", updated.DataRetentionMonths,
		"notification_reset", before.RetentionNotificationSent && settings.ChangesDataRetention(before))
	return updated, nil
}
