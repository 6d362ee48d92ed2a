package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gatherly/eventkeeper/pkg/cli"
	"gatherly/eventkeeper/pkg/lifecycle"
	"gatherly/eventkeeper/pkg/retention"
	"gatherly/eventkeeper/pkg/store"

	"github.com/spf13/cobra"
)

var eventsFlags struct {
	format     string
	graceDays  int
	dataMonths int
	wallMonths int
	clearWall  bool
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect and manage event retention",
	Long: `Inspect the retention status of events and apply organizer requests.

Examples:
  # Show effective state and retention dates
  eventkeeper events show evt-123

  # Schedule a deletion with the default grace period, then cancel it
  eventkeeper events schedule-deletion evt-123
  eventkeeper events cancel-deletion evt-123

  # Keep data for 12 months and never sweep wall posts
  eventkeeper events retention evt-123 --data-months 12 --clear-wall

  # Load snapshots from a JSON file
  eventkeeper events import events.json`,
}

var eventsShowCmd = &cobra.Command{
	Use:   "show <event-id>",
	Short: "Show an event's lifecycle and retention status",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsShow,
}

var eventsScheduleDeletionCmd = &cobra.Command{
	Use:   "schedule-deletion <event-id>",
	Short: "Schedule permanent deletion after a grace period",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsScheduleDeletion,
}

var eventsCancelDeletionCmd = &cobra.Command{
	Use:   "cancel-deletion <event-id>",
	Short: "Cancel a scheduled deletion",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsCancelDeletion,
}

var eventsRetentionCmd = &cobra.Command{
	Use:   "retention <event-id>",
	Short: "Change an event's retention windows",
	Long: `Change an event's data or wall post retention window.

Changing the data retention window resets the retention notification, so the
organizer is notified again ahead of the new archival date.`,
	Args: cobra.ExactArgs(1),
	RunE: runEventsRetention,
}

var eventsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import event and wall post snapshots from JSON",
	Long: `Import event and wall post snapshots from a JSON file of the form

  {"events": [...], "wall_posts": [...]}

Existing events with the same id are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runEventsImport,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsShowCmd, eventsScheduleDeletionCmd, eventsCancelDeletionCmd, eventsRetentionCmd, eventsImportCmd)

	eventsShowCmd.Flags().StringVarP(&eventsFlags.format, "format", "f", "text", "output format: text, json, csv")
	eventsScheduleDeletionCmd.Flags().IntVar(&eventsFlags.graceDays, "grace-days", 0,
		fmt.Sprintf("grace period in days (%d-%d, 0 uses the configured default)", retention.MinGracePeriodDays, retention.MaxGracePeriodDays))
	eventsRetentionCmd.Flags().IntVar(&eventsFlags.dataMonths, "data-months", 0, "data retention window in months")
	eventsRetentionCmd.Flags().IntVar(&eventsFlags.wallMonths, "wall-months", 0, "wall post retention window in months")
	eventsRetentionCmd.Flags().BoolVar(&eventsFlags.clearWall, "clear-wall", false, "never sweep wall posts by age")
}

// withApp loads configuration, builds the app and runs fn with a
// signal-aware context.
func withApp(cmd *cobra.Command, name string, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := setupLogging(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return cli.NewCommandError(name, err)
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		return cli.NewCommandError(name, err)
	}
	return nil
}

func notFound(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("event %s not found", id)
	}
	return err
}

// eventStatus is an event snapshot with its derived lifecycle and
// retention values.
type eventStatus struct {
	lifecycle.EventSnapshot

	EffectiveState   lifecycle.State `json:"effective_state"`
	CanAcceptRSVPs   bool            `json:"can_accept_rsvps"`
	CanBeCancelled   bool            `json:"can_be_cancelled"`
	ArchivalDate     *time.Time      `json:"archival_date,omitempty"`
	NotificationDate *time.Time      `json:"notification_date,omitempty"`
}

func newEventStatus(e lifecycle.EventSnapshot, calc *retention.Calculator, now time.Time) eventStatus {
	resolver := calc.Policy().Resolver
	s := eventStatus{
		EventSnapshot:  e,
		EffectiveState: resolver.Resolve(e, now),
		CanAcceptRSVPs: resolver.CanAcceptRSVPs(e, now),
		CanBeCancelled: resolver.CanBeCancelled(e, now),
	}
	if archival, ok := calc.ArchivalDate(e, now); ok {
		s.ArchivalDate = &archival
	}
	if notifyAt, ok := calc.NotificationDate(e, now); ok {
		s.NotificationDate = &notifyAt
	}
	return s
}

func (s eventStatus) Header() []string {
	return []string{"FIELD", "VALUE"}
}

func (s eventStatus) Rows() [][]string {
	return [][]string{
		{"id", s.ID},
		{"title", s.Title},
		{"organizer", s.OrganizerID},
		{"stored_state", s.StoredState.String()},
		{"effective_state", s.EffectiveState.String()},
		{"start_at", formatTime(&s.StartAt)},
		{"end_at", formatTime(s.EndAt)},
		{"rsvp_deadline", formatTime(s.RSVPDeadline)},
		{"can_accept_rsvps", strconv.FormatBool(s.CanAcceptRSVPs)},
		{"can_be_cancelled", strconv.FormatBool(s.CanBeCancelled)},
		{"data_retention_months", strconv.Itoa(s.DataRetentionMonths)},
		{"wall_retention_months", formatMonths(s.WallRetentionMonths)},
		{"notification_date", formatTime(s.NotificationDate)},
		{"notification_sent_at", formatTime(s.RetentionNotificationSentAt)},
		{"archival_date", formatTime(s.ArchivalDate)},
		{"archived_at", formatTime(s.ArchivedAt)},
		{"scheduled_for_deletion_at", formatTime(s.ScheduledForDeletionAt)},
	}
}

func runEventsShow(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatterFor(eventsFlags.format)
	if err != nil {
		return err
	}

	return withApp(cmd, "events show", func(ctx context.Context, a *app) error {
		e, err := a.store.GetEvent(ctx, args[0])
		if err != nil {
			return notFound(args[0], err)
		}
		status := newEventStatus(e, a.planner.Calculator(), lifecycle.SystemClock{}.Now())
		return formatter.FormatTo(cmd.OutOrStdout(), status)
	})
}

func runEventsScheduleDeletion(cmd *cobra.Command, args []string) error {
	return withApp(cmd, "events schedule-deletion", func(ctx context.Context, a *app) error {
		at, err := a.executor.ScheduleDeletion(ctx, args[0], eventsFlags.graceDays)
		if err != nil {
			return notFound(args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Event %s scheduled for deletion at %s\n", args[0], formatTime(&at))
		return nil
	})
}

func runEventsCancelDeletion(cmd *cobra.Command, args []string) error {
	return withApp(cmd, "events cancel-deletion", func(ctx context.Context, a *app) error {
		if err := a.executor.CancelScheduledDeletion(ctx, args[0]); err != nil {
			return notFound(args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Scheduled deletion of event %s cancelled\n", args[0])
		return nil
	})
}

func runEventsRetention(cmd *cobra.Command, args []string) error {
	var settings lifecycle.RetentionSettings
	flags := cmd.Flags()
	if flags.Changed("data-months") {
		months := eventsFlags.dataMonths
		settings.DataRetentionMonths = &months
	}
	if flags.Changed("wall-months") {
		months := eventsFlags.wallMonths
		settings.WallRetentionMonths = &months
	}
	settings.ClearWallRetention = eventsFlags.clearWall && flags.Changed("clear-wall")

	if settings.DataRetentionMonths == nil && settings.WallRetentionMonths == nil && !settings.ClearWallRetention {
		return errors.New("nothing to change: set --data-months, --wall-months or --clear-wall")
	}

	return withApp(cmd, "events retention", func(ctx context.Context, a *app) error {
		updated, err := a.executor.UpdateRetentionSettings(ctx, args[0], settings)
		if err != nil {
			return notFound(args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Event %s retention: data %d months, wall %s months\n",
			updated.ID, updated.DataRetentionMonths, formatMonths(updated.WallRetentionMonths))
		return nil
	})
}

// importFile is the document read by events import.
type importFile struct {
	Events    []lifecycle.EventSnapshot    `json:"events"`
	WallPosts []lifecycle.WallPostSnapshot `json:"wall_posts"`
}

func runEventsImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var doc importFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	return withApp(cmd, "events import", func(ctx context.Context, a *app) error {
		for _, e := range doc.Events {
			if e.ID == "" {
				return errors.New("event without id")
			}
			if !e.StoredState.Valid() {
				return fmt.Errorf("event %s: unknown stored_state %q", e.ID, e.StoredState)
			}
			if err := a.store.SaveEvent(ctx, e); err != nil {
				return err
			}
		}
		for _, p := range doc.WallPosts {
			if err := a.store.SaveWallPost(ctx, p); err != nil {
				return fmt.Errorf("wall post %s: %w", p.ID, notFound(p.EventID, err))
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d events and %d wall posts\n", len(doc.Events), len(doc.WallPosts))
		return nil
	})
}
