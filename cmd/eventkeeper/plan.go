package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"gatherly/eventkeeper/pkg/cli"
	"gatherly/eventkeeper/pkg/lifecycle"
	"gatherly/eventkeeper/pkg/retention"

	"github.com/spf13/cobra"
)

var planFlags struct {
	at     string
	format string
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview the next retention batch",
	Long: `Compute what a retention batch would do without changing anything.

Events that have ended but are not yet stored as completed are shown as
sync_completed and planned as if the sync had been applied, the same way a
real run plans after its sync phase.

Examples:
  # Preview a batch now
  eventkeeper plan

  # Preview a batch at a future instant, as CSV
  eventkeeper plan --at 2026-03-01T03:00:00Z --format csv`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVar(&planFlags.at, "at", "", "evaluate at this RFC3339 instant instead of now")
	planCmd.Flags().StringVarP(&planFlags.format, "format", "f", "text", "output format: text, json, csv")
}

func runPlan(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatterFor(planFlags.format)
	if err != nil {
		return err
	}

	at := lifecycle.SystemClock{}.Now()
	if planFlags.at != "" {
		at, err = time.Parse(time.RFC3339, planFlags.at)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
	}

	return withApp(cmd, "plan", func(ctx context.Context, a *app) error {
		preview, err := buildPlanPreview(ctx, a, at)
		if err != nil {
			return err
		}
		return formatter.FormatTo(cmd.OutOrStdout(), preview)
	})
}

// planPreview is the dry-run result of a retention batch.
type planPreview struct {
	At        time.Time               `json:"at"`
	ToSync    []string                `json:"to_sync"`
	Plan      retention.PlannerOutput `json:"plan"`
	WallPosts map[string][]string     `json:"wall_posts,omitempty"`

	events map[string]lifecycle.EventSnapshot
	calc   *retention.Calculator
}

// buildPlanPreview mirrors the phases of retention.Runner.Run against
// in-memory copies of the stored events.
func buildPlanPreview(ctx context.Context, a *app, at time.Time) (*planPreview, error) {
	events, err := a.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	p := &planPreview{
		At:     at.UTC(),
		events: make(map[string]lifecycle.EventSnapshot, len(events)),
		calc:   a.planner.Calculator(),
	}

	p.ToSync = a.planner.PlanSync(events, at)
	synced := make(map[string]bool, len(p.ToSync))
	for _, id := range p.ToSync {
		synced[id] = true
	}
	for i := range events {
		if synced[events[i].ID] {
			events[i].StoredState = lifecycle.StateCompleted
		}
		p.events[events[i].ID] = events[i]
	}

	p.Plan = a.planner.Plan(events, at)

	if !a.cfg.Retention.SweepWallPosts {
		return p, nil
	}
	deleted := make(map[string]bool, len(p.Plan.ToDelete))
	for _, id := range p.Plan.ToDelete {
		deleted[id] = true
	}
	for _, e := range events {
		if e.WallRetentionMonths == nil || deleted[e.ID] {
			continue
		}
		posts, err := a.store.ListWallPosts(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		if ids := retention.ExpiredWallPostIDs(e.ID, e.WallRetentionMonths, posts, at); len(ids) > 0 {
			if p.WallPosts == nil {
				p.WallPosts = make(map[string][]string)
			}
			p.WallPosts[e.ID] = ids
		}
	}
	return p, nil
}

func (p *planPreview) Header() []string {
	return []string{"COMMAND", "EVENT", "TITLE", "DETAIL"}
}

func (p *planPreview) Rows() [][]string {
	var rows [][]string
	add := func(command, id, detail string) {
		rows = append(rows, []string{command, id, p.events[id].Title, detail})
	}

	for _, id := range p.ToSync {
		add(retention.CommandSync, id, "ended "+formatTime(ptr(p.calc.Policy().Resolver.EffectiveEnd(p.events[id]))))
	}
	for _, id := range p.Plan.ToNotify {
		archival, _ := p.calc.ArchivalDate(p.events[id], p.At)
		add(retention.CommandNotify, id, "archives "+formatTime(&archival))
	}
	for _, id := range p.Plan.ToArchive {
		archival, _ := p.calc.ArchivalDate(p.events[id], p.At)
		add(retention.CommandArchive, id, "due "+formatTime(&archival))
	}
	for _, id := range p.Plan.ToDelete {
		add(retention.CommandDelete, id, "scheduled "+formatTime(p.events[id].ScheduledForDeletionAt))
	}
	for _, id := range slices.Sorted(maps.Keys(p.WallPosts)) {
		add(retention.CommandDeleteWallPost, id, strconv.Itoa(len(p.WallPosts[id]))+" posts")
	}
	return rows
}

func ptr[T any](v T) *T {
	return &v
}
