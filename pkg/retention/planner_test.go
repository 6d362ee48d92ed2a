package retention

import (
	"slices"
	"testing"
	"time"

	"gatherly/eventkeeper/pkg/lifecycle"
)

func TestPlan_DeletionReadiness(t *testing.T) {
	now := mustTime(t, "2026-02-01T03:00:00Z")
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	events := []lifecycle.EventSnapshot{
		{ID: "due", StoredState: lifecycle.StatePublished, StartAt: now.AddDate(0, 1, 0), ScheduledForDeletionAt: &past},
		{ID: "not-due", StoredState: lifecycle.StatePublished, StartAt: now.AddDate(0, 1, 0), ScheduledForDeletionAt: &future},
		{ID: "exact", StoredState: lifecycle.StateDraft, StartAt: now, ScheduledForDeletionAt: &now},
	}

	out := NewPlanner(nil).Plan(events, now)

	if !slices.Equal(out.ToDelete, []string{"due", "exact"}) {
		t.Errorf("ToDelete = %v, want [due exact]", out.ToDelete)
	}
}

func TestPlan_Selection(t *testing.T) {
	now := mustTime(t, "2026-01-20T00:00:00Z")
	end := mustTime(t, "2024-01-15T20:00:00Z")
	recentEnd := mustTime(t, "2025-12-20T20:00:00Z")
	sentAt := mustTime(t, "2025-12-16T03:00:00Z")
	archivedAt := mustTime(t, "2026-01-16T03:00:00Z")
	past := now.Add(-time.Hour)

	base := lifecycle.EventSnapshot{
		StoredState:         lifecycle.StateCompleted,
		StartAt:             end.Add(-3 * time.Hour),
		EndAt:               &end,
		DataRetentionMonths: 24,
	}

	with := func(id string, modify func(*lifecycle.EventSnapshot)) lifecycle.EventSnapshot {
		e := base
		e.ID = id
		modify(&e)
		return e
	}

	events := []lifecycle.EventSnapshot{
		// Archival passed, notice sent: archive.
		with("archive", func(e *lifecycle.EventSnapshot) {
			e.RetentionNotificationSent = true
			e.RetentionNotificationSentAt = &sentAt
		}),
		// Archival passed, notice never sent: notify first.
		with("notify-first", func(e *lifecycle.EventSnapshot) {}),
		// Inside the notice window only.
		with("notify", func(e *lifecycle.EventSnapshot) {
			e.DataRetentionMonths = 1
			e.EndAt = &recentEnd
		}),
		// Already archived.
		with("archived", func(e *lifecycle.EventSnapshot) {
			e.RetentionNotificationSent = true
			e.ArchivedAt = &archivedAt
		}),
		// Effectively completed but not synced: skipped by Plan.
		with("unsynced", func(e *lifecycle.EventSnapshot) { e.StoredState = lifecycle.StatePublished }),
		// Retention disabled.
		with("disabled", func(e *lifecycle.EventSnapshot) { e.DataRetentionMonths = 0 }),
		// Due for deletion and archival: deletion wins.
		with("delete", func(e *lifecycle.EventSnapshot) {
			e.RetentionNotificationSent = true
			e.ScheduledForDeletionAt = &past
		}),
	}

	out := NewPlanner(nil).Plan(events, now)

	if !slices.Equal(out.ToNotify, []string{"notify-first", "notify"}) {
		t.Errorf("ToNotify = %v", out.ToNotify)
	}
	if !slices.Equal(out.ToArchive, []string{"archive"}) {
		t.Errorf("ToArchive = %v", out.ToArchive)
	}
	if !slices.Equal(out.ToDelete, []string{"delete"}) {
		t.Errorf("ToDelete = %v", out.ToDelete)
	}
	if out.Len() != 4 || out.Empty() {
		t.Errorf("Len() = %d, Empty() = %v", out.Len(), out.Empty())
	}
}

func TestPlan_ListsAreDisjoint(t *testing.T) {
	start := mustTime(t, "2022-01-01T10:00:00Z")
	var events []lifecycle.EventSnapshot
	for i := 0; i < 48; i++ {
		end := start.AddDate(0, i, 0)
		e := lifecycle.EventSnapshot{
			ID:                        "evt-" + end.Format("2006-01"),
			StoredState:               lifecycle.StateCompleted,
			StartAt:                   end.Add(-time.Hour),
			EndAt:                     &end,
			DataRetentionMonths:       1 + i%24,
			RetentionNotificationSent: i%3 == 0,
		}
		if i%5 == 0 {
			at := end.AddDate(0, 2, 0)
			e.ScheduledForDeletionAt = &at
		}
		events = append(events, e)
	}

	planner := NewPlanner(nil)
	for now := start; now.Before(start.AddDate(5, 0, 0)); now = now.AddDate(0, 0, 17) {
		out := planner.Plan(events, now)

		seen := map[string]string{}
		for list, ids := range map[string][]string{"notify": out.ToNotify, "archive": out.ToArchive, "delete": out.ToDelete} {
			for _, id := range ids {
				if other, dup := seen[id]; dup {
					t.Fatalf("now=%s: %s in both %s and %s", now.Format(time.RFC3339), id, other, list)
				}
				seen[id] = list
			}
		}
	}
}

func TestPlanSync(t *testing.T) {
	now := mustTime(t, "2024-06-01T21:30:00Z")
	start := mustTime(t, "2024-06-01T18:00:00Z")
	later := mustTime(t, "2024-06-02T18:00:00Z")

	events := []lifecycle.EventSnapshot{
		{ID: "ended", StoredState: lifecycle.StatePublished, StartAt: start},
		{ID: "running", StoredState: lifecycle.StatePublished, StartAt: later},
		{ID: "already", StoredState: lifecycle.StateCompleted, StartAt: start},
		{ID: "draft", StoredState: lifecycle.StateDraft, StartAt: start},
		{ID: "cancelled", StoredState: lifecycle.StateCancelled, StartAt: start},
		{ID: "closed", StoredState: lifecycle.StateClosed, StartAt: start.Add(-24 * time.Hour)},
	}

	got := NewPlanner(nil).PlanSync(events, now)
	if !slices.Equal(got, []string{"ended", "closed"}) {
		t.Errorf("PlanSync() = %v, want [ended closed]", got)
	}
}

func TestPlanner_CustomPolicy(t *testing.T) {
	start := mustTime(t, "2024-06-01T18:00:00Z")
	e := lifecycle.EventSnapshot{ID: "short", StoredState: lifecycle.StatePublished, StartAt: start}

	planner := NewPlanner(NewCalculator(Policy{Resolver: lifecycle.Resolver{DefaultDuration: time.Hour}}))
	if got := planner.PlanSync([]lifecycle.EventSnapshot{e}, start.Add(90*time.Minute)); len(got) != 1 {
		t.Errorf("PlanSync() with 1h default duration = %v", got)
	}
	if NewPlanner(nil).Calculator() == nil {
		t.Error("Calculator() is nil")
	}
}

func TestPlan_ArchivalWaitsForNotice(t *testing.T) {
	end := mustTime(t, "2024-01-15T20:00:00Z")
	e := lifecycle.EventSnapshot{
		ID:                  "evt-1",
		StoredState:         lifecycle.StateCompleted,
		StartAt:             end.Add(-3 * time.Hour),
		EndAt:               &end,
		DataRetentionMonths: 24,
	}
	planner := NewPlanner(nil)

	// Runs whose notices were never recorded keep the event in ToNotify,
	// however long after the archival date they happen.
	for _, now := range []time.Time{
		mustTime(t, "2026-01-15T20:00:00Z"),
		mustTime(t, "2026-06-01T03:00:00Z"),
		mustTime(t, "2028-01-01T03:00:00Z"),
	} {
		out := planner.Plan([]lifecycle.EventSnapshot{e}, now)
		if !slices.Equal(out.ToNotify, []string{"evt-1"}) || len(out.ToArchive) != 0 {
			t.Errorf("now=%s: plan = %+v, want notify only", now.Format(time.RFC3339), out)
		}
	}

	sentAt := mustTime(t, "2028-01-01T03:00:00Z")
	e.RetentionNotificationSent = true
	e.RetentionNotificationSentAt = &sentAt
	out := planner.Plan([]lifecycle.EventSnapshot{e}, sentAt.Add(24*time.Hour))
	if !slices.Equal(out.ToArchive, []string{"evt-1"}) || len(out.ToNotify) != 0 {
		t.Errorf("after notice: plan = %+v, want archive only", out)
	}
}
