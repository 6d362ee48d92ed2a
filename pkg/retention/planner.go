package retention

import (
	"time"

	"gatherly/eventkeeper/pkg/lifecycle"
)

// PlannerOutput holds the retention commands for one batch. The lists are
// disjoint: an event id appears in at most one of them.
type PlannerOutput struct {
	ToNotify  []string `json:"to_notify"`
	ToArchive []string `json:"to_archive"`
	ToDelete  []string `json:"to_delete"`
}

// Empty reports whether the plan contains no commands.
func (o PlannerOutput) Empty() bool {
	return len(o.ToNotify) == 0 && len(o.ToArchive) == 0 && len(o.ToDelete) == 0
}

// Len returns the total number of commands.
func (o PlannerOutput) Len() int {
	return len(o.ToNotify) + len(o.ToArchive) + len(o.ToDelete)
}

// Planner selects retention commands from event snapshots. It never touches
// storage; the executor applies its output.
type Planner struct {
	calc *Calculator
}

// NewPlanner creates a planner backed by calc. A nil calc uses the default policy.
func NewPlanner(calc *Calculator) *Planner {
	if calc == nil {
		calc = NewCalculator(DefaultPolicy())
	}
	return &Planner{calc: calc}
}

// Calculator returns the planner's calculator.
func (p *Planner) Calculator() *Calculator {
	return p.calc
}

// PlanSync returns the ids of events whose stored state should be persisted
// as completed.
//
// PlanSync output must be applied and committed before Plan runs against the
// same events: Plan selects on the stored completed state and silently skips
// events that have only effectively completed.
func (p *Planner) PlanSync(events []lifecycle.EventSnapshot, now time.Time) []string {
	var ids []string
	for _, e := range events {
		if _, ok := p.calc.policy.Resolver.SyncState(e, now); ok {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Plan selects the events to notify, archive and permanently delete at now.
//
// Deletion wins: an event due for deletion is neither notified nor archived.
// An event that is due for both notification and archival is only notified;
// a later run archives it once the notice has been recorded. Archival
// therefore waits on the notifier: while hand-offs keep failing, the claim is
// released each run and the event stays in ToNotify, and every such run ends
// partial with commands_total{command="notify",result="failed"} rising.
func (p *Planner) Plan(events []lifecycle.EventSnapshot, now time.Time) PlannerOutput {
	var out PlannerOutput

	for _, e := range events {
		if e.ScheduledForDeletionAt != nil && !now.Before(*e.ScheduledForDeletionAt) {
			out.ToDelete = append(out.ToDelete, e.ID)
			continue
		}

		if e.StoredState != lifecycle.StateCompleted || e.ArchivedAt != nil {
			continue
		}

		switch {
		case p.calc.ShouldNotify(e, now):
			out.ToNotify = append(out.ToNotify, e.ID)
		case p.calc.IsReadyForArchival(e, now):
			out.ToArchive = append(out.ToArchive, e.ID)
		}
	}

	return out
}
