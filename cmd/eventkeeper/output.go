package main

import (
	"encoding/json"
	"strconv"
	"time"

	"gatherly/eventkeeper/pkg/retention"
)

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatMonths(m *int) string {
	if m == nil {
		return "-"
	}
	return strconv.Itoa(*m)
}

// runReportTable renders a run report as one row per command kind.
type runReportTable struct {
	report *retention.RunReport
}

func (t runReportTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.report)
}

func (t runReportTable) Header() []string {
	return []string{"COMMAND", "PLANNED", "APPLIED", "SKIPPED", "FAILED"}
}

func (t runReportTable) Rows() [][]string {
	r := t.report
	row := func(name string, planned int, o retention.Outcome) []string {
		return []string{name, strconv.Itoa(planned), strconv.Itoa(o.Applied), strconv.Itoa(o.Skipped), strconv.Itoa(o.Failed)}
	}
	synced := r.Applied.Sync.Applied + r.Applied.Sync.Skipped + r.Applied.Sync.Failed
	return [][]string{
		row(retention.CommandSync, synced, r.Applied.Sync),
		row(retention.CommandNotify, len(r.Plan.ToNotify), r.Applied.Notify),
		row(retention.CommandArchive, len(r.Plan.ToArchive), r.Applied.Archive),
		row(retention.CommandDelete, len(r.Plan.ToDelete), r.Applied.Delete),
		{retention.CommandDeleteWallPost, "-", strconv.FormatInt(r.WallPostsDeleted, 10), "-", "-"},
	}
}
