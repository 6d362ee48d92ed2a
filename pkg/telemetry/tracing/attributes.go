package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on retention spans.
const (
	AttrRunID         = "eventkeeper.run_id"
	AttrPhase         = "eventkeeper.phase"
	AttrEventID       = "eventkeeper.event_id"
	AttrEventsScanned = "eventkeeper.events.scanned"
	AttrToSync        = "eventkeeper.plan.sync"
	AttrToNotify      = "eventkeeper.plan.notify"
	AttrToArchive     = "eventkeeper.plan.archive"
	AttrToDelete      = "eventkeeper.plan.delete"
	AttrWallPosts     = "eventkeeper.wall_posts.deleted"
	AttrFailed        = "eventkeeper.commands.failed"
)

// RunAttributes returns the attributes identifying a retention run phase.
func RunAttributes(runID, phase string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.String(AttrPhase, phase),
	}
}

// SetPlanAttributes records planner list sizes on span.
func SetPlanAttributes(span trace.Span, notify, archive, remove int) {
	span.SetAttributes(
		attribute.Int(AttrToNotify, notify),
		attribute.Int(AttrToArchive, archive),
		attribute.Int(AttrToDelete, remove),
	)
}
