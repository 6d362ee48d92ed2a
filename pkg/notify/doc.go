// Package notify hands retention notices off to the system that tells
// organizers their event data is about to be archived.
//
// The engine only records that a notice was handed off; delivery (email,
// push) belongs to whatever consumes the notices. Two backends exist:
// LogNotifier writes a structured log line, and KafkaNotifier produces one
// JSON record per notice, keyed by event id, with the trace context in the
// record headers.
package notify
