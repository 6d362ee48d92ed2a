// Eventkeeper runs the event lifecycle and data-retention engine.
//
// It derives effective event states from the clock, persists completed
// states, notifies organizers before their event data is archived, archives
// expired events, executes scheduled deletions and purges old wall posts.
//
// Usage:
//
//	# Run the scheduler with the ops server (metrics, health)
//	eventkeeper run --config /etc/eventkeeper/config.yaml
//
//	# Run a single batch from an external scheduler
//	eventkeeper run --once
//
//	# Preview what the next batch would do
//	eventkeeper plan --format csv
//
//	# Schedule an event for deletion in 14 days
//	eventkeeper events schedule-deletion evt-123 --grace-days 14
package main

import "os"

func main() {
	os.Exit(Execute())
}
