package retention

import (
	"time"

	"gatherly/eventkeeper/pkg/lifecycle"
)

// ExpiredWallPostIDs returns the ids of the event's wall posts created before
// now minus wallRetentionMonths calendar months. A nil or non-positive window
// disables sweeping. Posts belonging to other events are ignored.
func ExpiredWallPostIDs(eventID string, wallRetentionMonths *int, posts []lifecycle.WallPostSnapshot, now time.Time) []string {
	cutoff, ok := WallCutoff(now, wallRetentionMonths)
	if !ok {
		return nil
	}

	var expired []string
	for _, post := range posts {
		if post.EventID != eventID {
			continue
		}
		if post.CreatedAt.Before(cutoff) {
			expired = append(expired, post.ID)
		}
	}
	return expired
}
