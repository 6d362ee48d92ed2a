package retention

import "time"

// Command names used in reports, logs and metrics.
const (
	CommandSync           = "sync_completed"
	CommandNotify         = "notify"
	CommandArchive        = "archive"
	CommandDelete         = "delete"
	CommandDeleteWallPost = "delete_wall_posts"
)

// Outcome counts the results of one kind of command.
type Outcome struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"` // already applied elsewhere
	Failed  int `json:"failed"`
}

// Add accumulates o2 into o.
func (o *Outcome) Add(o2 Outcome) {
	o.Applied += o2.Applied
	o.Skipped += o2.Skipped
	o.Failed += o2.Failed
}

// ApplyReport summarizes what an executor did with a batch of commands.
type ApplyReport struct {
	Sync    Outcome `json:"sync"`
	Notify  Outcome `json:"notify"`
	Archive Outcome `json:"archive"`
	Delete  Outcome `json:"delete"`
}

// Merge accumulates other into r.
func (r *ApplyReport) Merge(other *ApplyReport) {
	if other == nil {
		return
	}
	r.Sync.Add(other.Sync)
	r.Notify.Add(other.Notify)
	r.Archive.Add(other.Archive)
	r.Delete.Add(other.Delete)
}

// Failed returns the total number of failed commands.
func (r *ApplyReport) Failed() int {
	return r.Sync.Failed + r.Notify.Failed + r.Archive.Failed + r.Delete.Failed
}

// RunReport summarizes one retention run.
type RunReport struct {
	RunID            string        `json:"run_id"`
	Status           string        `json:"status"` // success, partial or error
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
	EventsScanned    int           `json:"events_scanned"`
	Plan             PlannerOutput `json:"plan"`
	Applied          ApplyReport   `json:"applied"`
	WallPostsDeleted int64         `json:"wall_posts_deleted"`
}
