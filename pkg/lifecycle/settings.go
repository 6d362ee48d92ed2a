package lifecycle

// RetentionSettings is an organizer change to an event's retention windows.
// Nil fields are left unchanged.
type RetentionSettings struct {
	DataRetentionMonths *int `json:"data_retention_months,omitempty"`
	WallRetentionMonths *int `json:"wall_retention_months,omitempty"`

	// ClearWallRetention disables wall sweeping. Ignored when
	// WallRetentionMonths is set.
	ClearWallRetention bool `json:"clear_wall_retention,omitempty"`
}

// ChangesDataRetention reports whether applying s to e moves the archival date.
func (s RetentionSettings) ChangesDataRetention(e EventSnapshot) bool {
	return s.DataRetentionMonths != nil && *s.DataRetentionMonths != e.DataRetentionMonths
}

// ApplyRetentionSettings returns e with s applied. A changed data retention
// window clears the retention notification, since the notice was computed
// against the old archival date.
func ApplyRetentionSettings(e EventSnapshot, s RetentionSettings) EventSnapshot {
	if s.ChangesDataRetention(e) {
		e.DataRetentionMonths = *s.DataRetentionMonths
		e.RetentionNotificationSent = false
		e.RetentionNotificationSentAt = nil
	}

	switch {
	case s.WallRetentionMonths != nil:
		months := *s.WallRetentionMonths
		e.WallRetentionMonths = &months
	case s.ClearWallRetention:
		e.WallRetentionMonths = nil
	}

	return e
}
