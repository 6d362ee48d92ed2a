package lifecycle

import (
	"testing"
	"time"
)

// TestApplyRetentionSettings_ResetsNotification tests that moving the
// archival date clears the notification flag.
func TestApplyRetentionSettings_ResetsNotification(t *testing.T) {
	sentAt := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)
	e := EventSnapshot{
		ID:                          "evt-1",
		DataRetentionMonths:         24,
		RetentionNotificationSent:   true,
		RetentionNotificationSentAt: &sentAt,
	}

	got := ApplyRetentionSettings(e, RetentionSettings{DataRetentionMonths: ptr(36)})

	if got.DataRetentionMonths != 36 {
		t.Errorf("DataRetentionMonths = %d, want 36", got.DataRetentionMonths)
	}
	if got.RetentionNotificationSent {
		t.Error("RetentionNotificationSent = true, want false")
	}
	if got.RetentionNotificationSentAt != nil {
		t.Errorf("RetentionNotificationSentAt = %v, want nil", got.RetentionNotificationSentAt)
	}
	if !e.RetentionNotificationSent {
		t.Error("input snapshot was mutated")
	}
}

func TestApplyRetentionSettings_SameMonthsKeepsNotification(t *testing.T) {
	sentAt := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)
	e := EventSnapshot{
		DataRetentionMonths:         24,
		RetentionNotificationSent:   true,
		RetentionNotificationSentAt: &sentAt,
	}

	got := ApplyRetentionSettings(e, RetentionSettings{DataRetentionMonths: ptr(24), WallRetentionMonths: ptr(6)})

	if !got.RetentionNotificationSent || got.RetentionNotificationSentAt == nil {
		t.Error("notification reset although the archival date did not move")
	}
	if got.WallRetentionMonths == nil || *got.WallRetentionMonths != 6 {
		t.Errorf("WallRetentionMonths = %v, want 6", got.WallRetentionMonths)
	}
}

func TestApplyRetentionSettings_ClearWallRetention(t *testing.T) {
	e := EventSnapshot{DataRetentionMonths: 24, WallRetentionMonths: ptr(12)}

	got := ApplyRetentionSettings(e, RetentionSettings{ClearWallRetention: true})
	if got.WallRetentionMonths != nil {
		t.Errorf("WallRetentionMonths = %d, want nil", *got.WallRetentionMonths)
	}

	got = ApplyRetentionSettings(e, RetentionSettings{ClearWallRetention: true, WallRetentionMonths: ptr(3)})
	if got.WallRetentionMonths == nil || *got.WallRetentionMonths != 3 {
		t.Errorf("explicit months should win over clear, got %v", got.WallRetentionMonths)
	}
}
