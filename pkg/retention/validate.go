package retention

import (
	"fmt"

	"gatherly/eventkeeper/pkg/lifecycle"
)

// ValidateGracePeriod checks an organizer-chosen deletion grace period.
func ValidateGracePeriod(days int) error {
	if days < MinGracePeriodDays || days > MaxGracePeriodDays {
		return NewValidationError("grace_period_days",
			fmt.Sprintf("must be between %d and %d, got %d", MinGracePeriodDays, MaxGracePeriodDays, days))
	}
	return nil
}

// ValidateRetentionSettings checks organizer-supplied retention windows.
func ValidateRetentionSettings(s lifecycle.RetentionSettings) error {
	if s.DataRetentionMonths != nil && *s.DataRetentionMonths < 1 {
		return NewValidationError("data_retention_months",
			fmt.Sprintf("must be a positive number of months, got %d", *s.DataRetentionMonths))
	}
	if s.WallRetentionMonths != nil && *s.WallRetentionMonths < 1 {
		return NewValidationError("wall_retention_months",
			fmt.Sprintf("must be a positive number of months, got %d", *s.WallRetentionMonths))
	}
	return nil
}
