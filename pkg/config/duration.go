package config

import (
	"fmt"
	"time"
)

// ValidatePositiveDuration rejects zero and negative durations. Use for
// windows, intervals, and timeouts that must actually elapse.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}

// ValidateNonNegativeDuration rejects negative durations; zero is fine.
// Use for optional delays where zero means "immediately".
func ValidateNonNegativeDuration(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("duration must be non-negative, got %v", d)
	}
	return nil
}

// ValidateDurationRange checks min <= d <= max, inclusive on both ends.
func ValidateDurationRange(d, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}
	if d < min {
		return fmt.Errorf("duration %v is below minimum %v", d, min)
	}
	if d > max {
		return fmt.Errorf("duration %v exceeds maximum %v", d, max)
	}
	return nil
}
