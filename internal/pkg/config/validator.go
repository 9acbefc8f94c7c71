package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidateCronSchedule parses schedule with the standard five-field cron
// format ("minute hour day month weekday"). The same parser the scheduler
// uses does the checking, so anything accepted here will also schedule.
func ValidateCronSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("invalid cron schedule: cannot be empty")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// ValidateTimezone checks that tz is a loadable IANA name ("UTC",
// "Asia/Tokyo"). Fails on valid names too when the system has no tzdata, so
// a failure here can mean a missing package in the image, not a typo.
func ValidateTimezone(tz string) error {
	if tz == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", tz, err)
	}
	return nil
}

// ValidateDuration checks min <= d <= max, inclusive.
func ValidateDuration(d, min, max time.Duration) error {
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

// ValidateIntRange checks min <= v <= max, inclusive.
func ValidateIntRange(v, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}
	if v < min {
		return fmt.Errorf("value %d is below minimum %d", v, min)
	}
	if v > max {
		return fmt.Errorf("value %d exceeds maximum %d", v, max)
	}
	return nil
}

// ValidatePositiveDuration rejects zero and negative durations.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}
