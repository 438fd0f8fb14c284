package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts five-field cron expressions and descriptors such as "@every 15s" or "@hourly".
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule validates a cron expression or descriptor.
//
// Examples:
//   - "*/30 * * * *" (every 30 minutes)
//   - "@every 15s"
//   - "@hourly"
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("invalid schedule: cannot be empty")
	}
	if _, err := scheduleParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid schedule '%s': %w", schedule, err)
	}
	return nil
}

// ParseSchedule parses a schedule accepted by ValidateSchedule.
func ParseSchedule(schedule string) (cron.Schedule, error) {
	if err := ValidateSchedule(schedule); err != nil {
		return nil, err
	}
	return scheduleParser.Parse(schedule)
}
