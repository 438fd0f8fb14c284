package config

import (
	"fmt"
	"time"
)

// ValidatePositiveDuration rejects zero and negative durations.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}

// ValidateDurationRange checks lo <= d <= hi.
//
//	// NEWSAPI_TIMEOUT: at least 100ms, at most 5m
//	err := ValidateDurationRange(timeout, 100*time.Millisecond, 5*time.Minute)
func ValidateDurationRange(d, lo, hi time.Duration) error {
	switch {
	case lo > hi:
		return fmt.Errorf("invalid range: %v > %v", lo, hi)
	case d < lo:
		return fmt.Errorf("duration %v is below minimum %v", d, lo)
	case d > hi:
		return fmt.Errorf("duration %v exceeds maximum %v", d, hi)
	}
	return nil
}
