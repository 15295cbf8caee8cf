package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNoScheme        = errors.New("link has no URI scheme")
	ErrInvalidInterval = errors.New("interval must be a positive number of days")
	ErrInvalidTime     = errors.New("expected HH:MM")
)

// ValidateLink checks that the caption link carries a recognizable URI scheme
// prefix. Enforced at intake only; never re-checked later.
func ValidateLink(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "://") {
		return "", fmt.Errorf("%w: %q", ErrNoScheme, s)
	}
	return s, nil
}

// ParseIntervalDays parses the "publish every N days" answer.
func ParseIntervalDays(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, ErrInvalidInterval
	}
	return n, nil
}

// ParseTimeOfDay parses "HH:MM" into hour and minute. Seconds are not
// accepted.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, ErrInvalidTime
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: invalid hour", ErrInvalidTime)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: invalid minute", ErrInvalidTime)
	}
	return hour, minute, nil
}

// FormatTimeOfDay returns HH:MM for a schedule's publication slot.
func FormatTimeOfDay(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
