package domain

import "time"

// PublicationSchedule is the single recurring publication plan of one user.
// The store keys it by UserID; at most one exists per user at any time.
type PublicationSchedule struct {
	UserID       int64
	MediaFileID  string // Telegram file id, resolved to bytes at publish time
	Link         string // caption attached to the publication, scheme-checked at intake
	Hour         int    // publication time-of-day in the reference timezone
	Minute       int
	IntervalDays int       // days between occurrences, >= 1
	CancelNext   bool      // consumed exactly once by the grace-timer completion
	PendingJobID string    // id of the currently armed warning timer, "" when none
	NextAt       time.Time // nominal publish instant of the armed occurrence, UTC
	CreatedAt    time.Time // UTC
}

// FirstOccurrence computes the nominal publish instant of a schedule's first
// occurrence: today at HH:MM in loc, rolled forward one calendar day if that
// slot's warning instant (nominal minus lead) has already passed. The roll is
// a single day regardless of interval; subsequent occurrences advance from
// the prior nominal instant via NextOccurrence.
func FirstOccurrence(hour, minute int, lead time.Duration, now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	nominal := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if nominal.Add(-lead).Before(now) {
		nominal = nominal.AddDate(0, 0, 1)
	}
	return nominal.UTC()
}

// NextOccurrence advances a nominal publish instant by the schedule's
// interval. It is anchored on the prior occurrence, never on "now", so
// repeated application never drifts.
func NextOccurrence(prev time.Time, intervalDays int) time.Time {
	if intervalDays < 1 {
		intervalDays = 1
	}
	return prev.AddDate(0, 0, intervalDays).UTC()
}
