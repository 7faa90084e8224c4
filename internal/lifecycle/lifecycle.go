package lifecycle

import (
	"time"

	"quitSmokingAPI/internal/types/challenge"
)

// ChallengeLength is the number of days a challenge runs.
const ChallengeLength = 30

// DateLayout is the calendar-date key format used by success logs.
const DateLayout = "2006-01-02"

type Decision int

const (
	NoOp Decision = iota
	MarkFailed
	MarkCompleted
)

func (d Decision) String() string {
	switch d {
	case MarkFailed:
		return "mark_failed"
	case MarkCompleted:
		return "mark_completed"
	default:
		return "noop"
	}
}

// CurrentDay returns the 1-based day number of the challenge at ref.
// Day 1 starts at startDate; each further 24 hours advances one day.
func CurrentDay(startDate, ref time.Time) int {
	return int(ref.Sub(startDate).Hours()/24) + 1
}

// DateKey formats t as the calendar-date key for success logs, in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Evaluate decides what the reconciliation run should do with one challenge.
// hasPriorDayLog says whether a success log exists for the calendar date one
// day before ref. Pure: no I/O, no clock reads.
//
// Terminal challenges always yield NoOp, which is what makes a second run on
// the same day harmless. The completion check deliberately trusts the running
// day counter plus the single prior-day log rather than re-deriving the full
// log history.
func Evaluate(ch *challenge.Challenge, ref time.Time, hasPriorDayLog bool) Decision {
	if ch.Status != challenge.StatusActive {
		return NoOp
	}
	if !hasPriorDayLog {
		return MarkFailed
	}
	if CurrentDay(ch.StartDate, ref) >= ChallengeLength {
		return MarkCompleted
	}
	return NoOp
}
