// Package streak contains the pure streak arithmetic for daily drops.
// Functions here never touch persistence; they compute new record
// values from a snapshot and an instant, and the caller decides what
// to store.
package streak

import (
	"fmt"
	"time"
)

// DayFormat is the calendar-date layout used everywhere a local day is
// stored or compared.
const DayFormat = "2006-01-02"

// DefaultProtectionWindow is the grace period granted when generation
// fails completely.
const DefaultProtectionWindow = 24 * time.Hour

// Record is a snapshot of one agent's streak state.
// LastDropDate and PracticeStartDate are local calendar days in
// DayFormat; LastDropDate is empty before the first drop.
// ProtectionExpiresAt is the zero time unless ProtectionActive is set.
type Record struct {
	AgentID             string
	CurrentStreak       int
	LongestStreak       int
	LastDropDate        string
	TotalDrops          int
	ProtectionActive    bool
	ProtectionExpiresAt time.Time
	PracticeStartDate   string
}

// Status is the result of evaluating a record against "now".
type Status struct {
	CurrentStreak   int
	LongestStreak   int
	Intact          bool
	NeedsProtection bool
	DaysUntilBreak  int
}

// LocalDay returns the calendar day of t in the given location.
func LocalDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayFormat)
}

// DayDiff returns to - from in whole calendar days.
// Both arguments must be DayFormat strings.
func DayDiff(from, to string) (int, error) {
	f, err := time.Parse(DayFormat, from)
	if err != nil {
		return 0, fmt.Errorf("invalid day %q: %w", from, err)
	}
	t, err := time.Parse(DayFormat, to)
	if err != nil {
		return 0, fmt.Errorf("invalid day %q: %w", to, err)
	}
	return int(t.Sub(f).Hours() / 24), nil
}

// Validate checks the record invariants. A violation means the stored
// record was mutated outside the engine; callers treat it as fatal for
// the agent rather than repairing it silently.
func Validate(rec Record) error {
	if rec.CurrentStreak < 0 || rec.LongestStreak < 0 || rec.TotalDrops < 0 {
		return fmt.Errorf("agent %s: negative counter in streak record", rec.AgentID)
	}
	if rec.LongestStreak < rec.CurrentStreak {
		return fmt.Errorf("agent %s: longest_streak %d < current_streak %d", rec.AgentID, rec.LongestStreak, rec.CurrentStreak)
	}
	if rec.ProtectionActive && rec.ProtectionExpiresAt.IsZero() {
		return fmt.Errorf("agent %s: protection active without expiry", rec.AgentID)
	}
	if !rec.ProtectionActive && !rec.ProtectionExpiresAt.IsZero() {
		return fmt.Errorf("agent %s: protection expiry set while inactive", rec.AgentID)
	}
	return nil
}

// protectionValid reports whether an active protection window still
// covers the given instant.
func protectionValid(rec Record, now time.Time) bool {
	return rec.ProtectionActive && rec.ProtectionExpiresAt.After(now)
}

// Evaluate computes the streak status of rec at now, with local days
// taken in loc. It has no side effects.
func Evaluate(rec Record, now time.Time, loc *time.Location) (Status, error) {
	st := Status{
		CurrentStreak: rec.CurrentStreak,
		LongestStreak: rec.LongestStreak,
	}

	today := LocalDay(now, loc)

	// An agent whose practice has not started yet has nothing at risk.
	if rec.PracticeStartDate != "" && rec.PracticeStartDate > today {
		st.Intact = true
		return st, nil
	}

	// No drop ever recorded: nothing to protect.
	if rec.LastDropDate == "" {
		st.Intact = true
		return st, nil
	}

	gap, err := DayDiff(rec.LastDropDate, today)
	if err != nil {
		return Status{}, err
	}

	switch {
	case gap <= 0:
		// Already dropped today.
		st.Intact = true
		st.DaysUntilBreak = 1
	case gap == 1:
		// Last drop was yesterday: still intact, today's drop is due.
		st.Intact = true
		st.NeedsProtection = true
		st.DaysUntilBreak = 0
	default:
		if protectionValid(rec, now) {
			st.Intact = true
			st.DaysUntilBreak = int(rec.ProtectionExpiresAt.Sub(now).Hours() / 24)
		} else {
			st.Intact = false
			st.DaysUntilBreak = 0
		}
	}
	return st, nil
}

// Commit applies a successful drop at now to rec and returns the new
// record. Committing twice on the same local day is a no-op: the
// returned record equals the input, and changed reports false so the
// caller can skip the store write. TotalDrops counts distinct local
// days with a drop, so the no-op path does not increment it either.
func Commit(rec Record, now time.Time, loc *time.Location) (Record, bool, error) {
	today := LocalDay(now, loc)

	if rec.LastDropDate == today {
		return rec, false, nil
	}

	out := rec
	if rec.LastDropDate == "" {
		out.CurrentStreak = 1
	} else {
		gap, err := DayDiff(rec.LastDropDate, today)
		if err != nil {
			return Record{}, false, err
		}
		if gap == 1 || (gap > 1 && protectionValid(rec, now)) {
			out.CurrentStreak = rec.CurrentStreak + 1
		} else {
			out.CurrentStreak = 1
		}
	}

	if out.CurrentStreak > out.LongestStreak {
		out.LongestStreak = out.CurrentStreak
	}
	out.LastDropDate = today
	out.TotalDrops = rec.TotalDrops + 1

	// A successful drop always clears protection.
	out.ProtectionActive = false
	out.ProtectionExpiresAt = time.Time{}

	return out, true, nil
}

// ActivateProtection opens a protection window of the given duration
// starting at now. A non-positive duration falls back to the default
// window. streakOverride, when >= 0, forcibly sets CurrentStreak; it
// exists only for the operator emergency-restore path.
func ActivateProtection(rec Record, now time.Time, duration time.Duration, streakOverride int) Record {
	if duration <= 0 {
		duration = DefaultProtectionWindow
	}

	out := rec
	out.ProtectionActive = true
	out.ProtectionExpiresAt = now.Add(duration)

	if streakOverride >= 0 {
		out.CurrentStreak = streakOverride
		if out.CurrentStreak > out.LongestStreak {
			out.LongestStreak = out.CurrentStreak
		}
	}
	return out
}
