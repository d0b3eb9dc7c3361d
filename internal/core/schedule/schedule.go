// Package schedule computes concrete fire instants from an agent's
// timezone and local drop time. It is independent of any timer
// mechanism; the scheduler feeds these instants to one-shot timers.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DropTime is a wall-clock time of day in an agent's local timezone.
type DropTime struct {
	Hour   int
	Minute int
}

// ParseDropTime parses an "HH:MM" string.
func ParseDropTime(s string) (DropTime, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return DropTime{}, fmt.Errorf("invalid drop time %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return DropTime{}, fmt.Errorf("invalid drop time %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return DropTime{}, fmt.Errorf("invalid drop time %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return DropTime{}, fmt.Errorf("invalid drop time %q: out of range", s)
	}
	return DropTime{Hour: hour, Minute: minute}, nil
}

// String renders the drop time back to HH:MM.
func (d DropTime) String() string {
	return fmt.Sprintf("%02d:%02d", d.Hour, d.Minute)
}

// NextFire returns the next instant strictly after now at which the
// agent's local clock reads the drop time. DST transitions resolve the
// way time.Date does: a skipped wall time fires at the adjusted
// instant, a repeated one fires at the first occurrence.
func NextFire(now time.Time, loc *time.Location, at DropTime) time.Time {
	local := now.In(loc)
	fire := time.Date(local.Year(), local.Month(), local.Day(), at.Hour, at.Minute, 0, 0, loc)
	if !fire.After(now) {
		fire = time.Date(local.Year(), local.Month(), local.Day()+1, at.Hour, at.Minute, 0, 0, loc)
	}
	return fire
}

// NextUTCHour returns the next instant strictly after now at which the
// UTC clock reads hour:00. Used by the end-of-day sweep.
func NextUTCHour(now time.Time, hour int) time.Time {
	utc := now.UTC()
	fire := time.Date(utc.Year(), utc.Month(), utc.Day(), hour, 0, 0, 0, time.UTC)
	if !fire.After(now) {
		fire = fire.Add(24 * time.Hour)
	}
	return fire
}
