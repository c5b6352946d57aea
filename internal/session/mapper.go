// Package session maps wall-clock instants to America/Chicago session
// phases and regular-session elapsed time.
package session

import (
	"time"

	"futuresregime/internal/domain"
)

// Central is the America/Chicago location every boundary below is defined
// against.
var Central = mustLoadLocation("America/Chicago")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// America/Chicago ships with every Go distribution's tzdata; a
		// missing entry means a broken install, not a recoverable state.
		panic("session: cannot load location " + name + ": " + err.Error())
	}
	return loc
}

type boundary struct {
	phase       domain.SessionPhase
	startHour   int
	startMinute int
	endHour     int
	endMinute   int
}

// boundaries is ordered; Phase falls through to Extended if none match.
var boundaries = []boundary{
	{domain.PreOpen, 5, 0, 8, 30},
	{domain.OpeningRange, 8, 30, 9, 0},
	{domain.MidMorning, 9, 0, 11, 30},
	{domain.Lunch, 11, 30, 13, 0},
	{domain.MidAfternoon, 13, 0, 15, 0},
	{domain.PowerHour, 15, 0, 16, 0},
	{domain.Close, 16, 0, 17, 0},
}

func minutesOfDay(h, m int) int { return h*60 + m }

// Phase returns the session phase for instant t, converting to
// America/Chicago local time first.
func Phase(t time.Time) domain.SessionPhase {
	local := t.In(Central)
	minutes := minutesOfDay(local.Hour(), local.Minute())
	for _, b := range boundaries {
		start := minutesOfDay(b.startHour, b.startMinute)
		end := minutesOfDay(b.endHour, b.endMinute)
		if minutes >= start && minutes < end {
			return b.phase
		}
	}
	return domain.Extended
}

// MinutesSinceOpen returns minutes elapsed since the most recent 08:30 CT
// boundary on t's local calendar date. It is negative if t falls before
// 08:30 CT on that date.
func MinutesSinceOpen(t time.Time) float64 {
	local := t.In(Central)
	open := time.Date(local.Year(), local.Month(), local.Day(), 8, 30, 0, 0, Central)
	return t.Sub(open).Minutes()
}

// IsRegularSession reports whether t falls within the regular trading
// session (opening_range through power_hour, inclusive of lower bound).
func IsRegularSession(t time.Time) bool {
	return Phase(t).IsRegularSession()
}

// OpenOnDate returns 08:30 CT on the local calendar date containing t.
func OpenOnDate(t time.Time) time.Time {
	local := t.In(Central)
	return time.Date(local.Year(), local.Month(), local.Day(), 8, 30, 0, 0, Central)
}
