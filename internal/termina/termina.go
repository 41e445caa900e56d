// Package termina maps real elapsed time onto the fictional Termina
// timeline: a cycle of 3 days / 72 hours that ends at a configurable
// real-world instant. This package has NO external dependencies and no
// side effects; time is always passed in as parameters.
package termina

import (
	"math"
	"time"
)

const (
	// HoursPerDay is the number of fictional hours in one Termina day.
	HoursPerDay = 24

	// TotalHours is the full span of one cycle (3 days).
	TotalHours = 72
)

// Mode selects how much real time one full cycle spans.
type Mode string

const (
	// ModeShortCycle compresses the 3 days into 72 real minutes.
	ModeShortCycle Mode = "72min"

	// ModeRealDay stretches the 3 days over one real day.
	ModeRealDay Mode = "24hr"
)

// Length returns the real-time span of one full cycle for the mode.
// Any mode other than ModeShortCycle runs at real-day length.
func (m Mode) Length() time.Duration {
	if m == ModeShortCycle {
		return 72 * time.Minute
	}
	return 24 * time.Hour
}

// Valid reports whether m is one of the recognized modes.
func (m Mode) Valid() bool {
	return m == ModeShortCycle || m == ModeRealDay
}

// State is the fictional clock state derived for a single instant.
// It is recomputed from scratch every tick and never mutated in place.
type State struct {
	// Day is the Termina day, 1..3.
	Day int

	// Hour is the fractional hour within the day, [0, 24).
	Hour float64

	// TotalHours is the fictional hours elapsed since cycle start, [0, 72].
	TotalHours float64

	// Progress is the fraction of the cycle elapsed, [0, 1].
	Progress float64

	// Remaining is the real time left until the cycle ends, never negative.
	Remaining time.Duration
}

// Compute derives the Termina state for the given real instant.
// The offset is a debug shift added to now before anything else.
// A non-positive cycle length means the cycle is treated as already
// ended (progress 1) rather than dividing by zero.
func Compute(now, end time.Time, cycle, offset time.Duration) State {
	adjusted := now.Add(offset)

	remaining := end.Sub(adjusted)
	if remaining < 0 {
		remaining = 0
	}

	var progress float64
	if cycle <= 0 {
		progress = 1
	} else {
		progress = 1 - remaining.Seconds()/cycle.Seconds()
		if progress < 0 {
			progress = 0
		}
		if progress > 1 {
			progress = 1
		}
	}

	totalHours := progress * TotalHours

	day := int(totalHours/HoursPerDay) + 1
	if day > 3 {
		day = 3
	}

	return State{
		Day:        day,
		Hour:       math.Mod(totalHours, HoursPerDay),
		TotalHours: totalHours,
		Progress:   progress,
		Remaining:  remaining,
	}
}

// Night reports whether the state falls in fictional night
// (18:00 through 05:59).
func (s State) Night() bool {
	return s.Hour < 6 || s.Hour >= 18
}

// CycleStart returns the real instant the cycle began, implied by the
// end anchor and cycle length. Informational only; Compute never uses it.
func CycleStart(end time.Time, cycle time.Duration) time.Time {
	return end.Add(-cycle)
}
