package cue

import (
	"fmt"
	"math"
	"time"

	"github.com/sweeney/termina-clock/internal/termina"
)

// Scheduler decides which cues fire as the fictional clock advances.
// It holds the hysteresis state that prevents a cue from re-triggering
// every tick while its window stays active. Exactly one of the four
// phases (ended, countdown, final night, normal) applies per tick;
// only the normal phase can additionally fire the hour chime.
type Scheduler struct {
	lastHour   int
	finalNight bool
	countdown  bool
	counts     Counts
}

// NewScheduler creates a scheduler with no cue history.
func NewScheduler() *Scheduler {
	return &Scheduler{lastHour: -1}
}

// Reset clears all hysteresis state, as when the cycle is reconfigured.
// Counts survive; they describe the process, not the cycle.
func (s *Scheduler) Reset() {
	s.lastHour = -1
	s.finalNight = false
	s.countdown = false
}

// Counts returns the cue start counts since startup.
func (s *Scheduler) Counts() Counts {
	return s.counts
}

// Tick evaluates one clock state and returns the display text and any
// audio commands. Command order matters: a Stop always precedes the
// Start that supersedes it.
func (s *Scheduler) Tick(st termina.State, opt Options) Result {
	var res Result

	switch {
	case st.Remaining <= 0:
		// Cycle ended. Stop is idempotent at the player.
		s.finalNight = false
		s.countdown = false
		res.Commands = append(res.Commands, Command{Op: OpStop})
		res.Display = "DAWN OF A NEW DAY" + debugSuffix(st, opt)

	case st.Remaining <= FinalCountdownWindow:
		if !s.countdown {
			res.Commands = append(res.Commands,
				Command{Op: OpStop},
				Command{Op: OpStart, Track: TrackBells, Muted: opt.MuteFinal},
			)
			s.countdown = true
			s.counts.BellsStarts++
		}
		s.finalNight = false
		res.Display = countdownText(st.Remaining) + debugSuffix(st, opt)

	case st.Day == 3 && st.Hour >= 18:
		if !s.finalNight {
			res.Commands = append(res.Commands,
				Command{Op: OpStop},
				Command{Op: OpStart, Track: TrackFinal, Muted: opt.MuteFinal},
			)
			s.finalNight = true
			s.counts.FinalStarts++
		}
		s.countdown = false
		res.Display = clockText(st, opt) + debugSuffix(st, opt)

	default:
		s.finalNight = false
		s.countdown = false

		hourInt := int(st.Hour)
		if hourInt != s.lastHour && (hourInt == 6 || hourInt == 18) {
			res.Commands = append(res.Commands,
				Command{Op: OpStart, Track: TrackHour, Muted: opt.MuteHour},
			)
			s.counts.HourChimes++
		}
		s.lastHour = hourInt
		res.Display = clockText(st, opt) + debugSuffix(st, opt)
	}

	return res
}

func clockText(st termina.State, opt Options) string {
	hourInt := int(st.Hour)
	if opt.ShowSeconds {
		secs := int(math.Mod(st.Hour, 1) * 60)
		return fmt.Sprintf("Day %d\n%02d:%02d Termina", st.Day, hourInt, secs)
	}
	return fmt.Sprintf("Day %d\n%02d:00 Termina", st.Day, hourInt)
}

func countdownText(remaining time.Duration) string {
	whole := int(remaining / time.Second)
	ms := int(remaining % time.Second / time.Millisecond)
	return fmt.Sprintf("FINAL HOURS\n%02d.%03d seconds remain", whole, ms)
}

func debugSuffix(st termina.State, opt Options) string {
	if !opt.Debug {
		return ""
	}
	out := fmt.Sprintf("\n[DEBUG] Offset: %.1fs", opt.DebugOffset.Seconds())
	if st.Remaining > 0 {
		out += fmt.Sprintf("\n[DEBUG] Real remaining: %.1fs", st.Remaining.Seconds())
	}
	return out
}
