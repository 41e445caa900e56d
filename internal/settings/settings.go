// Package settings owns the runtime configuration of the clock: cycle
// mode, epoch anchor, mute flags, display options, and the debug time
// offset. The driver reads one immutable snapshot per tick; writers
// (flags at startup, the HTTP API later) apply whole updates under the
// lock, so a tick never observes a half-applied change.
package settings

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sweeney/termina-clock/internal/termina"
)

// Settings is one consistent view of the configuration.
type Settings struct {
	Mode        termina.Mode
	EpochEnd    time.Time
	MuteHour    bool
	MuteFinal   bool
	ShowSeconds bool
	DarkMode    bool
	Debug       bool
	DebugOffset time.Duration
}

// Store holds the current settings behind a lock.
type Store struct {
	mu  sync.RWMutex
	cur Settings
}

// NewStore creates a store with the given initial settings.
func NewStore(initial Settings) *Store {
	return &Store{cur: initial}
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Update describes a partial settings change. Nil fields are left
// untouched. EndsAt is a wall-clock "HH:MM" string resolved against
// the update time.
type Update struct {
	Mode        *string  `json:"mode,omitempty"`
	EndsAt      *string  `json:"ends_at,omitempty"`
	MuteHour    *bool    `json:"mute_hour,omitempty"`
	MuteFinal   *bool    `json:"mute_final,omitempty"`
	ShowSeconds *bool    `json:"show_seconds,omitempty"`
	DarkMode    *bool    `json:"dark_mode,omitempty"`
	Debug       *bool    `json:"debug,omitempty"`
	DebugOffset *float64 `json:"debug_offset_seconds,omitempty"`
}

// Apply validates the whole update and commits it atomically. On any
// validation error nothing changes and the error describes the first
// offending field.
func (s *Store) Apply(now time.Time, u Update) (Settings, error) {
	var mode termina.Mode
	if u.Mode != nil {
		mode = termina.Mode(*u.Mode)
		if !mode.Valid() {
			return Settings{}, fmt.Errorf("unknown cycle mode %q", *u.Mode)
		}
	}

	var end time.Time
	if u.EndsAt != nil {
		var err error
		end, err = ResolveEndClock(now, *u.EndsAt)
		if err != nil {
			return Settings{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Mode != nil {
		s.cur.Mode = mode
	}
	if u.EndsAt != nil {
		s.cur.EpochEnd = end
	}
	if u.MuteHour != nil {
		s.cur.MuteHour = *u.MuteHour
	}
	if u.MuteFinal != nil {
		s.cur.MuteFinal = *u.MuteFinal
	}
	if u.ShowSeconds != nil {
		s.cur.ShowSeconds = *u.ShowSeconds
	}
	if u.DarkMode != nil {
		s.cur.DarkMode = *u.DarkMode
	}
	if u.Debug != nil {
		s.cur.Debug = *u.Debug
	}
	if u.DebugOffset != nil {
		s.cur.DebugOffset = time.Duration(*u.DebugOffset * float64(time.Second))
	}

	return s.cur, nil
}

// SetEpochEnd reassigns the cycle end anchor directly.
func (s *Store) SetEpochEnd(end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.EpochEnd = end
}

// AdvanceDebug shifts the debug offset by delta (negative moves
// backward) and returns the new offset.
func (s *Store) AdvanceDebug(delta time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.DebugOffset += delta
	return s.cur.DebugOffset
}

// ResetDebug sets the debug offset back to zero.
func (s *Store) ResetDebug() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.DebugOffset = 0
}

// SetDebugOffset overwrites the debug offset.
func (s *Store) SetDebugOffset(offset time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.DebugOffset = offset
}

// ResolveEndClock parses a wall-clock time of day ("HH:MM", or a bare
// "HH" meaning minutes zero) and returns its next occurrence after now
// in now's location. A time that already passed today resolves to
// tomorrow.
func ResolveEndClock(now time.Time, clock string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return time.Time{}, fmt.Errorf("empty end time")
	}

	var hh, mm int
	var err error
	if h, m, ok := strings.Cut(clock, ":"); ok {
		hh, err = strconv.Atoi(h)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse end time %q: %w", clock, err)
		}
		mm, err = strconv.Atoi(m)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse end time %q: %w", clock, err)
		}
	} else {
		hh, err = strconv.Atoi(clock)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse end time %q: %w", clock, err)
		}
	}

	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return time.Time{}, fmt.Errorf("end time %q out of range", clock)
	}

	end := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, now.Location())
	if !end.After(now) {
		end = end.AddDate(0, 0, 1)
	}
	return end, nil
}
