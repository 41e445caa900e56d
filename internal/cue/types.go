// Package cue contains the pure audio-cue state machine for the Termina
// clock. Each tick it consumes a derived clock state and returns display
// text plus audio commands as data; executing them (or not) is the
// caller's concern. No I/O, no wall-clock reads.
package cue

import "time"

// FinalCountdownWindow is how much real time before the cycle end the
// bells countdown takes over.
const FinalCountdownWindow = 5 * time.Minute

// Track identifies an audio track.
type Track string

const (
	// TrackHour is the chime played when crossing 06:00 or 18:00.
	TrackHour Track = "hour"

	// TrackFinal is the music for the last night (day 3, 18:00 on).
	TrackFinal Track = "final"

	// TrackBells is the bells loop for the final countdown window.
	TrackBells Track = "bells"
)

// File returns the audio file for the track.
func (t Track) File() string {
	switch t {
	case TrackHour:
		return "hour.mp3"
	case TrackFinal:
		return "final.mp3"
	case TrackBells:
		return "bells.mp3"
	}
	return ""
}

// Op is the action an audio command requests.
type Op string

const (
	OpStart Op = "START"
	OpStop  Op = "STOP"
)

// Command is a single audio instruction for the playback side.
// A muted Start is still issued; the player treats it as a no-op so
// mute changes never desync the cue state machine.
type Command struct {
	Op    Op
	Track Track // empty for Stop
	Muted bool
}

// Options carries the per-tick configuration the scheduler reads.
// The caller snapshots these once per tick.
type Options struct {
	MuteHour    bool
	MuteFinal   bool // covers both the final track and the bells
	ShowSeconds bool
	Debug       bool
	DebugOffset time.Duration
}

// Result is the outcome of one scheduler tick.
type Result struct {
	// Display is the text the clock face should show.
	Display string

	// Commands lists audio commands in execution order.
	Commands []Command
}

// Counts tracks how many times each cue has started since startup.
type Counts struct {
	HourChimes  int
	FinalStarts int
	BellsStarts int
}
