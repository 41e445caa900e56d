// Package status provides a thread-safe status tracker for the termina-clock daemon.
// It is written from the tick loop and read by HTTP handlers, the
// websocket feed, and MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/termina-clock/internal/cue"
	"github.com/sweeney/termina-clock/internal/settings"
	"github.com/sweeney/termina-clock/internal/termina"
)

// Config contains launch-time daemon configuration for display.
type Config struct {
	TickMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	LampPin     int
}

// Snapshot is a point-in-time view of daemon state. It is a value
// type, safe to use after the lock is released.
type Snapshot struct {
	// State is the Termina clock state from the latest tick.
	State termina.State

	// Display is the clock face text from the latest tick.
	Display string

	// Ticked reports whether at least one tick has completed.
	Ticked bool

	Counts        cue.Counts
	Settings      settings.Settings
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	LampOn        bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the outcome of one tick: the derived clock state, the
// display text, the settings snapshot the tick used, and cue counts.
func (t *Tracker) Update(st termina.State, display string, set settings.Settings, counts cue.Counts) {
	t.mu.Lock()
	t.snap.State = st
	t.snap.Display = display
	t.snap.Settings = set
	t.snap.Counts = counts
	t.snap.Ticked = true
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetLampOn records the night lamp state.
func (t *Tracker) SetLampOn(on bool) {
	t.mu.Lock()
	t.snap.LampOn = on
	t.mu.Unlock()
}

// SetSettings records the settings without marking the tracker ticked.
// Lets the startup event carry the boot configuration before the first tick.
func (t *Tracker) SetSettings(set settings.Settings) {
	t.mu.Lock()
	t.snap.Settings = set
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
