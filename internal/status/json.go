package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/termina-clock/internal/settings"
	"github.com/sweeney/termina-clock/internal/termina"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event            string       `json:"event,omitempty"`
	Reason           string       `json:"reason,omitempty"`
	Display          string       `json:"display"`
	Day              int          `json:"day"`
	Hour             float64      `json:"hour"`
	TotalHours       float64      `json:"total_hours"`
	Progress         float64      `json:"progress"`
	RemainingSeconds float64      `json:"remaining_seconds"`
	Night            bool         `json:"night"`
	Ready            bool         `json:"ready"`
	UptimeSeconds    int64        `json:"uptime_seconds"`
	StartTime        string       `json:"start_time"`
	Timestamp        string       `json:"timestamp"`
	MQTT             MQTTStatus   `json:"mqtt"`
	Lamp             bool         `json:"lamp"`
	Counts           CountsJSON   `json:"cue_counts"`
	Settings         SettingsJSON `json:"settings"`
	Config           ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of cue start counts.
type CountsJSON struct {
	HourChimes  int `json:"hour_chimes"`
	FinalStarts int `json:"final_starts"`
	BellsStarts int `json:"bells_starts"`
}

// SettingsJSON is the JSON representation of the runtime settings.
type SettingsJSON struct {
	Mode               string  `json:"mode"`
	CycleSeconds       float64 `json:"cycle_seconds"`
	CycleStart         string  `json:"cycle_start"`
	EpochEnd           string  `json:"epoch_end"`
	MuteHour           bool    `json:"mute_hour"`
	MuteFinal          bool    `json:"mute_final"`
	ShowSeconds        bool    `json:"show_seconds"`
	DarkMode           bool    `json:"dark_mode"`
	Debug              bool    `json:"debug"`
	DebugOffsetSeconds float64 `json:"debug_offset_seconds"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	LampPin     int    `json:"lamp_pin"`
}

// BuildSettings returns the JSON representation of the given settings.
func BuildSettings(set settings.Settings) SettingsJSON {
	cycle := set.Mode.Length()
	return SettingsJSON{
		Mode:               string(set.Mode),
		CycleSeconds:       cycle.Seconds(),
		CycleStart:         termina.CycleStart(set.EpochEnd, cycle).UTC().Format(time.RFC3339),
		EpochEnd:           set.EpochEnd.UTC().Format(time.RFC3339),
		MuteHour:           set.MuteHour,
		MuteFinal:          set.MuteFinal,
		ShowSeconds:        set.ShowSeconds,
		DarkMode:           set.DarkMode,
		Debug:              set.Debug,
		DebugOffsetSeconds: set.DebugOffset.Seconds(),
	}
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Display:          snap.Display,
		Day:              snap.State.Day,
		Hour:             snap.State.Hour,
		TotalHours:       snap.State.TotalHours,
		Progress:         snap.State.Progress,
		RemainingSeconds: snap.State.Remaining.Seconds(),
		Night:            snap.State.Night(),
		Ready:            snap.Ticked,
		UptimeSeconds:    int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:        snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:        snap.Now.UTC().Format(time.RFC3339),
		MQTT:             MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Lamp:             snap.LampOn,
		Counts: CountsJSON{
			HourChimes:  snap.Counts.HourChimes,
			FinalStarts: snap.Counts.FinalStarts,
			BellsStarts: snap.Counts.BellsStarts,
		},
		Settings: BuildSettings(snap.Settings),
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			LampPin:     snap.Config.LampPin,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
