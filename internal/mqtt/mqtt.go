// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/termina-clock/internal/cue"
)

// Topic is the MQTT topic for audio cue commands.
const Topic = "clock/termina/audio"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "clock/termina/system"

// Publisher publishes audio commands to MQTT.
type Publisher interface {
	// Publish sends an audio cue command to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(cmd cue.Command, at time.Time) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Audio AudioPayload `json:"audio"`
}

// AudioPayload contains the audio command details.
type AudioPayload struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Track     string `json:"track,omitempty"`
	File      string `json:"file,omitempty"`
	Muted     bool   `json:"muted"`
}

// FormatPayload creates the JSON payload for an audio command.
// Stop commands carry no track or file.
func FormatPayload(cmd cue.Command, at time.Time) ([]byte, error) {
	payload := Payload{
		Audio: AudioPayload{
			Timestamp: at.UTC().Format(time.RFC3339),
			Action:    string(cmd.Op),
			Muted:     cmd.Muted,
		},
	}
	if cmd.Track != "" {
		payload.Audio.Track = string(cmd.Track)
		payload.Audio.File = cmd.Track.File()
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
