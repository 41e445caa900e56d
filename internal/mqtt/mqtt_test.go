package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/termina-clock/internal/cue"
)

func TestFormatPayload(t *testing.T) {
	cmd := cue.Command{Op: cue.OpStart, Track: cue.TrackBells}
	at := time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC)

	payload, err := FormatPayload(cmd, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Audio.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Audio.Timestamp)
	}
	if parsed.Audio.Action != "START" {
		t.Errorf("unexpected action: %s", parsed.Audio.Action)
	}
	if parsed.Audio.Track != "bells" {
		t.Errorf("unexpected track: %s", parsed.Audio.Track)
	}
	if parsed.Audio.File != "bells.mp3" {
		t.Errorf("unexpected file: %s", parsed.Audio.File)
	}
	if parsed.Audio.Muted {
		t.Error("expected muted=false")
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	cmd := cue.Command{Op: cue.OpStart, Track: cue.TrackBells}
	at := time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC)

	payload, err := FormatPayload(cmd, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"audio":{"timestamp":"2026-02-03T10:30:45Z","action":"START","track":"bells","file":"bells.mp3","muted":false}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatPayloadAllTracks(t *testing.T) {
	tests := []struct {
		track    cue.Track
		wantName string
		wantFile string
	}{
		{cue.TrackHour, "hour", "hour.mp3"},
		{cue.TrackFinal, "final", "final.mp3"},
		{cue.TrackBells, "bells", "bells.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			cmd := cue.Command{Op: cue.OpStart, Track: tt.track}

			payload, err := FormatPayload(cmd, time.Now())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var parsed Payload
			if err := json.Unmarshal(payload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}

			if parsed.Audio.Track != tt.wantName {
				t.Errorf("track: got %s, want %s", parsed.Audio.Track, tt.wantName)
			}
			if parsed.Audio.File != tt.wantFile {
				t.Errorf("file: got %s, want %s", parsed.Audio.File, tt.wantFile)
			}
		})
	}
}

func TestFormatPayloadStopOmitsTrack(t *testing.T) {
	cmd := cue.Command{Op: cue.OpStop}
	at := time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC)

	payload, err := FormatPayload(cmd, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"audio":{"timestamp":"2026-02-03T10:30:45Z","action":"STOP","muted":false}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	audio := parsed["audio"].(map[string]interface{})
	if _, exists := audio["track"]; exists {
		t.Error("track field should be omitted for stop commands")
	}
	if _, exists := audio["file"]; exists {
		t.Error("file field should be omitted for stop commands")
	}
}

func TestFormatPayloadMuted(t *testing.T) {
	cmd := cue.Command{Op: cue.OpStart, Track: cue.TrackHour, Muted: true}
	at := time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC)

	payload, err := FormatPayload(cmd, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"audio":{"timestamp":"2026-02-03T10:30:45Z","action":"START","track":"hour","file":"hour.mp3","muted":true}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	localTime := time.Date(2026, 2, 3, 10, 30, 0, 0, loc) // 10:30 EST = 15:30 UTC

	payload, err := FormatPayload(cue.Command{Op: cue.OpStart, Track: cue.TrackHour}, localTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Audio.Timestamp != "2026-02-03T15:30:00Z" {
		t.Errorf("expected UTC timestamp 2026-02-03T15:30:00Z, got %s", parsed.Audio.Timestamp)
	}
}

func TestTopic(t *testing.T) {
	expected := "clock/termina/audio"
	if Topic != expected {
		t.Errorf("unexpected topic: got %s, want %s", Topic, expected)
	}
}

func TestTopicSystem(t *testing.T) {
	expected := "clock/termina/system"
	if TopicSystem != expected {
		t.Errorf("unexpected system topic: got %s, want %s", TopicSystem, expected)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.System.Timestamp != "2026-02-03T10:30:45Z" {
		t.Errorf("unexpected timestamp: %s", parsed.System.Timestamp)
	}
	if parsed.System.Event != "SHUTDOWN" {
		t.Errorf("unexpected event: %s", parsed.System.Event)
	}
	if parsed.System.Reason != "SIGTERM" {
		t.Errorf("unexpected reason: %s", parsed.System.Reason)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-03T10:30:45Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadOmitsReasonWhenEmpty(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 19, 5, 51, 0, time.UTC),
		Event:     "STARTUP",
		Reason:    "",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	system := parsed["system"].(map[string]interface{})
	if _, exists := system["reason"]; exists {
		t.Error("reason field should be omitted for startup events")
	}
}

func TestFormatSystemPayloadRawPayload(t *testing.T) {
	raw := []byte(`{"status":{"display":"Day 1\n06:00 Termina"}}`)
	event := SystemEvent{
		Timestamp:  time.Now(),
		Event:      "HEARTBEAT",
		RawPayload: raw,
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(payload) != string(raw) {
		t.Errorf("expected raw payload to pass through:\ngot:  %s\nwant: %s", payload, raw)
	}
}

func TestFormatSystemPayloadTimezoneConversion(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/London")
	localTime := time.Date(2026, 7, 15, 14, 0, 0, 0, loc) // 14:00 BST = 13:00 UTC

	event := SystemEvent{
		Timestamp: localTime,
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.System.Timestamp != "2026-07-15T13:00:00Z" {
		t.Errorf("expected UTC timestamp 2026-07-15T13:00:00Z, got %s", parsed.System.Timestamp)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	err := f.Publish(cue.Command{Op: cue.OpStart, Track: cue.TrackBells}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(f.Commands))
	}
	if f.Commands[0].Op != cue.OpStart {
		t.Errorf("unexpected op: %s", f.Commands[0].Op)
	}
	if f.Commands[0].Track != cue.TrackBells {
		t.Errorf("unexpected track: %s", f.Commands[0].Track)
	}

	if len(f.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(f.Payloads))
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	err := f.Publish(cue.Command{Op: cue.OpStart, Track: cue.TrackHour}, time.Now())
	if err == nil {
		t.Error("expected error")
	}

	if len(f.Commands) != 0 {
		t.Errorf("expected no commands recorded on error, got %d", len(f.Commands))
	}
}

func TestFakePublisherClose(t *testing.T) {
	f := NewFakePublisher()

	if f.Closed {
		t.Error("should not be closed initially")
	}

	err := f.Close()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakePublisherPublishSystem(t *testing.T) {
	f := NewFakePublisher()

	event := SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	err := f.PublishSystem(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(f.SystemEvents))
	}
	if f.SystemEvents[0].Event != "SHUTDOWN" {
		t.Errorf("unexpected event: %s", f.SystemEvents[0].Event)
	}
	if f.SystemEvents[0].Reason != "SIGTERM" {
		t.Errorf("unexpected reason: %s", f.SystemEvents[0].Reason)
	}

	if len(f.SystemPayloads) != 1 {
		t.Fatalf("expected 1 system payload, got %d", len(f.SystemPayloads))
	}
}

func TestFakePublisherPublishSystemError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishSystemError = errors.New("simulated error")

	err := f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "SHUTDOWN", Reason: "SIGTERM"})
	if err == nil {
		t.Error("expected error")
	}

	if len(f.SystemEvents) != 0 {
		t.Errorf("expected no system events recorded on error, got %d", len(f.SystemEvents))
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()

	f.Publish(cue.Command{Op: cue.OpStart, Track: cue.TrackHour}, time.Now())
	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "SHUTDOWN", Reason: "SIGTERM"})
	f.Close()
	f.PublishError = errors.New("error")
	f.Connected = true

	f.Reset()

	if len(f.Commands) != 0 {
		t.Error("commands should be cleared")
	}
	if len(f.Payloads) != 0 {
		t.Error("payloads should be cleared")
	}
	if len(f.SystemEvents) != 0 {
		t.Error("system events should be cleared")
	}
	if len(f.SystemPayloads) != 0 {
		t.Error("system payloads should be cleared")
	}
	if f.Closed {
		t.Error("closed should be reset")
	}
	if f.PublishError != nil {
		t.Error("error should be cleared")
	}
	if f.Connected {
		t.Error("connected should be reset")
	}
}

func TestFakePublisherPreservesCommandOrder(t *testing.T) {
	f := NewFakePublisher()

	cmds := []cue.Command{
		{Op: cue.OpStop},
		{Op: cue.OpStart, Track: cue.TrackFinal},
		{Op: cue.OpStop},
		{Op: cue.OpStart, Track: cue.TrackBells},
	}

	for _, cmd := range cmds {
		f.Publish(cmd, time.Now())
	}

	if len(f.Commands) != 4 {
		t.Fatalf("expected 4 commands, got %d", len(f.Commands))
	}
	for i, cmd := range cmds {
		if f.Commands[i] != cmd {
			t.Errorf("command %d: expected %+v, got %+v", i, cmd, f.Commands[i])
		}
	}
}

func TestFakePublisherRecordsRetainedFlag(t *testing.T) {
	f := NewFakePublisher()

	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "STARTUP", Retained: true})
	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "HEARTBEAT", Retained: false})

	if len(f.SystemEvents) != 2 {
		t.Fatalf("expected 2 system events, got %d", len(f.SystemEvents))
	}
	if !f.SystemEvents[0].Retained {
		t.Error("first event should have Retained=true")
	}
	if f.SystemEvents[1].Retained {
		t.Error("second event should have Retained=false")
	}
}

// Interface compliance checks.
var (
	_ Publisher        = (*FakePublisher)(nil)
	_ Publisher        = (*RealPublisher)(nil)
	_ ConnectionStatus = (*FakePublisher)(nil)
	_ ConnectionStatus = (*RealPublisher)(nil)
)
