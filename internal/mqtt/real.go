package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/termina-clock/internal/cue"
)

// systemQueueCap bounds how many system events are held across an outage.
const systemQueueCap = 64

// RealPublisher publishes to an actual MQTT broker.
// While the connection is down, system events queue in a ring buffer
// and the most recent undelivered audio command is remembered. Both are
// replayed once paho's auto-reconnect succeeds, so listeners catch up
// instead of missing cues.
type RealPublisher struct {
	client paho.Client

	mu        sync.Mutex
	queue     *ringBuffer
	lastAudio []byte
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{queue: newRingBuffer(systemQueueCap)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("termina-clock").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// Publish sends an audio command to the MQTT broker.
// A command that cannot be delivered is remembered and re-sent on
// reconnect, so the player is not left running a stale track.
func (p *RealPublisher) Publish(cmd cue.Command, at time.Time) error {
	payload, err := FormatPayload(cmd, at)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	if !p.client.IsConnectionOpen() {
		p.rememberAudio(payload)
		return fmt.Errorf("not connected")
	}

	// QoS 0 (at-most-once), not retained
	token := p.client.Publish(Topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		p.rememberAudio(payload)
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		p.rememberAudio(payload)
		return fmt.Errorf("publish: %w", err)
	}

	p.mu.Lock()
	p.lastAudio = nil
	p.mu.Unlock()
	return nil
}

func (p *RealPublisher) rememberAudio(payload []byte) {
	p.mu.Lock()
	p.lastAudio = payload
	p.mu.Unlock()
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
// Events that arrive while disconnected are queued for replay.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.queue.push(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
		n := p.queue.len()
		p.mu.Unlock()
		log.Printf("mqtt: disconnected, queued %s event (%d pending)", event.Event, n)
		return nil
	}

	// QoS 1 (at-least-once) for system events - we want to ensure delivery
	token := p.client.Publish(TopicSystem, 1, event.Retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}

	return nil
}

// onConnect runs on paho's callback goroutine after every (re)connect
// and replays whatever queued up while the link was down.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	queued := p.queue.drainAll()
	audio := p.lastAudio
	p.lastAudio = nil
	p.mu.Unlock()

	if len(queued) == 0 && audio == nil {
		return
	}

	go func() {
		for _, msg := range queued {
			token := client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
			token.WaitTimeout(5 * time.Second)
		}
		if audio != nil {
			token := client.Publish(Topic, 0, false, audio)
			token.WaitTimeout(5 * time.Second)
		}
		n := len(queued)
		if audio != nil {
			n++
		}
		log.Printf("mqtt: reconnected, replayed %d queued messages", n)
	}()
}

// IsConnected reports whether the broker connection is currently open.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
