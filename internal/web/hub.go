package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/termina-clock/internal/status"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// How often the poller checks the tracker for a changed frame.
	pollInterval = 250 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The page may be served from a different host than the clock.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Frame is the compact JSON message pushed to websocket clients when
// the clock face changes.
type Frame struct {
	Display          string  `json:"display"`
	Day              int     `json:"day"`
	Hour             float64 `json:"hour"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	Night            bool    `json:"night"`
	DarkMode         bool    `json:"dark_mode"`
	Ready            bool    `json:"ready"`
}

func buildFrame(snap status.Snapshot) Frame {
	return Frame{
		Display:          snap.Display,
		Day:              snap.State.Day,
		Hour:             snap.State.Hour,
		RemainingSeconds: snap.State.Remaining.Seconds(),
		Night:            snap.State.Night(),
		DarkMode:         snap.Settings.DarkMode,
		Ready:            snap.Ticked,
	}
}

// client is one websocket connection.
type client struct {
	hub  *hub
	conn *websocket.Conn
	send chan []byte
}

// hub maintains the set of active websocket clients and broadcasts
// display frames to them. The clients map is owned by the run loop.
type hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

func newHub() *hub {
	return &hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 8),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// run handles client registration and broadcasts until ctx is done.
func (h *hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			close(h.done)
			return
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow client; drop it rather than stall the feed.
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// pollDisplay watches the tracker and broadcasts a frame whenever the
// rendered display, theme, or readiness changes.
func (s *Server) pollDisplay(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var last Frame
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame := buildFrame(s.tracker.Snapshot())
			if frame.Display == last.Display && frame.DarkMode == last.DarkMode && frame.Ready == last.Ready {
				continue
			}
			last = frame

			payload, err := json.Marshal(frame)
			if err != nil {
				log.Printf("web: marshal frame: %v", err)
				continue
			}
			select {
			case s.hub.broadcast <- payload:
			case <-ctx.Done():
				return
			}
		}
	}
}

// handleWS upgrades the connection and registers it with the hub.
// New clients immediately receive the current frame.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade: %v", err)
		return
	}

	c := &client{hub: s.hub, conn: conn, send: make(chan []byte, 16)}

	// Seed the new client so it doesn't wait for the next change.
	if payload, err := json.Marshal(buildFrame(s.tracker.Snapshot())); err == nil {
		c.send <- payload
	}

	select {
	case s.hub.register <- c:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump drains the connection so close and pong frames are
// processed. Incoming data messages are ignored; the feed is one-way.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump sends frames and pings to the peer.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
