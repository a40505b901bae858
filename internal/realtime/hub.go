// Package realtime pushes simulator session activity to connected trainers
// over websockets.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

// Message types published by the session service.
const (
	TypeSessionStarted  = "session_started"
	TypeStepResult      = "step_result"
	TypeSessionFinished = "session_finished"
)

// Message is one live update about a simulator session.
type Message struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	CompanyID string      `json:"company_id"`
	Data      interface{} `json:"data,omitempty"`
	SentAt    time.Time   `json:"sent_at"`
}

// Subscription restricts which messages a client receives. An empty
// CompanyID with AllCompanies unset matches nothing; an empty SessionID
// matches every session of the company.
type Subscription struct {
	CompanyID    string
	AllCompanies bool
	SessionID    string
}

func (s Subscription) matches(m Message) bool {
	if s.SessionID != "" && s.SessionID != m.SessionID {
		return false
	}
	return s.AllCompanies || (s.CompanyID != "" && s.CompanyID == m.CompanyID)
}

type outbound struct {
	msg     Message
	payload []byte
}

type clientGauge interface {
	SetLiveClients(n int)
}

// Hub fans session messages out to subscribed websocket clients.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan outbound
	clients    map[*client]struct{}
	upgrader   websocket.Upgrader
	logger     *zap.Logger
	gauge      clientGauge
	done       chan struct{}
}

// NewHub constructs a hub. Call Run to start dispatching.
func NewHub(logger *zap.Logger, gauge clientGauge) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan outbound, sendBufferSize),
		clients:    make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			// Callers authenticate with a bearer token before the upgrade.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
		gauge:  gauge,
		done:   make(chan struct{}),
	}
}

// Run dispatches messages until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.reportClients()
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case out := <-h.broadcast:
			for c := range h.clients {
				if !c.sub.matches(out.msg) {
					continue
				}
				select {
				case c.send <- out.payload:
				default:
					h.logger.Warn("dropping slow live client", zap.String("session_id", out.msg.SessionID))
					h.drop(c)
				}
			}
		}
	}
}

// Publish queues msg for delivery. It never blocks the caller.
func (h *Hub) Publish(msg Message) {
	if h == nil {
		return
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("failed to marshal live message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- outbound{msg: msg, payload: payload}:
	default:
		h.logger.Warn("live message buffer full", zap.String("type", msg.Type), zap.String("session_id", msg.SessionID))
	}
}

// Serve upgrades the request and streams messages matching sub until the
// client disconnects or the hub stops.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sub Subscription) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize), sub: sub}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return nil
	}
	go c.writePump()
	c.readPump()
	return nil
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.reportClients()
}

func (h *Hub) reportClients() {
	if h.gauge != nil {
		h.gauge.SetLiveClients(len(h.clients))
	}
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	sub  Subscription
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
