// FilePath: internal/realtime/hub.go
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	nuts "github.com/vaudience/go-nuts"

	"classhub/internal/models"
	"classhub/internal/session"
)

// Event names pushed to connected dashboards.
const (
	EventInitState  = "init_state"
	EventSensorData = "sensor_data"
	EventViolation  = "violation"
	EventAttendance = "attendance"
	EventLEDCommand = "led_command"
	EventDataReset  = "data_reset"
	EventError      = "error"
)

// inbound event accepted from any connected client
const eventControlLED = "control_led"

const (
	readLimit    = 64 * 1024
	readTimeout  = 90 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 32
)

// Frame is the wire format for messages in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// InitState is the snapshot a dashboard receives right after connect.
type InitState struct {
	Temp    models.JSONFloat `json:"temp"`
	Hum     models.JSONFloat `json:"hum"`
	Led     string           `json:"led"`
	Clients int              `json:"clients"`
}

// Controller is what the hub needs from the application: the connect
// snapshot and the gated LED operation for inbound control frames.
type Controller interface {
	InitState() InitState
	ControlLED(username, color string) error
}

// controlPayload is the body of an inbound control_led frame. The
// session token rides in the payload because browsers cannot set
// custom headers on websocket upgrades.
type controlPayload struct {
	Color     string `json:"color"`
	SessionID string `json:"sessionId"`
}

// Hub fans application events out to every connected dashboard. There
// is no per-client filtering, ordering guarantee across clients, or
// backpressure: a client that cannot keep up is dropped.
type Hub struct {
	sessions   session.Store
	controller Controller
	upgrader   websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// NewHub creates a hub. The controller is attached separately because
// the application service broadcasts through the hub it is built with.
func NewHub(sessions session.Store) *Hub {
	return &Hub{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]bool),
	}
}

// SetController attaches the application controller. Must be called
// before the hub accepts connections.
func (h *Hub) SetController(c Controller) {
	h.controller = c
}

// HandleSocket upgrades the request and serves the connection until the
// peer goes away.
func (h *Hub) HandleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		nuts.L.Warnf("[Realtime] Upgrade failed: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()

	nuts.L.Infof("[Realtime] Client connected (%d online)", count)

	// Initial snapshot goes only to the new client.
	if h.controller != nil {
		if frame, err := marshalFrame(EventInitState, h.controller.InitState()); err == nil {
			c.enqueue(frame)
		}
	}

	go c.writePump()
	h.readLoop(c)

	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
	}
	count = len(h.clients)
	h.mu.Unlock()

	close(c.done)
	conn.Close()
	nuts.L.Infof("[Realtime] Client disconnected (%d online)", count)
}

// Broadcast sends an event to every connected client in emission order.
func (h *Hub) Broadcast(event string, data any) {
	frame, err := marshalFrame(event, data)
	if err != nil {
		nuts.L.Errorf("[Realtime] Failed to encode %s event: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.enqueue(frame) {
			// Slow consumer: drop the connection rather than block the
			// broadcaster.
			delete(h.clients, c)
			c.conn.Close()
		}
	}
}

// ClientCount returns the number of connected dashboards.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll terminates every connection. Used during shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(5*time.Second),
		)
		c.conn.Close()
		delete(h.clients, c)
	}
}

func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go c.pingLoop()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				nuts.L.Warnf("[Realtime] Read error: %v", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))

		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			nuts.L.Warnf("[Realtime] Invalid frame: %v", err)
			continue
		}
		h.handleFrame(c, frame)
	}
}

func (h *Hub) handleFrame(c *client, frame Frame) {
	switch frame.Event {
	case eventControlLED:
		h.handleControlLED(c, frame.Data)
	default:
		c.sendError("unknown event: " + frame.Event)
	}
}

// handleControlLED gates the inbound LED request through the same
// session registry as the HTTP control endpoint.
func (h *Hub) handleControlLED(c *client, raw json.RawMessage) {
	var payload controlPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Color == "" {
		c.sendError("missing LED color")
		return
	}

	sess, err := h.sessions.Validate(context.Background(), payload.SessionID)
	if err != nil {
		nuts.L.Errorf("[Realtime] Session lookup failed: %v", err)
		c.sendError("session check failed")
		return
	}
	if sess == nil {
		c.sendError("not authenticated")
		return
	}

	if err := h.controller.ControlLED(sess.Username, payload.Color); err != nil {
		c.sendError(err.Error())
	}
}

func (c *client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *client) sendError(message string) {
	if frame, err := marshalFrame(EventError, map[string]string{"message": message}); err == nil {
		c.enqueue(frame)
	}
}

func (c *client) writePump() {
	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(
				websocket.PingMessage, nil,
				time.Now().Add(writeWait),
			); err != nil {
				return
			}
		}
	}
}

func marshalFrame(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: payload})
}
