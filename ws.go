package mdpresent

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Message types exchanged over the presenter websocket.
const (
	MessageHello   = "hello"
	MessageState   = "state"
	MessageKey     = "key"
	MessageCommand = "command"
	MessageError   = "error"
)

// WebSocketMessage is the envelope for everything sent over /ws.
type WebSocketMessage struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`

	State *Snapshot `json:"state,omitempty"`

	// client to server
	Key          string `json:"key,omitempty"`
	Shift        bool   `json:"shift,omitempty"`
	InputFocused bool   `json:"inputFocused,omitempty"`
	Name         string `json:"name,omitempty"`
	Index        *int   `json:"index,omitempty"`

	// server to client
	PreventDefault bool   `json:"preventDefault,omitempty"`
	Error          string `json:"error,omitempty"`
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	// serializes writes, gorilla connections allow one writer at a time
	writeLock sync.Mutex
}

func (c *wsClient) writeJSON(v interface{}) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *wsClient) ping() error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait))
}

// wsHub fans session snapshots out to all connected clients.
type wsHub struct {
	log     logrus.FieldLogger
	lock    sync.Mutex
	clients map[string]*wsClient

	// stateLock orders state writes, lastSeq is the newest state sent
	stateLock sync.Mutex
	lastSeq   uint64
}

func newWSHub(log logrus.FieldLogger) *wsHub {
	return &wsHub{
		log:     log,
		clients: map[string]*wsClient{},
	}
}

func (h *wsHub) add(conn *websocket.Conn) *wsClient {
	c := &wsClient{id: uuid.New().String(), conn: conn}
	h.lock.Lock()
	h.clients[c.id] = c
	h.lock.Unlock()
	h.log.WithField("client", c.id).Debug("websocket client connected")
	return c
}

func (h *wsHub) remove(c *wsClient) {
	h.lock.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.lock.Unlock()
	if ok {
		c.conn.Close()
		h.log.WithField("client", c.id).Debug("websocket client disconnected")
	}
}

func (h *wsHub) count() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// broadcastState sends snap to every client unless a newer state already
// went out.
func (h *wsHub) broadcastState(snap Snapshot) {
	h.stateLock.Lock()
	defer h.stateLock.Unlock()
	if snap.Seq <= h.lastSeq {
		h.log.WithField("seq", snap.Seq).Debug("dropping stale state")
		return
	}
	h.lastSeq = snap.Seq
	h.broadcast(stateMessage(snap))
}

// sendState sends the initial state to a freshly added client. A client
// registered before snap was taken already received anything newer.
func (h *wsHub) sendState(c *wsClient, snap Snapshot) error {
	h.stateLock.Lock()
	defer h.stateLock.Unlock()
	if snap.Seq < h.lastSeq {
		return nil
	}
	return c.writeJSON(stateMessage(snap))
}

func (h *wsHub) broadcast(msg WebSocketMessage) {
	h.lock.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.lock.Unlock()

	for _, c := range clients {
		if err := c.writeJSON(msg); err != nil {
			h.log.WithError(err).WithField("client", c.id).Info("dropping websocket client")
			h.remove(c)
		}
	}
}

func (h *wsHub) closeAll() {
	h.lock.Lock()
	clients := h.clients
	h.clients = map[string]*wsClient{}
	h.lock.Unlock()
	for _, c := range clients {
		c.conn.Close()
	}
}

func ping(ctx context.Context, hub *wsHub, c *wsClient) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				hub.log.WithError(err).WithField("client", c.id).Info("ping failed")
				hub.remove(c)
				return
			}
		}
	}
}

func stateMessage(snap Snapshot) WebSocketMessage {
	return WebSocketMessage{Type: MessageState, State: &snap}
}

func decodeMessage(data []byte) (WebSocketMessage, error) {
	msg := WebSocketMessage{}
	err := json.Unmarshal(data, &msg)
	return msg, err
}
