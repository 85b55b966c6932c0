// websocket.go - Push channel for navigation events. Connected
// frontends get a small envelope whenever the view changes; they pull
// the actual snapshot over the REST API.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mesh-visualizer/backend/internal/nav"
)

// WebSocket message types.
const (
	// Client -> Server
	MsgTypePing = "ping"

	// Server -> Client
	MsgTypePong        = "pong"
	MsgTypeSiteLoaded  = nav.EventSiteLoaded
	MsgTypeViewUpdate  = nav.EventViewUpdate
	MsgTypeRenderError = nav.EventRenderError
)

// WSMessage is the wire envelope for both directions.
type WSMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

const writeTimeout = 10 * time.Second

// Hub tracks connected frontends and fans navigation events out to
// them.
type Hub struct {
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex // per-conn write lock
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The REST API already allows cross-origin use; the socket
			// carries no credentials.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:     log.With().Str("component", "ws").Logger(),
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// HandleWebSocket upgrades the connection and serves it until the
// client goes away.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return NewBadRequestError("websocket upgrade failed", err)
	}

	writeLock := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = writeLock
	count := len(h.clients)
	h.mu.Unlock()
	h.log.Debug().Int("clients", count).Msg("client connected")

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("client read failed")
			}
			return nil
		}
		if msg.Type == MsgTypePing {
			h.send(conn, writeLock, WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
		}
	}
}

// Broadcast pushes a navigation event to every connected client.
// Installed as the controller's notifier.
func (h *Hub) Broadcast(event nav.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Msg("encoding event")
		return
	}
	msg := WSMessage{
		Type:      event.Type,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}

	h.mu.Lock()
	conns := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for conn, lock := range h.clients {
		conns[conn] = lock
	}
	h.mu.Unlock()

	for conn, lock := range conns {
		h.send(conn, lock, msg)
	}
}

// ClientCount returns the number of connected frontends.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) send(conn *websocket.Conn, lock *sync.Mutex, msg WSMessage) {
	lock.Lock()
	defer lock.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		h.log.Debug().Err(err).Msg("client write failed")
	}
}
