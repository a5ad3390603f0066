package websocket

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"proctorhub/internal/hub"
)

const maxFrameSize = 256 * 1024

var upgrader = websocket.Upgrader{
	// Dashboards are served from a separate origin in every deployment we
	// run; origin policy is enforced at the proxy.
	CheckOrigin:      func(r *http.Request) bool { return true },
	HandshakeTimeout: 10 * time.Second,
}

// Handler upgrades HTTP requests and runs one read loop per connection.
// Registration is not done here: a connection only enters the registry
// when its join event arrives, and leaves it when the transport closes.
type Handler struct {
	hub          *hub.Coordinator
	pingInterval time.Duration
	readTimeout  time.Duration
}

// NewHandler creates the WebSocket entry point for the hub.
func NewHandler(coordinator *hub.Coordinator, pingInterval, readTimeout time.Duration) *Handler {
	return &Handler{
		hub:          coordinator,
		pingInterval: pingInterval,
		readTimeout:  readTimeout,
	}
}

// HandleWebSocket upgrades the request, assigns a fresh connection id and
// pumps frames into the hub until the peer goes away.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "websocket").Msg("upgrade failed")
		return
	}

	connID := uuid.New().String()
	conn := NewConnection(connID, ws)

	log.Info().Str("module", "websocket").Str("conn", connID).
		Str("remote", r.RemoteAddr).Msg("socket connected")

	go h.runConnection(conn)
}

// runConnection owns the read side for one connection's lifetime. On any
// read error the connection is disconnected from the hub exactly once.
func (h *Handler) runConnection(conn *Connection) {
	defer func() {
		h.hub.Disconnect(conn.ID())
		_ = conn.Close()
		log.Info().Str("module", "websocket").Str("conn", conn.ID()).Msg("socket closed")
	}()

	conn.conn.SetReadLimit(maxFrameSize)
	if err := conn.conn.SetReadDeadline(time.Now().Add(h.readTimeout)); err != nil {
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	// Protocol-level pings keep intermediaries from cutting idle faculty
	// connections; the application heartbeat is separate and student-only.
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ticker.C:
				deadline := time.Now().Add(writeTimeout)
				if err := conn.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			case <-conn.ctx.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("module", "websocket").
					Str("conn", conn.ID()).Msg("read error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		h.hub.HandleEvent(conn.ID(), conn, data)
	}
}
