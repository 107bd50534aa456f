package websocket

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/xpanvictor/parley/pkg/Logger"
	wsdevice "github.com/xpanvictor/parley/pkg/io/device/websocket"
	"github.com/xpanvictor/parley/pkg/io/registry"
)

// WebSocketHandler upgrades observers and attaches them to the event
// registry for the life of the connection.
type WebSocketHandler struct {
	logger    *Logger.Logger
	registry  registry.Registry
	upgrader  websocket.Upgrader
	queueSize int
}

func NewWebSocketHandler(logger *Logger.Logger, reg registry.Registry, queueSize int) *WebSocketHandler {
	return &WebSocketHandler{
		logger:    logger,
		registry:  reg,
		queueSize: queueSize,
		upgrader: websocket.Upgrader{
			// the status server binds to localhost by default
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleEvents streams turn events to the client until it disconnects.
// Inbound messages are read only to notice the close.
func (h *WebSocketHandler) HandleEvents(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	ep := wsdevice.New(conn, h.queueSize)
	if err := h.registry.AttachEndpoint(ep); err != nil {
		h.logger.Warnw("rejecting event subscriber", "error", err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many subscribers"), time.Now().Add(time.Second))
		ep.Close()
		return
	}
	h.logger.Infow("event subscriber connected", "endpoint", ep.ID().String(), "subscribers", h.registry.Len())

	defer func() {
		h.registry.DetachEndpoint(ep.ID())
		ep.Close()
		h.logger.Infow("event subscriber disconnected", "endpoint", ep.ID().String())
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debugw("event subscriber read error", "error", err)
			}
			return
		}
	}
}
