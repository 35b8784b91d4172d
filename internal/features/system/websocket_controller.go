package system

import (
	"facility-report/internal/events"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

type WebSocketController struct {
	Bus    events.Bus
	Logger *zap.Logger
}

func NewWebSocketController(bus events.Bus, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{
		Bus:    bus,
		Logger: logger,
	}
}

// HandleWebSocket streams every broadcast event to the connected client as
// JSON {event, payload}. Clients re-fetch the report list on any event;
// delivery is best-effort.
func (h *WebSocketController) HandleWebSocket(c *websocket.Conn) {
	eventCh, cancel := h.Bus.Subscribe()
	defer cancel()

	// Reader goroutine: the only reliable way to notice a client going away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			if err := c.WriteJSON(event); err != nil {
				h.Logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-done:
			return
		}
	}
}
