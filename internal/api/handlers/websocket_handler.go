package handlers

import (
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/sportsiq/backend/internal/tracker"
	"github.com/sportsiq/backend/pkg/logger"
)

// WebSocketHandler streams tracked query events to connected clients, for
// live monitoring dashboards.
type WebSocketHandler struct {
	tracker *tracker.Tracker
}

func NewWebSocketHandler(trk *tracker.Tracker) *WebSocketHandler {
	return &WebSocketHandler{tracker: trk}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	events, cancel := h.tracker.Subscribe()
	defer func() {
		cancel()
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	// Reads only matter for detecting disconnects.
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
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := c.WriteJSON(event); err != nil {
				logger.Debug("Failed to write WebSocket event", zap.Error(err))
				return
			}
		}
	}
}
