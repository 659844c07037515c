package server

import (
	"net/http"
	"time"

	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/logger"

	"github.com/gorilla/websocket"
)

// handleEvents upgrades GET /v1/events to a websocket and writes every
// published event as a JSON text frame until either side goes away.
func (s *Server) handleEvents(w http.ResponseWriter, req *http.Request) {
	log := logger.DeriveRequestLogger(req.Context(), s.logger)
	if s.hub == nil {
		http.Error(w, "event streaming is not enabled", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ch, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()
	log.Info("event subscriber connected", "subscribers", s.hub.Subscribers())

	// Reads only to notice the peer closing the connection.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(constants.EventWriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(constants.EventWriteTimeout))
			if writeErr := conn.WriteJSON(ev); writeErr != nil {
				log.Debug("failed to write event", "error", writeErr)
				return
			}
		case <-clientGone:
			log.Debug("event subscriber disconnected")
			return
		case <-req.Context().Done():
			return
		}
	}
}
