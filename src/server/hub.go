package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"quake-observer/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// Run is the hub loop. It tracks connected clients until ctx is cancelled or
// Shutdown is called, then disconnects all of them.
func (s *DashboardServer) Run(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case client := <-s.register:
			s.clientsMu.Lock()
			s.clients[client] = struct{}{}
			n := len(s.clients)
			s.clientsMu.Unlock()
			s.Logger.Debug("Client registered (%d connected)", n)

		case client := <-s.unregister:
			s.clientsMu.Lock()
			delete(s.clients, client)
			s.clientsMu.Unlock()
			client.shutdown()

		case <-ctx.Done():
			s.cancel()
			s.disconnectAll()
			return

		case <-s.ctx.Done():
			s.disconnectAll()
			return
		}
	}
}

func (s *DashboardServer) disconnectAll() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for client := range s.clients {
		client.shutdown()
		delete(s.clients, client)
	}
}

// ClientCount returns the number of connected websocket clients.
func (s *DashboardServer) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

// handleWebSocket gives the new connection its own session. The session starts
// immediately, so the first message the browser sees is its filter.
func (s *DashboardServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(s, conn)
	go client.writePump()

	select {
	case s.register <- client:
	case <-s.done:
		client.shutdown()
		return
	}

	session, err := s.Registry.Open(s.ctx, client)
	if err != nil {
		s.Logger.Error("Failed to open session: %v", err)
		s.unregisterClient(client)
		return
	}
	client.mu.Lock()
	client.sessionID = session.ID
	client.mu.Unlock()

	go client.readPump()
}

// -----------------------------------------------------------------------------

// unregisterClient detaches client from the hub and closes its session.
func (s *DashboardServer) unregisterClient(client *Client) {
	select {
	case s.unregister <- client:
	case <-s.done:
		client.shutdown()
	}

	client.mu.Lock()
	id := client.sessionID
	client.mu.Unlock()
	if id != "" {
		s.Registry.Close(id)
	}
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// handleClientMessage applies one browser command to the client's session.
// Returns false when the connection should be dropped.
func (s *DashboardServer) handleClientMessage(client *Client, message []byte) bool {
	var cmd models.MClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		return false
	}

	client.mu.Lock()
	id := client.sessionID
	client.mu.Unlock()

	switch cmd.Command {
	case models.CommandFilter:
		if cmd.MFilterPatch.IsEmpty() {
			return true
		}
		if _, err := s.Registry.UpdateFilter(id, cmd.MFilterPatch); err != nil {
			client.Publish(errorUpdate(err))
		}

	case models.CommandRetry:
		if err := s.Registry.Retry(id); err != nil {
			client.Publish(errorUpdate(err))
		}

	default:
		s.Logger.Debug("Ignoring unknown command %q", cmd.Command)
	}
	return true
}

// -----------------------------------------------------------------------------

func errorUpdate(err error) models.MViewUpdate {
	return models.MViewUpdate{
		Type:      models.UpdateTypeError,
		Payload:   gin.H{"error": err.Error(), "kind": errorKind(err)},
		Timestamp: time.Now().UnixMilli(),
	}
}
