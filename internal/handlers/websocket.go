// -----------------------------------------------------------------------
// Last Modified: Saturday, 17th October 2026 10:12:05 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// SnapshotProvider supplies the dashboard state sent to clients
type SnapshotProvider interface {
	Snapshot(ctx context.Context) models.DashboardSnapshot
}

// WSMessage is the envelope of every websocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StatePayload carries the dashboard snapshot plus the server instance ID.
// Clients reload when the instance ID changes.
type StatePayload struct {
	ServerInstanceID string                   `json:"serverInstanceId"`
	Dashboard        models.DashboardSnapshot `json:"dashboard"`
}

type WebSocketHandler struct {
	logger           arbor.ILogger
	snapshots        SnapshotProvider
	clients          map[*websocket.Conn]*sync.Mutex // per-connection write lock
	mu               sync.RWMutex
	serverInstanceID string
}

// NewWebSocketHandler creates the handler and subscribes it to insight events
func NewWebSocketHandler(eventService interfaces.EventService, snapshots SnapshotProvider, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		snapshots:        snapshots,
		clients:          make(map[*websocket.Conn]*sync.Mutex),
		serverInstanceID: uuid.New().String(),
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized with server instance ID")

	if eventService != nil {
		h.SubscribeToInsightEvents(eventService)
	}

	return h
}

// ServerInstanceID returns the ID generated at startup
func (h *WebSocketHandler) ServerInstanceID() string {
	return h.serverInstanceID
}

// HandleWebSocket upgrades the connection, sends the current state and keeps
// the connection open until the client leaves
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", clientCount).Msg("WebSocket client connected")

	if data, err := h.stateMessage(r.Context()); err == nil {
		h.send(conn, data)
	}

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		clientCount := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Int("clients", clientCount).Msg("WebSocket client disconnected")
	}()

	// Read messages from client (keep connection alive)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscribeToInsightEvents forwards insight lifecycle events and state changes to every client
func (h *WebSocketHandler) SubscribeToInsightEvents(eventService interfaces.EventService) {
	forward := func(messageType string) interfaces.EventHandler {
		return func(ctx context.Context, event interfaces.Event) error {
			return h.Broadcast(messageType, event.Payload)
		}
	}

	subscriptions := map[interfaces.EventType]interfaces.EventHandler{
		interfaces.EventInsightLoading: forward("insight_loading"),
		interfaces.EventInsightReady:   forward("insight_ready"),
		interfaces.EventInsightFailed:  forward("insight_failed"),
		interfaces.EventSelectionChanged: func(ctx context.Context, event interfaces.Event) error {
			data, err := h.stateMessage(ctx)
			if err != nil {
				return err
			}
			h.broadcastRaw(data)
			return nil
		},
	}

	for eventType, handler := range subscriptions {
		if err := eventService.Subscribe(eventType, handler); err != nil {
			h.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to subscribe websocket handler")
		}
	}
}

// Broadcast sends one typed message to every connected client
func (h *WebSocketHandler) Broadcast(messageType string, payload interface{}) error {
	data, err := json.Marshal(WSMessage{Type: messageType, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", messageType, err)
	}
	h.broadcastRaw(data)
	return nil
}

func (h *WebSocketHandler) stateMessage(ctx context.Context) ([]byte, error) {
	payload := StatePayload{ServerInstanceID: h.serverInstanceID}
	if h.snapshots != nil {
		payload.Dashboard = h.snapshots.Snapshot(ctx)
	}

	data, err := json.Marshal(WSMessage{Type: "state", Payload: payload})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal state message")
		return nil, err
	}
	return data, nil
}

func (h *WebSocketHandler) broadcastRaw(data []byte) {
	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
	}
	h.mu.RUnlock()

	for _, conn := range clients {
		h.send(conn, data)
	}
}

func (h *WebSocketHandler) send(conn *websocket.Conn, data []byte) {
	h.mu.RLock()
	mutex, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	mutex.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := conn.WriteMessage(websocket.TextMessage, data)
	mutex.Unlock()

	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send websocket message")
	}
}
