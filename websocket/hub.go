package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub tracks connected clients grouped by the interview session they watch
// and fans session progress events out to them
type Hub struct {
	clients    map[*Client]bool
	bySession  map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	UserID    string
	SessionID string
}

// Event is the wire shape for session progress pushes
type Event struct {
	Type      string      `json:"type"` // "question.ready", "evaluation.ready", "session.completed"
	SessionID string      `json:"session_id"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		bySession:  make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if client.SessionID != "" {
				if h.bySession[client.SessionID] == nil {
					h.bySession[client.SessionID] = make(map[*Client]bool)
				}
				h.bySession[client.SessionID][client] = true
			}
			h.mu.Unlock()
			slog.Info("Client registered", "user_id", client.UserID, "session_id", client.SessionID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if watchers, ok := h.bySession[client.SessionID]; ok {
					delete(watchers, client)
					if len(watchers) == 0 {
						delete(h.bySession, client.SessionID)
					}
				}
				close(client.Send)
			}
			h.mu.Unlock()
			slog.Info("Client unregistered", "user_id", client.UserID, "session_id", client.SessionID)
		}
	}
}

// RegisterClient attaches a connection watching one session
func (h *Hub) RegisterClient(conn *websocket.Conn, userID, sessionID string) *Client {
	client := &Client{
		Hub:       h,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		UserID:    userID,
		SessionID: sessionID,
	}

	h.register <- client
	return client
}

// PublishEvent sends a session progress event to every client watching the
// session. Delivery is best-effort: a client with a full send buffer is
// dropped rather than blocking the publisher.
func (h *Hub) PublishEvent(sessionID, eventType string, payload interface{}) {
	event := Event{
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	messageBytes, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal session event", "error", err, "session_id", sessionID, "type", eventType)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.bySession[sessionID] {
		select {
		case client.Send <- messageBytes:
		default:
			slog.Warn("Dropping slow websocket client", "user_id", client.UserID, "session_id", sessionID)
		}
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(64 * 1024)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// The progress channel is push-only; incoming frames keep the connection
	// alive but carry no commands
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
