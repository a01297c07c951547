package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/threemeal/threemeal-backend/pkg/logger"
)

// Notification is pushed to every open session of a user.
type Notification struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Notifier delivers realtime notifications to users.
type Notifier interface {
	NotifyUser(userID uint, n Notification)
}

// Client is one websocket session of a user
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Send   chan []byte
}

type userMessage struct {
	userID uint
	data   []byte
}

// Hub tracks sessions per user; a user may be connected from several devices.
type Hub struct {
	clients    map[uint][]*Client
	register   chan *Client
	unregister chan *Client
	deliver    chan userMessage
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		deliver:    make(chan userMessage, 1024),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			sessions := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.deliver:
			h.mu.RLock()
			clients := append([]*Client(nil), h.clients[msg.userID]...)
			h.mu.RUnlock()
			for _, client := range clients {
				select {
				case client.Send <- msg.data:
				default:
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"user_id": msg.userID,
					})
					h.removeClient(client)
				}
			}
		}
	}
}

// Stop ends Run. It must be called at most once.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	kept := list[:0]
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = kept
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(kept),
	})
}

// NotifyUser queues n for every session of userID. Messages are dropped
// when the hub is saturated.
func (h *Hub) NotifyUser(userID uint, n Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	data, err := json.Marshal(n)
	if err != nil {
		logger.Error("Failed to marshal notification", err)
		return
	}

	select {
	case h.deliver <- userMessage{userID: userID, data: data}:
	default:
		logger.Warn("Notification channel full, message dropped", map[string]interface{}{
			"user_id": userID,
			"type":    n.Type,
		})
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// IsUserOnline reports whether userID has at least one open session
func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// NoopNotifier discards notifications.
type NoopNotifier struct{}

func (NoopNotifier) NotifyUser(uint, Notification) {}
