package sse

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/blockmatch/internal/model"
)

// Hub fans board events out to the SSE clients watching one board
type Hub struct {
	boardID model.BoardID
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger
	seq     uint64 // Only touched by Run

	// Channels for managing clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	closeOnce  sync.Once
}

type message struct {
	event string
	data  string
}

// NewHub creates a new Hub for a board
func NewHub(boardID model.BoardID, logger *slog.Logger) *Hub {
	return &Hub{
		boardID:    boardID,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("board_id", string(boardID))),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Debug("sse hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("sse client registered",
				slog.String("remote", client.remote),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.logger.Info("sse client unregistered",
					slog.String("remote", client.remote),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case <-h.done:
			// Deliver whatever was queued before the close, such as the
			// board_closed notice, then end every stream
			for drained := false; !drained; {
				select {
				case msg := <-h.broadcast:
					h.fanOut(msg)
				default:
					drained = true
				}
			}
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Debug("sse hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// fanOut numbers a message and offers it to every client without blocking
func (h *Hub) fanOut(msg message) {
	h.seq++
	frame := formatSSEMessage(h.seq, msg.event, msg.data)
	h.mu.RLock()
	dropped := 0
	for client := range h.clients {
		select {
		case client.send <- frame:
		default:
			dropped++
		}
	}
	h.mu.RUnlock()
	if dropped > 0 {
		h.logger.Warn("sse messages dropped - client buffers full",
			slog.String("event", msg.event),
			slog.Int("dropped", dropped))
	}
}

// Register adds a client to the hub. It reports false when the hub has
// already been closed.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastEvent queues an event for every client without blocking
func (h *Hub) BroadcastEvent(eventName, data string) {
	select {
	case h.broadcast <- message{event: eventName, data: data}:
	default:
		h.logger.Warn("sse broadcast dropped - hub buffer full", slog.String("event", eventName))
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatSSEMessage formats an SSE frame with an id, event name and data.
// Each line of data gets its own "data: " prefix.
func formatSSEMessage(id uint64, eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("id: ")
	b.WriteString(strconv.FormatUint(id, 10))
	b.WriteString("\nevent: ")
	b.WriteString(eventName)
	b.WriteByte('\n')
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// splitLines splits a string into lines, dropping carriage returns
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// HubManager manages hubs for all watched boards
type HubManager struct {
	hubs   map[model.BoardID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.BoardID]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// GetOrCreateHub returns the hub for a board, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(boardID model.BoardID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[boardID]; ok {
		return hub
	}

	hub := NewHub(boardID, m.logger)
	m.hubs[boardID] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a board, or nil if nobody is watching it
func (m *HubManager) GetHub(boardID model.BoardID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[boardID]
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(boardID model.BoardID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[boardID]; ok {
		hub.Close()
		delete(m.hubs, boardID)
		m.logger.Debug("sse hub removed", slog.String("board_id", string(boardID)))
	}
}

// CleanupEmptyHubs removes hubs with no clients
func (m *HubManager) CleanupEmptyHubs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removedCount := 0
	for id, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, id)
			removedCount++
		}
	}
	if removedCount > 0 {
		m.logger.Info("sse empty hubs cleaned up", slog.Int("removed", removedCount))
	}
}

// Close shuts every hub down
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}
