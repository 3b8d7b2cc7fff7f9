package sse

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/blockfall/internal/api/response"
	"github.com/mcoot/blockfall/internal/model"
)

// Hub fans out the events of a single game to SSE clients
type Hub struct {
	gameID  model.GameID
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub for a game
func NewHub(gameID model.GameID, logger *slog.Logger) *Hub {
	return &Hub{
		gameID:     gameID,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("game_id", string(gameID))),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop. Messages still buffered when the hub is
// closed are delivered before clients are disconnected.
func (h *Hub) Run() {
	h.logger.Info("sse hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("sse client registered", slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.logger.Info("sse client unregistered",
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.deliver(message)

		case <-h.done:
			for drained := false; !drained; {
				select {
				case message := <-h.broadcast:
					h.deliver(message)
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
			h.logger.Info("sse hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

func (h *Hub) deliver(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("sse message dropped - client buffer full", slog.Int("dropped", dropped))
	}
}

// Register adds a client to the hub. It returns false if the hub has
// already stopped.
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

// Broadcast sends a message to all clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("sse broadcast dropped - hub buffer full")
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Done is closed once the hub has been told to stop
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatSSEMessage formats an SSE message with event name and data
// Multi-line data is properly formatted with "data: " prefix on each line
func formatSSEMessage(eventName, data string) []byte {
	var sb strings.Builder
	sb.WriteString("event: " + eventName + "\n")
	for _, line := range splitLines(data) {
		sb.WriteString("data: " + line + "\n")
	}
	sb.WriteString("\n")
	return []byte(sb.String())
}

// splitLines splits a string into lines, handling various line endings
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// EncodeEvent formats a game event as an SSE message
func EncodeEvent(ev model.Event) ([]byte, error) {
	data, err := json.Marshal(response.EventFromModel(ev))
	if err != nil {
		return nil, err
	}
	return formatSSEMessage(string(ev.Type), string(data)), nil
}

// EventSource streams the events of a running game
type EventSource interface {
	Subscribe(ctx context.Context, gameID model.GameID) (<-chan model.Event, func(), error)
}

// HubManager keeps one hub per watched game. A hub subscribes to its game
// when the first spectator connects and stops when the game ends.
type HubManager struct {
	source EventSource
	hubs   map[model.GameID]*Hub
	mu     sync.Mutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(source EventSource, logger *slog.Logger) *HubManager {
	return &HubManager{
		source: source,
		hubs:   make(map[model.GameID]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// GetOrCreateHub returns the hub for a game, subscribing to the game if no
// hub exists yet. It fails if the game is not running.
func (m *HubManager) GetOrCreateHub(ctx context.Context, gameID model.GameID) (*Hub, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[gameID]; ok {
		return hub, nil
	}

	events, unsubscribe, err := m.source.Subscribe(ctx, gameID)
	if err != nil {
		return nil, err
	}
	// The stream opens with a frame of the current state; each client is
	// sent its own instead
	<-events

	hub := NewHub(gameID, m.logger)
	m.hubs[gameID] = hub
	go hub.Run()
	go m.pump(hub, events, unsubscribe)
	return hub, nil
}

// Close stops every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}

// HubCount returns the number of games being watched
func (m *HubManager) HubCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hubs)
}

// pump forwards game events to the hub until the game's stream closes or
// the hub is removed
func (m *HubManager) pump(hub *Hub, events <-chan model.Event, unsubscribe func()) {
	defer unsubscribe()
	defer m.removeIfCurrent(hub)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			msg, err := EncodeEvent(ev)
			if err != nil {
				m.logger.Error("failed to encode event",
					slog.String("game_id", string(hub.gameID)),
					slog.String("error", err.Error()))
				continue
			}
			hub.Broadcast(msg)
		case <-hub.Done():
			return
		}
	}
}

func (m *HubManager) removeIfCurrent(hub *Hub) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hubs[hub.gameID] == hub {
		delete(m.hubs, hub.gameID)
	}
	hub.Close()
}
