package ws_room

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/humanbelnik/storypoker/internal/model"
)

const sendBuffer = 64

// Hub fans frames out to the stream subscribers of each room. Registration goes
// through the run loop; broadcasts only take the read lock.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger *slog.Logger
}

type HubOption func(*Hub)

func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run serves register and unregister requests until ctx is done, then drops every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for roomID, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, roomID)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register hands the client to the run loop. It returns false once the hub is stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.rooms[client.viewer.RoomID]; !exists {
		h.rooms[client.viewer.RoomID] = make(map[*Client]bool)
	}
	h.rooms[client.viewer.RoomID][client] = true

	h.logger.Info("client registered",
		slog.String("member_id", client.viewer.MemberID),
		slog.String("room_id", client.viewer.RoomID))
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.removeLocked(client) {
		h.logger.Info("client unregistered",
			slog.String("member_id", client.viewer.MemberID),
			slog.String("room_id", client.viewer.RoomID))
	}
}

// removeLocked reports whether the client was still registered. The caller holds mu.
func (h *Hub) removeLocked(client *Client) bool {
	roomClients, exists := h.rooms[client.viewer.RoomID]
	if !exists || !roomClients[client] {
		return false
	}
	delete(roomClients, client)
	close(client.send)
	if len(roomClients) == 0 {
		delete(h.rooms, client.viewer.RoomID)
	}
	return true
}

// BroadcastToRoom sends the frame to every client of the room accepted by keep.
// A nil keep means everybody. Clients with a full buffer are dropped.
func (h *Hub) BroadcastToRoom(roomID string, frame model.Frame, keep func(model.Viewer) bool) int {
	raw, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("failed to marshal frame", slog.String("action", string(frame.Action)), slog.String("error", err.Error()))
		return 0
	}

	var (
		sent int
		slow []*Client
	)
	h.mu.RLock()
	for client := range h.rooms[roomID] {
		if keep != nil && !keep(client.viewer) {
			continue
		}
		select {
		case client.send <- raw:
			sent++
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	if len(slow) > 0 {
		h.mu.Lock()
		for _, client := range slow {
			if h.removeLocked(client) {
				h.logger.Warn("dropped slow client",
					slog.String("member_id", client.viewer.MemberID),
					slog.String("room_id", roomID))
			}
		}
		h.mu.Unlock()
	}

	return sent
}

func (h *Hub) SendToMember(roomID, memberID string, frame model.Frame) int {
	return h.BroadcastToRoom(roomID, frame, func(v model.Viewer) bool {
		return v.MemberID == memberID
	})
}

func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
