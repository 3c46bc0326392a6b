package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/papo-live/papo/internal/ai"
	"github.com/papo-live/papo/internal/domain"
	"github.com/papo-live/papo/internal/room"
)

// Hub tracks every connected client and fans events out to room members or
// to the whole server. Room membership itself lives in the registry; the hub
// only resolves member connection ids to live clients.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]*Client
	registry  *room.Registry
	responder ai.Responder
	logger    zerolog.Logger

	// eventMu serializes each membership mutation with the broadcasts it
	// triggers, so no member ever observes a roster older than one it has
	// already seen.
	eventMu sync.Mutex
}

// Config carries the hub's dependencies.
type Config struct {
	Registry  *room.Registry
	Responder ai.Responder
	Logger    *zerolog.Logger
}

// NewHub creates a new Hub.
func NewHub(cfg Config) *Hub {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "hub").Logger()
	}
	return &Hub{
		clients:   make(map[string]*Client),
		registry:  cfg.Registry,
		responder: cfg.Responder,
		logger:    logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	h.logger.Debug().Str("connID", c.ID).Str("username", c.session.identity.Username).Msg("client registered")
}

// Unregister removes a client and runs its disconnect cleanup: the implicit
// leave of any held room happens here, exactly once, in the read goroutine.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()

	c.closeSend()
	c.session.disconnect()

	h.logger.Debug().Str("connID", c.ID).Msg("client unregistered")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// sendToRoom delivers a frame to every current member of a room.
func (h *Hub) sendToRoom(code string, data []byte) {
	members, ok := h.registry.Members(code)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range members {
		if c, ok := h.clients[id]; ok {
			c.Send(data)
		}
	}
}

// broadcastAll delivers a frame to every connected client, in or out of rooms.
func (h *Hub) broadcastAll(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.Send(data)
	}
}

// roomRoster builds the member list of a room in join order.
func (h *Hub) roomRoster(code string) []domain.Member {
	members, ok := h.registry.Members(code)
	if !ok {
		return nil
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	roster := make([]domain.Member, 0, len(members))
	for _, id := range members {
		c, ok := h.clients[id]
		if !ok {
			continue
		}
		roster = append(roster, c.session.member())
	}
	return roster
}

// broadcastRoomPresence refreshes roster and count for all room members.
func (h *Hub) broadcastRoomPresence(code string) {
	roster := h.roomRoster(code)
	h.sendToRoom(code, frame(domain.EventRoomUsers, roster))
	h.sendToRoom(code, frame(domain.EventRoomUserCount, len(roster)))
}

// broadcastPublicRooms pushes the public listing to every connected client.
// This powers the lobby view, so it goes out on every membership change.
func (h *Hub) broadcastPublicRooms() {
	h.broadcastAll(frame(domain.EventRoomsList, h.registry.PublicRooms()))
}

// frame builds an envelope frame ready for the wire.
func frame(event string, data any) []byte {
	payload, _ := json.Marshal(data)
	out, _ := json.Marshal(domain.Envelope{Event: event, Data: payload})
	return out
}
