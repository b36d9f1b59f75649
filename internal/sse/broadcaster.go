package sse

import (
	"maps"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Message represents a message sent via Server-Sent Events or websocket
type Message struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// Hub fans room events out to subscribers, keyed by room code
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[chan Message]string // room -> channel -> playerID
	logger zerolog.Logger
}

// NewHub creates an empty hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[chan Message]string),
		logger: logger.With().Str("component", "Hub").Logger(),
	}
}

// Subscription is a live subscriber. Stop unsubscribes it, so it can be
// handed to a session's timer registry.
type Subscription struct {
	C    chan Message
	hub  *Hub
	room string
	once sync.Once
}

// Stop removes the subscription and closes its channel
func (s *Subscription) Stop() bool {
	stopped := false
	s.once.Do(func() {
		s.hub.remove(s.room, s.C)
		stopped = true
	})
	return stopped
}

// Subscribe adds a client for playerID in room
func (h *Hub) Subscribe(room, playerID string) *Subscription {
	ch := make(chan Message, BufferSize)
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.rooms[room]
	if clients == nil {
		clients = make(map[chan Message]string)
		h.rooms[room] = clients
	}
	// Warn if the same player has multiple connections
	for _, pid := range clients {
		if pid == playerID {
			h.logger.Warn().Str("room", room).Str("player", playerID).Msg("player opened an additional connection")
			break
		}
	}
	clients[ch] = playerID
	return &Subscription{C: ch, hub: h, room: room}
}

func (h *Hub) remove(room string, ch chan Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.rooms[room]
	if _, ok := clients[ch]; !ok {
		return
	}
	delete(clients, ch)
	close(ch)
	if len(clients) == 0 {
		delete(h.rooms, room)
	}
	h.logger.Debug().Str("room", room).Int("clients", len(clients)).Msg("client removed")
}

// Clients returns the number of subscribers in room
func (h *Hub) Clients(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast sends a message to all subscribers in room
func (h *Hub) Broadcast(room, event, data string) {
	h.BroadcastPersonalized(room, func(string) string { return data }, event)
}

// BroadcastPersonalized sends each subscriber the payload rendered for its player
func (h *Hub) BroadcastPersonalized(room string, renderFunc func(playerID string) string, event string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	// Hold the read lock while sending so remove cannot close a channel mid-send.
	clients := maps.Clone(h.rooms[room])
	sent := 0
	for client, playerID := range clients {
		msg := Message{Event: event, Data: renderFunc(playerID)}
		select {
		case client <- msg:
			sent++
		case <-time.After(SendTimeoutMillis * time.Millisecond):
			// Timeout - skip this client to avoid blocking
		}
	}
	h.logger.Debug().Str("room", room).Str("event", event).Int("sent", sent).Int("clients", len(clients)).Msg("broadcast")
}
