package ws

import (
	"encoding/json"
	"sync"
	"time"
)

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Event announces a mutation inside a space.
type Event struct {
	Type      string    `json:"type"`
	SpaceUUID string    `json:"spaceUuid"`
	Entity    string    `json:"entity"`
	EntityID  int64     `json:"entityId,omitempty"`
	At        time.Time `json:"at"`
}

// Hub fans space events out to the subscribers of each space.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]map[Subscriber]struct{}
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
	done      chan struct{}
	closeOnce sync.Once
}

// message couples payload with space identifier.
type message struct {
	spaceUUID string
	payload   []byte
}

// subscription defines register/unregister requests.
type subscription struct {
	spaceUUID string
	client    Subscriber
}

// NewHub creates an initialized Hub.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[string]map[Subscriber]struct{}),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message, 64),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for _, clients := range h.clients {
				for c := range clients {
					c.Close()
				}
			}
			h.clients = make(map[string]map[Subscriber]struct{})
			h.mu.Unlock()
			return
		case sub := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[sub.spaceUUID]; !ok {
				h.clients[sub.spaceUUID] = make(map[Subscriber]struct{})
			}
			h.clients[sub.spaceUUID][sub.client] = struct{}{}
			h.mu.Unlock()
		case sub := <-h.unreg:
			h.mu.Lock()
			if clients, ok := h.clients[sub.spaceUUID]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.clients, sub.spaceUUID)
				}
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			if clients, ok := h.clients[msg.spaceUUID]; ok {
				for c := range clients {
					if err := c.Send(msg.payload); err != nil {
						c.Close()
						delete(clients, c)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, msg.spaceUUID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a client to a space stream.
func (h *Hub) Register(spaceUUID string, client Subscriber) {
	select {
	case h.register <- subscription{spaceUUID: spaceUUID, client: client}:
	case <-h.done:
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(spaceUUID string, client Subscriber) {
	select {
	case h.unreg <- subscription{spaceUUID: spaceUUID, client: client}:
	case <-h.done:
	}
}

// Broadcast sends payload to all space clients.
func (h *Hub) Broadcast(spaceUUID string, payload []byte) {
	select {
	case h.broadcast <- message{spaceUUID: spaceUUID, payload: payload}:
	case <-h.done:
	}
}

// Publish encodes and broadcasts a space event. A nil hub discards it.
func (h *Hub) Publish(spaceUUID, eventType, entity string, entityID int64) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(Event{
		Type:      eventType,
		SpaceUUID: spaceUUID,
		Entity:    entity,
		EntityID:  entityID,
		At:        time.Now().UTC(),
	})
	if err != nil {
		return
	}
	h.Broadcast(spaceUUID, payload)
}

// Subscribers reports how many clients listen on a space.
func (h *Hub) Subscribers(spaceUUID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[spaceUUID])
}

// Close stops the hub loop and closes every subscriber.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
