package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains the set of connected clients and fans events out to all of
// them or to a single one. A Redis pub/sub bridge carries broadcasts to other
// instances; published events are origin-tagged so the publishing instance
// skips its own copy and every client sees each event exactly once.
type Hub struct {
	clients   map[string]*Client
	mu        sync.RWMutex
	logger    *zap.Logger
	pub       Publisher
	sub       Subscriber
	cancelSub func()
	originID  string
}

// Publisher publishes classroom events for other instances.
type Publisher interface {
	PublishClassroomEvent(origin, event string, payload []byte) error
}

// Subscriber subscribes to the classroom channel and invokes handler for
// incoming events.
type Subscriber interface {
	SubscribeClassroom(handler func(origin, event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a hub. pub and sub may be nil for single-instance runs.
func NewHub(logger *zap.Logger, originID string, pub Publisher, sub Subscriber) *Hub {
	h := &Hub{
		clients:  make(map[string]*Client),
		logger:   logger,
		pub:      pub,
		sub:      sub,
		originID: originID,
	}
	if sub != nil {
		cancel, err := sub.SubscribeClassroom(func(origin, event string, payload []byte) {
			if origin == h.originID {
				return
			}
			h.broadcastLocal(event, json.RawMessage(payload))
		})
		if err != nil {
			logger.Warn("classroom subscription failed, cross-instance fan-out disabled", zap.Error(err))
		} else {
			h.cancelSub = cancel
		}
	}
	return h
}

// Close cancels the Redis subscription.
func (h *Hub) Close() {
	if h.cancelSub != nil {
		h.cancelSub()
	}
}

// Register adds a client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("client_id", c.ID))
}

// Unregister removes a client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()
	h.logger.Debug("client disconnected", zap.String("client_id", c.ID))
}

// Broadcast sends an event to every connected client, locally and on other
// instances.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.broadcastLocal(event, data)
	if h.pub != nil {
		_ = h.pub.PublishClassroomEvent(h.originID, event, data)
	}
}

// SendTo sends an event to a single connected client.
func (h *Hub) SendTo(connID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	c.enqueue(WSMessage{Event: event, Data: data})
}

// Disconnect forcibly closes a client's connection. The client's read loop
// observes the close and runs the normal disconnect path.
func (h *Hub) Disconnect(connID string) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	_ = c.conn.Close()
}

func (h *Hub) broadcastLocal(event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.enqueue(msg)
	}
}
