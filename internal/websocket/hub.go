package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-oneshot-console/internal/pkg/logger"
	"ai-oneshot-console/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel is the redis channel that carries session views between instances.
const ClusterChannel = "oneshot_session_events"

type Hub struct {
	// Registered clients: SessionID -> viewers (several tabs may watch one session)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	closing    chan string

	// done is closed when Run returns; sends to the hub give up after that.
	done chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out. Optional.
	rdb *redis.Client

	// instanceID marks our own redis publications so they are not delivered twice.
	instanceID string

	logger logger.ILogger
}

type clusterMessage struct {
	Origin          string          `json:"origin"`
	TargetSessionID string          `json:"target_session_id"`
	Message         json.RawMessage `json:"message,omitempty"`
	Close           bool            `json:"close,omitempty"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		closing:    make(chan string),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			metrics.WebSocketClients.Inc()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						metrics.WebSocketClients.Dec()
						break
					}
				}
				if len(h.clients[client.SessionID]) == 0 {
					delete(h.clients, client.SessionID)
					h.logger.Info("Hub", "Session has no more viewers", map[string]interface{}{"session_id": client.SessionID})
				}
			}
			h.mu.Unlock()

		case sessionID := <-h.closing:
			h.mu.Lock()
			clients := h.clients[sessionID]
			delete(h.clients, sessionID)
			for _, c := range clients {
				close(c.Send)
				metrics.WebSocketClients.Dec()
			}
			h.mu.Unlock()
			if len(clients) > 0 {
				h.logger.Info("Hub", "Closed viewers of removed session", map[string]interface{}{
					"session_id": sessionID,
					"viewers":    len(clients),
				})
			}
		}
	}
}

// remove unregisters c unless the hub has stopped.
func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// CloseSession disconnects every viewer of sessionID, here and, when redis is
// configured, on the other instances.
func (h *Hub) CloseSession(sessionID string) {
	h.closeLocal(sessionID)
	h.publishCluster(clusterMessage{TargetSessionID: sessionID, Close: true})
}

func (h *Hub) closeLocal(sessionID string) {
	select {
	case h.closing <- sessionID:
	case <-h.done:
	}
}

// Send delivers data to every local viewer of sessionID and, when redis is
// configured, to viewers connected to other instances.
func (h *Hub) Send(sessionID string, data []byte) {
	h.deliverLocal(sessionID, data)
	h.publishCluster(clusterMessage{TargetSessionID: sessionID, Message: data})
}

func (h *Hub) publishCluster(msg clusterMessage) {
	if h.rdb == nil {
		return
	}
	msg.Origin = h.instanceID
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode cluster message", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.rdb.Publish(context.Background(), ClusterChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Failed to publish to redis", map[string]interface{}{"error": err.Error()})
	}
}

// Viewers returns the number of local connections watching sessionID.
func (h *Hub) Viewers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) deliverLocal(sessionID string, data []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, client := range h.clients[sessionID] {
		select {
		case client.Send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"session_id": sessionID})
		go h.remove(client)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.instanceID {
			continue
		}
		if payload.Close {
			h.closeLocal(payload.TargetSessionID)
			continue
		}
		h.deliverLocal(payload.TargetSessionID, payload.Message)
	}
}
