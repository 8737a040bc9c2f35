package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/dto"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisChannel relays pushes between instances. Every instance
// subscribes and delivers to the target user's local connections.
const redisChannel = "notification_events"

type Hub struct {
	// Registered clients map: UserId -> list of clients (multi-device)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance delivery. Nil disables it.
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserId] = append(h.clients[client.UserId], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserId})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserId]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserId] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserId]) == 0 {
					delete(h.clients, client.UserId)
					h.logger.Info("Hub", "Client fully unregistered", map[string]interface{}{"user_id": client.UserId})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send pushes a notification to every open connection of one user, then
// relays through Redis so other instances can reach their connections.
func (h *Hub) Send(userId uuid.UUID, notification dto.NotificationResponse) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": notification,
	})

	h.mu.RLock()
	clients, localFound := h.clients[userId]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"user_id": userId})
				close(client.Send)
				h.unregister <- client
			}
		}
	}

	if h.rdb != nil {
		payload, _ := json.Marshal(relayPayload{
			TargetUserId: userId.String(),
			Message:      data,
		})
		h.rdb.Publish(context.Background(), redisChannel, payload)
	}
}

// Broadcast pushes a notification to ALL connected clients on every
// instance. Broadcasts are push-only and never persisted per user.
func (h *Hub) Broadcast(notification dto.NotificationResponse) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": notification,
	})

	h.deliverToAll(data)

	if h.rdb != nil {
		payload, _ := json.Marshal(relayPayload{
			TargetUserId: "*",
			Message:      data,
		})
		h.rdb.Publish(context.Background(), redisChannel, payload)
	}
}

type relayPayload struct {
	TargetUserId string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload relayPayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis relay parse error: %v", err)
			continue
		}

		if payload.TargetUserId == "*" {
			h.deliverToAll(payload.Message)
			continue
		}

		uid, err := uuid.Parse(payload.TargetUserId)
		if err != nil {
			continue
		}

		h.mu.RLock()
		clients, ok := h.clients[uid]
		h.mu.RUnlock()

		if ok {
			for _, client := range clients {
				select {
				case client.Send <- payload.Message:
				default:
					close(client.Send)
					h.unregister <- client
				}
			}
		}
	}
}

func (h *Hub) deliverToAll(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				close(client.Send)
				h.unregister <- client
			}
		}
	}
}
