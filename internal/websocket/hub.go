package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"chat-relay-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	channelPrefix = "conversation_updates:"
	writeWait     = 10 * time.Second
	sendBuffer    = 16
)

// client owns one socket. Only writePump writes to conn.
type client struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, sendBuffer)}
}

// trySend queues data without blocking and reports false when the client
// is closed or its buffer is full.
func (c *client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("WebSocket write failed: %v", err)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Hub fans exchange events out to websocket clients watching a phone.
// With Redis, events travel through pub/sub so every instance sees them;
// without it they are delivered in-process.
type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*client
	publisher   *redis.Client
	subscriber  *redis.Client
	jwtSecret   []byte
	cancelFuncs map[string]context.CancelFunc
}

// NewHub accepts nil Redis clients for single-instance deployments.
func NewHub(publisher, subscriber *redis.Client, jwtSecret string) *Hub {
	return &Hub{
		connections: make(map[string][]*client),
		publisher:   publisher,
		subscriber:  subscriber,
		jwtSecret:   []byte(jwtSecret),
		cancelFuncs: make(map[string]context.CancelFunc),
	}
}

// HandleWebSocket authenticates the token query param and streams events
// for the phone in its claims.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if len(h.jwtSecret) == 0 {
		http.Error(w, "WebSocket disabled", http.StatusNotFound)
		return
	}

	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	phone, _ := claims["phone"].(string)
	if phone == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := newClient(conn)
	h.registerConnection(phone, c)
	go c.writePump()

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(phone, c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(phone string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[phone] = append(h.connections[phone], c)

	if h.subscriber != nil && len(h.connections[phone]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[phone] = cancel
		go h.subscribeToPubSub(ctx, phone)
	}

	log.Printf("WebSocket connected: phone %s (total: %d)", phone, len(h.connections[phone]))
}

// unregisterConnection is safe to call more than once for the same client.
func (h *Hub) unregisterConnection(phone string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.close()

	conns := h.connections[phone]
	found := false
	for i, existing := range conns {
		if existing == c {
			h.connections[phone] = append(conns[:i:i], conns[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return
	}

	if len(h.connections[phone]) == 0 {
		delete(h.connections, phone)
		if cancel, ok := h.cancelFuncs[phone]; ok {
			cancel()
			delete(h.cancelFuncs, phone)
		}
	}

	log.Printf("WebSocket disconnected: phone %s", phone)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, phone string) {
	pubsub := h.subscriber.Subscribe(ctx, channelPrefix+phone)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(phone, []byte(msg.Payload))
		}
	}
}

// broadcast never blocks on a socket. Clients whose buffer is full are dropped.
func (h *Hub) broadcast(phone string, data []byte) {
	h.mu.RLock()
	clients := append([]*client(nil), h.connections[phone]...)
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(data) {
			log.Printf("WebSocket client for phone %s is not keeping up, dropping it", phone)
			h.unregisterConnection(phone, c)
			c.conn.Close()
		}
	}
}

// PublishExchange implements services.ExchangePublisher.
func (h *Hub) PublishExchange(ctx context.Context, event models.ExchangeEvent) {
	data, err := json.Marshal(models.WSMessage{Type: models.WSTypeExchange, Payload: event})
	if err != nil {
		return
	}

	if h.publisher == nil {
		h.broadcast(event.Phone, data)
		return
	}

	if err := h.publisher.Publish(ctx, channelPrefix+event.Phone, string(data)).Err(); err != nil {
		log.Printf("failed to publish exchange for %s: %v", event.Phone, err)
	}
}

// Watchers reports how many sockets are open for phone.
func (h *Hub) Watchers(phone string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[phone])
}
