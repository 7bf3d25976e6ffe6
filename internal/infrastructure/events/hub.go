package events

import (
	"context"
	"encoding/json"
	"fmt"
	"listing-repricer/internal/infrastructure/logging"
	"listing-repricer/internal/infrastructure/metrics"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	WriteWait    = 10 * time.Second
	PongWait     = 60 * time.Second
	PingInterval = (PongWait * 9) / 10

	defaultClientBuffer = 64
)

// Hub mantiene los clientes websocket suscriptos al stream de eventos.
// Un cliente lento pierde eventos en lugar de bloquear al scheduler.
type Hub struct {
	upgrader websocket.Upgrader
	buffer   int

	mu      sync.RWMutex
	clients map[*hubClient]struct{}
	closed  bool
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// NewHub crea el hub; buffer es la cola de salida por cliente
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// la API de admin ya autentica por API key
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		buffer:  buffer,
		clients: make(map[*hubClient]struct{}),
	}
}

func (h *Hub) Name() string { return "websocket" }

// ServeHTTP hace el upgrade y registra al cliente
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WarnWithError(r.Context(), "WebSocket upgrade failed", err, nil)
		return
	}

	client := &hubClient{conn: conn, send: make(chan []byte, h.buffer)}
	if !h.register(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(WriteWait))
		_ = conn.Close()
		return
	}

	logging.Info(r.Context(), "WebSocket client connected", logging.Fields{
		logging.FieldHTTPRemoteIP: r.RemoteAddr,
	})

	go h.writePump(client)
	go h.readPump(client)
}

// Send difunde el evento a todos los clientes conectados
func (h *Hub) Send(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			logging.Warn(context.Background(), "Dropping event for slow WebSocket client", logging.Fields{
				"event_id": event.ID,
			})
		}
	}
	return nil
}

// Clients retorna la cantidad de clientes conectados
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close desconecta a todos los clientes y rechaza nuevos
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := make([]*hubClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
	return nil
}

func (h *Hub) register(c *hubClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.SetWebSocketClients(len(h.clients))
	return true
}

func (h *Hub) unregister(c *hubClient) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c)
		metrics.SetWebSocketClients(len(h.clients))
		h.mu.Unlock()

		close(c.send)
	})
}

// readPump descarta mensajes entrantes y detecta la desconexión
func (h *Hub) readPump(c *hubClient) {
	defer h.unregister(c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *hubClient) {
	ticker := time.NewTicker(PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}
