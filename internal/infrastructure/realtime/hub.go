// Package realtime pushes low-stock alerts to dashboards over websockets.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability"
)

const (
	KindAlertCreated = "alert.created"

	writeWait    = 5 * time.Second
	pingInterval = 25 * time.Second
)

var errBroadcast = errors.New("write failed")

// AlertPayload is the alert as dashboards render it.
type AlertPayload struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Message         string    `json:"message"`
	Date            time.Time `json:"date"`
	IsRead          bool      `json:"isRead"`
	IngredientID    string    `json:"ingredientId"`
	IngredientName  string    `json:"ingredientName"`
	Quantity        float64   `json:"quantity"`
	MinimumQuantity float64   `json:"minimumQuantity"`
}

type Message struct {
	Kind  string       `json:"kind"`
	Alert AlertPayload `json:"alert"`
}

type client struct {
	conn *websocket.Conn
	// writes to one connection must not interleave
	mu sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

type Hub struct {
	upgrader websocket.Upgrader
	log      observability.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub(log observability.Logger) *Hub {
	if log == nil {
		log = observability.NopLogger()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:     log.With(observability.F("component", "realtime")),
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket_upgrade_failed", observability.F("error", err.Error()))
		return
	}
	c := &client{conn: conn}
	h.register(c)
	defer h.unregister(c)

	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(pingInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := c.write(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// dashboards never send anything; reading only notices the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("websocket_connected", observability.F("clients", n))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		_ = c.conn.Close()
	}
}

// Clients reports the number of open connections.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastLowStock sends the alert to every connection. Connections that
// fail the write are dropped; the error lists how many.
func (h *Hub) BroadcastLowStock(ctx context.Context, e alert.LowStockEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := json.Marshal(Message{
		Kind: KindAlertCreated,
		Alert: AlertPayload{
			ID:              e.AlertID,
			Type:            string(alert.TypeLowStock),
			Message:         e.Message,
			Date:            e.OccurredAt,
			IngredientID:    e.IngredientID,
			IngredientName:  e.IngredientName,
			Quantity:        e.Quantity,
			MinimumQuantity: e.MinimumQuantity,
		},
	})
	if err != nil {
		return fmt.Errorf("realtime: encode alert: %w", err)
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var failed []*client
	for _, c := range targets {
		if err := c.write(websocket.TextMessage, msg); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		h.unregister(c)
	}
	if len(failed) > 0 {
		return fmt.Errorf("realtime: %d of %d connections dropped: %w", len(failed), len(targets), errBroadcast)
	}
	return nil
}

// Close disconnects every dashboard.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for c := range clients {
		_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		_ = c.conn.Close()
	}
}
