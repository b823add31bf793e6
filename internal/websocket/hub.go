package websocket

import (
	"encoding/json"
	"sync"

	"github.com/shoplite/storefront-backend/internal/app/model"
	"github.com/shoplite/storefront-backend/pkg/logger"
)

// Event types pushed to catalog subscribers
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// Event is the wire format of a catalog change notification
type Event struct {
	Type      string         `json:"type"`
	Product   *model.Product `json:"product,omitempty"`
	ProductID uint           `json:"product_id"`
}

// Client is a single subscribed WebSocket connection
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Send   chan []byte
}

// Hub fans catalog change events out to every connected client. Storefront
// pages re-fetch the catalog when they receive one, so events only need to
// say what changed, not carry authoritative state.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan []byte, 1024),
	}
}

// Run processes register/unregister/broadcast events. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("Catalog subscriber connected", map[string]interface{}{
				"user_id":     client.UserID,
				"subscribers": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("Catalog subscriber disconnected", map[string]interface{}{
				"user_id":     client.UserID,
				"subscribers": total,
			})

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Slow consumer: drop the event rather than block the hub
					logger.Warn("Dropping catalog event for slow subscriber", map[string]interface{}{
						"user_id": client.UserID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register queues a client for registration
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister queues a client for removal
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) publish(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal catalog event", err, map[string]interface{}{
			"type": event.Type,
		})
		return
	}

	select {
	case h.broadcast <- message:
	default:
		logger.Warn("Catalog event queue full, dropping event", map[string]interface{}{
			"type": event.Type,
		})
	}
}

// ProductCreated broadcasts a product creation event
func (h *Hub) ProductCreated(product *model.Product) {
	h.publish(Event{
		Type:      EventProductCreated,
		Product:   product,
		ProductID: product.ID,
	})
}

// ProductUpdated broadcasts a product update event
func (h *Hub) ProductUpdated(product *model.Product) {
	h.publish(Event{
		Type:      EventProductUpdated,
		Product:   product,
		ProductID: product.ID,
	})
}

// ProductDeleted broadcasts a product deletion event
func (h *Hub) ProductDeleted(productID uint) {
	h.publish(Event{
		Type:      EventProductDeleted,
		ProductID: productID,
	})
}
