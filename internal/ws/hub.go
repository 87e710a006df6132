package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"pos-backoffice/internal/notify"

	"github.com/gofiber/contrib/websocket"
)

// Hub pushes sale and stock events to every connected back-office screen.
type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, 64),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			log.Println("New WS Client Connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish queues e for broadcast. When the queue is full it waits for room
// until ctx is done and then drops the event.
func (h *Hub) Publish(ctx context.Context, e notify.Event) error {
	msg, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal ws event: %w", err)
	}
	select {
	case h.Broadcast <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("ws queue full, dropped %s event: %w", e.Action, ctx.Err())
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}
