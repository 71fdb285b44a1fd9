// Package hub fans out live status messages to dashboard websocket clients
// using a single goroutine that owns the client set.
package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-attention/pkg/protocol"
)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	name   string
	logger *slog.Logger

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.RWMutex
	running atomic.Bool

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// New creates a new Hub
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then closes every client.
// It must be called once.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("🔌 client connected", "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("🔌 client disconnected", "remaining", count)

		case data := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
					h.sent.Add(1)
				default:
					// Slow client: drop it rather than stall the fan-out
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast encodes msg and queues it for every client
func (h *Hub) Broadcast(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	h.BroadcastBytes(data)
	return nil
}

// BroadcastBytes queues pre-encoded JSON. It never blocks; when the queue is
// full the message is dropped.
func (h *Hub) BroadcastBytes(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.dropped.Add(1)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub loop is active
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Sent returns how many client deliveries were queued
func (h *Hub) Sent() uint64 {
	return h.sent.Load()
}

// Dropped returns how many broadcasts were discarded on a full queue
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
