// Package ws bridges the signal bus to WebSocket clients so dashboards can
// watch bond purchases, redemptions, and risk events live.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stylelend/rentbond/internal/domain"
)

// defaultChannels are the bus channels the hub subscribes to. Clients start
// subscribed to all of them and can narrow with a subscribe message.
var defaultChannels = []string{"bond", "risk"}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins; the API surface is open CORS too.
		return true
	},
}

// envelope carries one bus message together with its source channel so the
// fan-out can honour per-client subscriptions.
type envelope struct {
	channel string
	data    []byte
}

// Hub manages connected WebSocket clients and fans out bus messages to the
// clients subscribed to the originating channel.
type Hub struct {
	bus    domain.SignalBus
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*client]bool

	inbound    chan envelope
	register   chan *client
	unregister chan *client
	startedAt  time.Time
}

// NewHub creates a Hub bridging the given SignalBus to WebSocket clients.
func NewHub(bus domain.SignalBus, logger *slog.Logger) *Hub {
	return &Hub{
		bus:        bus,
		logger:     logger.With(slog.String("component", "ws_hub")),
		clients:    make(map[*client]bool),
		inbound:    make(chan envelope, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		startedAt:  time.Now().UTC(),
	}
}

// Run starts the hub's event loop. It handles registration and fan-out and
// exits when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for _, ch := range defaultChannels {
		go h.pump(ctx, ch)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case env := <-h.inbound:
			h.fanOut(env)
		}
	}
}

// pump forwards one bus channel into the hub's inbound queue.
func (h *Hub) pump(ctx context.Context, channel string) {
	msgs, err := h.bus.Subscribe(ctx, channel)
	if err != nil {
		h.logger.Error("channel subscribe failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	h.logger.Info("subscribed to channel", slog.String("channel", channel))

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-msgs:
			if !ok {
				h.logger.Warn("channel subscription closed",
					slog.String("channel", channel),
				)
				return
			}
			h.inbound <- envelope{channel: channel, data: data}
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("client connected", slog.Int("total_clients", n))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("client disconnected", slog.Int("total_clients", n))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// fanOut delivers one envelope to every client subscribed to its channel.
// A client whose send buffer is full loses the message; the hub never blocks
// on a slow consumer.
func (h *Hub) fanOut(env envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.subscribed(env.channel) {
			continue
		}
		select {
		case c.send <- env.data:
		default:
			h.logger.Warn("dropping message for slow client")
		}
	}
}

// HandleWS upgrades an HTTP request to a WebSocket connection and registers
// the client with the hub.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := newClient(h, conn)
	h.register <- c
	c.sendHello()

	go c.writePump()
	go c.readPump()
}
