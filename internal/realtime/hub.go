// Package realtime fans newly created messages out to live subscribers,
// keyed by thread-affiliation key. Delivery is at-most-once with no replay.
package realtime

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventReady          = "ready"
	EventMessageCreated = "message.created"

	outboundBuffer    = 16
	heartbeatInterval = 15 * time.Second
)

type Event struct {
	Channel string `json:"channel"`
	Type    string `json:"event"`
	Data    any    `json:"data,omitempty"`
}

type Client struct {
	ID       string
	channels map[string]bool
	Outbound chan Event
	done     chan struct{}
	once     sync.Once
}

type Hub struct {
	mu            sync.RWMutex
	log           *zap.Logger
	subscriptions map[string]map[*Client]bool
	clients       map[string]*Client
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:           log.With(zap.String("component", "realtime_hub")),
		subscriptions: make(map[string]map[*Client]bool),
		clients:       make(map[string]*Client),
	}
}

// NewClient registers a client that can later be looked up by id.
func (h *Hub) NewClient() *Client {
	c := &Client{
		ID:       uuid.NewString(),
		channels: make(map[string]bool),
		Outbound: make(chan Event, outboundBuffer),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	return c
}

func (h *Hub) Client(id string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	return c, ok
}

func (h *Hub) Subscribe(c *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	c.channels[channel] = true
	subs, ok := h.subscriptions[channel]
	if !ok {
		subs = make(map[*Client]bool)
		h.subscriptions[channel] = subs
	}
	subs[c] = true
	h.log.Debug("client subscribed", zap.String("client_id", c.ID), zap.String("channel", channel))
}

func (h *Hub) Unsubscribe(c *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(c.channels, channel)
	h.detach(c, channel)
	h.log.Debug("client unsubscribed", zap.String("client_id", c.ID), zap.String("channel", channel))
}

// detach must be called with the write lock held.
func (h *Hub) detach(c *Client, channel string) {
	if subs, ok := h.subscriptions[channel]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.subscriptions, channel)
		}
	}
}

func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[channel])
}

// Broadcast never blocks: a client whose buffer is full misses the event.
func (h *Hub) Broadcast(evt Event) {
	if evt.Channel == "" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.subscriptions[evt.Channel] {
		select {
		case c.Outbound <- evt:
		default:
			h.log.Warn("dropping realtime event; outbound buffer full", zap.String("client_id", c.ID))
		}
	}
}

// CloseClient unsubscribes c from everything and ends its stream.
func (h *Hub) CloseClient(c *Client) {
	h.mu.Lock()
	for ch := range c.channels {
		h.detach(c, ch)
	}
	c.channels = make(map[string]bool)
	delete(h.clients, c.ID)
	h.mu.Unlock()

	c.once.Do(func() { close(c.done) })
}

// Serve streams events to c as server-sent events until the request ends
// or the client is closed. The first event carries the client id.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, c *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h.write(w, Event{Type: EventReady, Data: map[string]string{"clientId": c.ID}})
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case evt := <-c.Outbound:
			h.write(w, evt)
			flusher.Flush()
		}
	}
}

func (h *Hub) write(w http.ResponseWriter, evt Event) {
	raw, err := sonic.Marshal(evt)
	if err != nil {
		h.log.Warn("marshal realtime event", zap.Error(err))
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, raw)
}
