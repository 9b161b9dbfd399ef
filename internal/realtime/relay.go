package realtime

import (
	"context"

	"github.com/userlink/userlink-server/internal/modules/model"
	"go.uber.org/zap"
)

// Relay publishes stored messages to subscribers of their thread key.
// With a bus every instance receives the event through its forwarder;
// without one the event goes straight to the local hub.
type Relay struct {
	hub *Hub
	bus Bus
	log *zap.Logger
}

func NewRelay(hub *Hub, bus Bus, log *zap.Logger) *Relay {
	return &Relay{hub: hub, bus: bus, log: log}
}

func (r *Relay) Hub() *Hub { return r.hub }

// Start wires the bus forwarder into the local hub. It is a no-op without a bus.
func (r *Relay) Start(ctx context.Context) error {
	if r.bus == nil {
		return nil
	}
	return r.bus.StartForwarder(ctx, r.hub.Broadcast)
}

// PublishMessage must only be called after the message was persisted.
func (r *Relay) PublishMessage(ctx context.Context, m *model.Message) {
	r.Publish(ctx, Event{Channel: m.ThreadID, Type: EventMessageCreated, Data: m})
}

func (r *Relay) Publish(ctx context.Context, evt Event) {
	if r.bus != nil {
		err := r.bus.Publish(ctx, evt)
		if err == nil {
			return
		}
		r.log.Warn("realtime bus publish failed, delivering locally", zap.Error(err))
	}
	r.hub.Broadcast(evt)
}
