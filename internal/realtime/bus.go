package realtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bus carries events between server instances.
type Bus interface {
	Publish(ctx context.Context, evt Event) error
	StartForwarder(ctx context.Context, onEvent func(Event)) error
	Close() error
}

type RedisBus struct {
	rdb     *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisBus(rdb *redis.Client, channel string, log *zap.Logger) *RedisBus {
	if channel == "" {
		channel = "userlink:realtime"
	}
	return &RedisBus{rdb: rdb, channel: channel, log: log.With(zap.String("component", "redis_bus"))}
}

func (b *RedisBus) Publish(ctx context.Context, evt Event) error {
	raw, err := sonic.Marshal(evt)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes and hands every received event to onEvent
// until ctx is done. It returns once the subscription is confirmed.
func (b *RedisBus) StartForwarder(ctx context.Context, onEvent func(Event)) error {
	if onEvent == nil {
		return errors.New("onEvent callback required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var evt Event
				if err := sonic.UnmarshalString(m.Payload, &evt); err != nil {
					b.log.Warn("bad realtime payload", zap.Error(err))
					continue
				}
				onEvent(evt)
			}
		}
	}()
	return nil
}

func (b *RedisBus) Close() error { return b.rdb.Close() }
