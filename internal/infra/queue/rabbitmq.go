package mq

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/userlink/userlink-server/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tableCarrier adapts amqp.Table to TextMapCarrier for OpenTelemetry propagation
type tableCarrier struct {
	table amqp.Table
}

func (c tableCarrier) Get(key string) string {
	if val, ok := c.table[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
		return fmt.Sprintf("%v", val)
	}
	return ""
}

func (c tableCarrier) Set(key, value string) {
	c.table[key] = value
}

func (c tableCarrier) Keys() []string {
	keys := make([]string, 0, len(c.table))
	for k := range c.table {
		keys = append(keys, k)
	}
	return keys
}

// Dial connects to RabbitMQ, upgrading to TLS when configured or when the URL is amqps.
func Dial(cfg *config.Config) (*amqp.Connection, error) {
	url := cfg.RabbitMQ.URL
	if cfg.RabbitMQ.EnableTLS || strings.HasPrefix(url, "amqps://") {
		if strings.HasPrefix(url, "amqp://") {
			url = strings.Replace(url, "amqp://", "amqps://", 1)
		}
		return amqp.DialTLS(url, &tls.Config{MinVersion: tls.VersionTLS12})
	}
	return amqp.Dial(url)
}

// Publisher sends JSON events to a topic exchange.
type Publisher struct {
	ch       *amqp.Channel
	log      *zap.Logger
	exchange string
	tracer   string
}

func NewPublisher(conn *amqp.Connection, log *zap.Logger, cfg *config.Config) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(cfg.RabbitMQ.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &Publisher{ch: ch, log: log, exchange: cfg.RabbitMQ.Exchange, tracer: cfg.App.Name}, nil
}

func (p *Publisher) Close() error { return p.ch.Close() }

// Publish sends body to the configured exchange under routingKey.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body any) error {
	return p.PublishJSON(ctx, p.exchange, routingKey, body)
}

func (p *Publisher) PublishJSON(ctx context.Context, exchangeName string, routingKey string, body any) error {
	b, err := sonic.Marshal(body)
	if err != nil {
		return err
	}

	ctx, span := otel.Tracer(p.tracer).Start(ctx, "rabbitmq.publish",
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination", exchangeName),
			attribute.String("messaging.destination_kind", "exchange"),
			attribute.String("messaging.rabbitmq.routing_key", routingKey),
		))
	defer span.End()

	// Inject trace context into message headers
	headers := make(amqp.Table)
	otel.GetTextMapPropagator().Inject(ctx, tableCarrier{table: headers})

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         b,
		Headers:      headers,
	}

	if err := p.ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, publishing); err != nil {
		span.RecordError(err)
		p.log.Warn("rabbitmq publish failed", zap.String("routing_key", routingKey), zap.Error(err))
		return err
	}

	span.SetAttributes(attribute.Int("messaging.message.body.size", len(b)))
	return nil
}
