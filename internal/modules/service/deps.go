package service

import (
	"context"
	"io"
	"time"

	"github.com/userlink/userlink-server/internal/infra/httpclient"
	"github.com/userlink/userlink-server/internal/modules/model"
)

// RemoteAssistantClient is the provider-side half of an assistant.
type RemoteAssistantClient interface {
	CreateAssistant(ctx context.Context, cfg httpclient.AssistantConfig) (*httpclient.RemoteObject, error)
	UpdateAssistant(ctx context.Context, id string, cfg httpclient.AssistantConfig) (*httpclient.RemoteObject, error)
	DeleteAssistant(ctx context.Context, id string) error
	CreateThread(ctx context.Context) (*httpclient.RemoteObject, error)
	DeleteThread(ctx context.Context, id string) error
}

// MessagePublisher pushes stored messages to realtime subscribers.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, m *model.Message)
}

// EventPublisher emits lifecycle events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
}

// BlobStore holds uploaded file content.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	PresignGet(ctx context.Context, key string, expire time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// Responder produces the assistant reply for the ask flow.
type Responder interface {
	Reply(ctx context.Context, question string) (string, error)
}

type noopPublisher struct{}

func (noopPublisher) PublishMessage(context.Context, *model.Message) {}
