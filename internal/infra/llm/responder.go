// Package llm produces the assistant reply of the ask flow.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/userlink/userlink-server/internal/config"
	"go.uber.org/zap"
)

const (
	ProviderMock      = "mock"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Responder answers a single user question.
type Responder interface {
	Reply(ctx context.Context, question string) (string, error)
}

// MockReply is the canned answer used when no provider is configured or a provider fails.
func MockReply(question string) string {
	return fmt.Sprintf("This is a mock response to your question: \"%s\"", question)
}

type mockResponder struct{}

func NewMock() Responder { return mockResponder{} }

func (mockResponder) Reply(_ context.Context, question string) (string, error) {
	return MockReply(question), nil
}

// fallbackResponder never fails: provider errors degrade to the canned reply.
type fallbackResponder struct {
	primary Responder
	timeout time.Duration
	log     *zap.Logger
}

func WithFallback(primary Responder, timeout time.Duration, log *zap.Logger) Responder {
	return &fallbackResponder{primary: primary, timeout: timeout, log: log}
}

func (f *fallbackResponder) Reply(ctx context.Context, question string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	answer, err := f.primary.Reply(ctx, question)
	if err != nil || answer == "" {
		f.log.Warn("llm reply failed, using canned reply", zap.Error(err))
		return MockReply(question), nil
	}
	return answer, nil
}

// New picks the responder configured in cfg.LLM.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (Responder, error) {
	timeout := time.Duration(cfg.LLM.ReplyTimeoutSec) * time.Second

	var primary Responder
	switch cfg.LLM.Provider {
	case ProviderMock, "":
		return NewMock(), nil
	case ProviderOpenAI:
		primary = NewOpenAI(cfg.LLM.OpenAIAPIKey, cfg.LLM.Model)
	case ProviderAnthropic:
		primary = NewAnthropic(cfg.LLM.AnthropicAPIKey, cfg.LLM.Model)
	case ProviderGemini:
		g, err := NewGemini(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.Model)
		if err != nil {
			return nil, err
		}
		primary = g
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
	log.Info("llm responder enabled", zap.String("provider", cfg.LLM.Provider))
	return WithFallback(primary, timeout, log), nil
}
