package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/userlink/userlink-server/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// ErrRemoteNotFound is returned when the provider reports the object as gone.
var ErrRemoteNotFound = errors.New("remote object not found")

// AssistantClient talks to the provider's assistant and thread endpoints (assistants v2).
type AssistantClient struct {
	AssistantsURL string
	ThreadsURL    string
	APIKey        string
	OrgID         string
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// NewAssistantClient creates a new AssistantClient with OpenTelemetry instrumentation
func NewAssistantClient(cfg *config.Config, log *zap.Logger) *AssistantClient {
	timeout := time.Duration(cfg.OpenAI.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &AssistantClient{
		AssistantsURL: cfg.OpenAI.AssistantsURL,
		ThreadsURL:    cfg.OpenAI.ThreadsURL,
		APIKey:        cfg.OpenAI.APIKey,
		OrgID:         cfg.OpenAI.OrgID,
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Logger: log,
	}
}

// AssistantConfig is the body sent on assistant create and update.
type AssistantConfig struct {
	Name         string           `json:"name"`
	Instructions string           `json:"instructions"`
	Description  string           `json:"description,omitempty"`
	Model        string           `json:"model"`
	Tools        []map[string]any `json:"tools"`
}

// RemoteObject is the part of a provider response we keep.
type RemoteObject struct {
	ID     string `json:"id"`
	Object string `json:"object,omitempty"`
}

func (c *AssistantClient) CreateAssistant(ctx context.Context, cfg AssistantConfig) (*RemoteObject, error) {
	return c.call(ctx, "create_assistant", http.MethodPost, c.AssistantsURL, cfg)
}

func (c *AssistantClient) UpdateAssistant(ctx context.Context, id string, cfg AssistantConfig) (*RemoteObject, error) {
	return c.call(ctx, "update_assistant", http.MethodPost, fmt.Sprintf("%s/%s", c.AssistantsURL, id), cfg)
}

// DeleteAssistant treats an already deleted assistant as success.
func (c *AssistantClient) DeleteAssistant(ctx context.Context, id string) error {
	_, err := c.call(ctx, "delete_assistant", http.MethodDelete, fmt.Sprintf("%s/%s", c.AssistantsURL, id), nil)
	if errors.Is(err, ErrRemoteNotFound) {
		return nil
	}
	return err
}

func (c *AssistantClient) CreateThread(ctx context.Context) (*RemoteObject, error) {
	return c.call(ctx, "create_thread", http.MethodPost, c.ThreadsURL, map[string]any{})
}

// DeleteThread treats an already deleted thread as success.
func (c *AssistantClient) DeleteThread(ctx context.Context, id string) error {
	_, err := c.call(ctx, "delete_thread", http.MethodDelete, fmt.Sprintf("%s/%s", c.ThreadsURL, id), nil)
	if errors.Is(err, ErrRemoteNotFound) {
		return nil
	}
	return err
}

func (c *AssistantClient) call(ctx context.Context, op, method, endpoint string, body any) (*RemoteObject, error) {
	var reader io.Reader
	if body != nil {
		b, err := sonic.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("OpenAI-Beta", "assistants=v2")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if c.OrgID != "" {
		httpReq.Header.Set("OpenAI-Organization", c.OrgID)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", op, ErrRemoteNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.Logger.Error(op+" request failed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(respBody)))
		return nil, fmt.Errorf("%s request failed with status %d: %s", op, resp.StatusCode, string(respBody))
	}

	var result RemoteObject
	if len(respBody) > 0 {
		if err := sonic.Unmarshal(respBody, &result); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return &result, nil
}
