package llm

import (
	"context"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

type geminiResponder struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (Responder, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &geminiResponder{client: client, model: model}, nil
}

func (r *geminiResponder) Reply(ctx context.Context, question string) (string, error) {
	resp, err := r.client.Models.GenerateContent(ctx, r.model, genai.Text(question), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
