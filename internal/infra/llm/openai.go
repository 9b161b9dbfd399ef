package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

type openAIResponder struct {
	client openai.Client
	model  string
}

func NewOpenAI(apiKey, model string) Responder {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIResponder{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (r *openAIResponder) Reply(ctx context.Context, question string) (string, error) {
	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(question),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
