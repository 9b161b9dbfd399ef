package model

import "time"

const DefaultAssistantModel = "gpt-4-turbo-preview"

type Assistant struct {
	ID           string           `json:"id" bson:"id"`
	OpenAIID     string           `json:"openai_id" bson:"openai_id"`
	Name         string           `json:"name" bson:"name"`
	Instructions string           `json:"instructions" bson:"instructions"`
	Description  string           `json:"description,omitempty" bson:"description,omitempty"`
	Model        string           `json:"model" bson:"model"`
	Tools        []map[string]any `json:"tools" bson:"tools"`

	// ThreadID is the companion remote thread created together with the assistant.
	ThreadID string `json:"threadId" bson:"threadId"`

	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
