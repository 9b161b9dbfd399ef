package model

import "time"

// AnonymousOwner owns chat threads created without a user.
const AnonymousOwner = "anonymous"

type ChatThread struct {
	ID          string `json:"id" bson:"id"`
	Name        string `json:"name" bson:"name"`
	Title       string `json:"title,omitempty" bson:"title,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`

	UserID         string `json:"userId" bson:"userId"`
	AssistantID    string `json:"assistantId,omitempty" bson:"assistantId,omitempty"`
	OpenAIThreadID string `json:"openaiThreadId,omitempty" bson:"openaiThreadId,omitempty"`

	CreatedBy string   `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	Members   []string `json:"members" bson:"members"`

	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// Keys returns every thread-affiliation key a message of this thread may be filed under.
func (t *ChatThread) Keys() ThreadKeySet {
	return NewThreadKeySet(t.ID, t.OpenAIThreadID)
}
