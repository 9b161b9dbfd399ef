package model

import "time"

type File struct {
	ID           string `json:"id" bson:"id"`
	UserID       string `json:"userId" bson:"userId"`
	AssistantID  string `json:"assistantId,omitempty" bson:"assistantId,omitempty"`
	Name         string `json:"name" bson:"name"`
	Size         int64  `json:"size" bson:"size"`
	Type         string `json:"type" bson:"type"`
	OpenAIFileID string `json:"openaiFileId,omitempty" bson:"openaiFileId,omitempty"`

	// StorageKey is set once content was uploaded to object storage.
	StorageKey string `json:"storageKey,omitempty" bson:"storageKey,omitempty"`

	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
