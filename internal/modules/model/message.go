package model

import "time"

type Role = string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ValidRole reports whether r is one of the accepted message roles.
func ValidRole(r string) bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is immutable once stored.
type Message struct {
	ID string `json:"id" bson:"id"`

	// ThreadID is the thread-affiliation key: a local chat thread id or a remote thread id.
	ThreadID string `json:"threadId" bson:"threadId"`
	Content  string `json:"content" bson:"content"`
	Role     Role   `json:"role" bson:"role"`
	UserID   string `json:"userId,omitempty" bson:"userId,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
