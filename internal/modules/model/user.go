package model

import "time"

type User struct {
	ID       string  `json:"id" bson:"id"`
	Name     string  `json:"name" bson:"name"`
	Email    *string `json:"email,omitempty" bson:"email,omitempty"`
	Password string  `json:"password,omitempty" bson:"password,omitempty"`
	Role     string  `json:"role,omitempty" bson:"role,omitempty"`

	// User <-> Assistant, null when the user owns no assistant
	AssistantID *string `json:"assistantId" bson:"assistantId"`

	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// Sanitized returns a copy safe to return to API callers.
func (u User) Sanitized() *User {
	u.Password = ""
	return &u
}
