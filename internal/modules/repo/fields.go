package repo

// Document field names shared by every backend.
const (
	FieldID             = "id"
	FieldEmail          = "email"
	FieldUserID         = "userId"
	FieldAssistantID    = "assistantId"
	FieldThreadID       = "threadId"
	FieldOpenAIThreadID = "openaiThreadId"
	FieldUpdatedAt      = "updatedAt"
)
