package models

import (
	"context"
)

// Role tags a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged entry of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// LLM is the text completion boundary: the full message history goes in, one assistant
// reply comes out. Implementations must not retain the slice.
type LLM interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}
