package agent

import (
	"sync"

	"github.com/Protocol-Lattice/agentcoffee/pkg/models"
)

// Conversation is the ordered, append-only message history of a single run.
type Conversation struct {
	mu       sync.Mutex
	messages []models.Message
}

// NewConversation seeds the history with a system prompt when one is given.
func NewConversation(systemPrompt string) *Conversation {
	c := &Conversation{}
	if systemPrompt != "" {
		c.messages = append(c.messages, models.Message{Role: models.RoleSystem, Content: systemPrompt})
	}
	return c
}

func (c *Conversation) Append(role models.Role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, models.Message{Role: role, Content: content})
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}
