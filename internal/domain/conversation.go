package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type ConversationMessage struct {
	ID        uuid.UUID       `json:"id"`
	Role      MessageRole     `json:"role"`
	Content   string          `json:"content"`
	Data      json.RawMessage `json:"data,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	CreatedOn time.Time       `json:"created_on"`
}

// Conversation is a QAi chat thread owned by one user of an account.
type Conversation struct {
	ID        uuid.UUID             `json:"id" db:"id"`
	AccountID uuid.UUID             `json:"account_id" db:"account_id"`
	UserID    uuid.UUID             `json:"user_id" db:"user_id"`
	Title     string                `json:"title" db:"title"`
	IsDemo    bool                  `json:"is_demo" db:"is_demo"`
	Messages  []ConversationMessage `json:"messages,omitempty" db:"messages"`
	CreatedOn time.Time             `json:"created_on" db:"created_on"`
	UpdatedOn time.Time             `json:"updated_on" db:"updated_on"`
}

// FirstUserQuery returns the content of the first user message, if any.
func (c *Conversation) FirstUserQuery() string {
	for _, m := range c.Messages {
		if m.Role == RoleUser && m.Content != "" {
			return m.Content
		}
	}
	return ""
}

// History converts the thread to the role/content pairs sent to language models.
func (c *Conversation) History() []Message {
	out := make([]Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.IsError {
			continue
		}
		out = append(out, Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

type ReviewUpdateType string

const (
	ReviewUpdateEmailReplies ReviewUpdateType = "email_replies_and_suggested_drafts"
	ReviewUpdateNewProspects ReviewUpdateType = "new_prospects"
)

type ReviewUpdateValue struct {
	Count int `json:"count"`
}

type ReviewUpdate struct {
	Type  ReviewUpdateType  `json:"type"`
	Value ReviewUpdateValue `json:"value"`
}
