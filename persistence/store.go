// Package persistence implements conversation storage: an in-memory store
// for tests and short-lived processes, and a filesystem store with one JSON
// file per session.
package persistence

import (
	"github.com/openlinkos/agent/llms"
)

// ConversationData is the full persisted record of a conversation.
type ConversationData struct {
	SessionID string         `json:"sessionId"`
	Messages  []llms.Message `json:"messages"`
	CreatedAt int64          `json:"createdAt"`
	UpdatedAt int64          `json:"updatedAt"`
}

// ConversationStore persists and retrieves ConversationData by session ID.
type ConversationStore interface {
	Save(data ConversationData) error
	Load(sessionID string) (*ConversationData, error)
	List() ([]string, error)
	Delete(sessionID string) error
}

func cloneData(data ConversationData) ConversationData {
	msgs := make([]llms.Message, len(data.Messages))
	copy(msgs, data.Messages)
	for i, m := range msgs {
		if m.Content != nil {
			content := *m.Content
			msgs[i].Content = &content
		}
		if m.ToolCalls != nil {
			msgs[i].ToolCalls = append([]llms.ToolCall(nil), m.ToolCalls...)
		}
	}
	return ConversationData{
		SessionID: data.SessionID,
		Messages:  msgs,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}
