// Package llm wraps the chat completion provider.
package llm

import (
	"context"

	"github.com/jwyoon/noticebot/internal/domain"
)

// ChatMessage is one role-tagged turn of a completion request.
type ChatMessage struct {
	Role    domain.MessageRole `json:"role"`
	Content string             `json:"content"`
}

type Provider interface {
	// Complete returns one generated reply for the message sequence.
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}
