package domain

import (
	"fmt"
	"time"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// ChildMessage is one bubble inside a message. Fields are pointers because
// the wire format distinguishes null from empty string.
type ChildMessage struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	ImageURL *string `json:"imageUrl"`
	URL      *string `json:"url"`
}

// Message is one conversation turn. A message with more than one child is a
// carousel (e.g. several retrieved documents attached to one assistant turn).
// Messages are immutable once created.
type Message struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	Role      MessageRole    `json:"role"`
	Children  []ChildMessage `json:"children"`
}

// Validate enforces the write-time invariant: every child must carry at
// least one of title, content, imageUrl or url.
func (m Message) Validate() error {
	switch m.Role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, m.Role)
	}
	for i, child := range m.Children {
		if child.Title == nil && child.Content == nil && child.ImageURL == nil && child.URL == nil {
			return fmt.Errorf("%w: child %d must have at least one of title, content, imageUrl or url", ErrInvalidArgument, i)
		}
	}
	return nil
}

// Str is a convenience for building nullable child fields.
func Str(s string) *string {
	return &s
}

// Website is the parent entity of sessions and crawled documents. Its id
// doubles as the vector collection name for its fragments.
type Website struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is one conversation under a website.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
