// Package chat persists conversations and assembles retrieval-grounded
// replies.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/internal/store"
	"github.com/jwyoon/noticebot/pkg/logging"
)

// MessageStore reads and writes conversation messages under
// websites/{websiteID}/sessions/{sessionID}/messages.
type MessageStore struct {
	docs   store.DocumentStore
	logger *logging.Logger
}

func NewMessageStore(docs store.DocumentStore) *MessageStore {
	return &MessageStore{
		docs:   docs,
		logger: logging.NewLogger("MessageStore"),
	}
}

// Add validates the message, assigns identity and persists it. Messages are
// immutable afterwards.
func (s *MessageStore) Add(ctx context.Context, websiteID, sessionID string, msg domain.Message) (domain.Message, error) {
	if err := msg.Validate(); err != nil {
		return domain.Message{}, err
	}
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now().UTC()
	if msg.Children == nil {
		msg.Children = []domain.ChildMessage{}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshalling message: %w", err)
	}
	if err := s.docs.Set(ctx, store.SessionMessages(websiteID, sessionID), msg.ID, data); err != nil {
		return domain.Message{}, fmt.Errorf("%w: writing message: %v", domain.ErrUpstreamFailure, err)
	}
	s.logger.Debug("message persisted", "website", websiteID, "session", sessionID, "message", msg.ID, "role", msg.Role)
	return msg, nil
}

func (s *MessageStore) Get(ctx context.Context, websiteID, sessionID, messageID string) (domain.Message, error) {
	raw, err := s.docs.Get(ctx, store.SessionMessages(websiteID, sessionID), messageID)
	if err != nil {
		return domain.Message{}, err
	}
	var msg domain.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.Message{}, fmt.Errorf("%w: message %s is not valid JSON: %v", domain.ErrInvalidArgument, messageID, err)
	}
	return msg, nil
}

func (s *MessageStore) Delete(ctx context.Context, websiteID, sessionID, messageID string) error {
	return s.docs.Delete(ctx, store.SessionMessages(websiteID, sessionID), messageID)
}

// List returns every message of the session in creation order.
func (s *MessageStore) List(ctx context.Context, websiteID, sessionID string) ([]domain.Message, error) {
	raw, err := s.docs.List(ctx, store.SessionMessages(websiteID, sessionID))
	if err != nil {
		return nil, fmt.Errorf("%w: listing messages: %v", domain.ErrUpstreamFailure, err)
	}
	messages := make([]domain.Message, 0, len(raw))
	for id, data := range raw {
		var msg domain.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: message %s is not valid JSON: %v", domain.ErrInvalidArgument, id, err)
		}
		messages = append(messages, msg)
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

// ListRecentN returns the last n messages in creation order: the store is
// scanned newest-first, limited to n and then reversed.
func (s *MessageStore) ListRecentN(ctx context.Context, websiteID, sessionID string, n int) ([]domain.Message, error) {
	messages, err := s.List(ctx, websiteID, sessionID)
	if err != nil {
		return nil, err
	}
	if len(messages) > n {
		messages = messages[len(messages)-n:]
	}
	return messages, nil
}
