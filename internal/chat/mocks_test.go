package chat

import (
	"context"
	"errors"

	"github.com/jwyoon/noticebot/internal/llm"
	"github.com/jwyoon/noticebot/internal/store"
	"github.com/jwyoon/noticebot/internal/vector"
)

// MockEngine implements QueryEngine.
type MockEngine struct {
	OnQuery func(ctx context.Context, collection string, queryTexts []string, opts vector.QueryOptions) ([][]vector.Neighbor, error)
}

func (m *MockEngine) Query(ctx context.Context, collection string, queryTexts []string, opts vector.QueryOptions) ([][]vector.Neighbor, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, collection, queryTexts, opts)
	}
	results := make([][]vector.Neighbor, len(queryTexts))
	for i := range results {
		results[i] = []vector.Neighbor{}
	}
	return results, nil
}

// MockProvider implements llm.Provider and records what it was asked.
type MockProvider struct {
	OnComplete func(ctx context.Context, messages []llm.ChatMessage) (string, error)
	Received   [][]llm.ChatMessage
}

func (m *MockProvider) Complete(ctx context.Context, messages []llm.ChatMessage) (string, error) {
	m.Received = append(m.Received, messages)
	if m.OnComplete != nil {
		return m.OnComplete(ctx, messages)
	}
	return "generated reply", nil
}

// MockCache implements AnswerCache.
type MockCache struct {
	OnLookup func(ctx context.Context, question string) (string, bool, error)
	OnStore  func(ctx context.Context, question, answer string) error
	Stored   map[string]string
}

func (m *MockCache) Lookup(ctx context.Context, question string) (string, bool, error) {
	if m.OnLookup != nil {
		return m.OnLookup(ctx, question)
	}
	return "", false, nil
}

func (m *MockCache) Store(ctx context.Context, question, answer string) error {
	if m.OnStore != nil {
		return m.OnStore(ctx, question, answer)
	}
	if m.Stored == nil {
		m.Stored = make(map[string]string)
	}
	m.Stored[question] = answer
	return nil
}

// failingStore fails every Set after the first allowed ones, to exercise
// partial persistence.
type failingStore struct {
	store.DocumentStore
	allowedSets int
	sets        int
}

func (f *failingStore) Set(ctx context.Context, parent store.Path, id string, doc []byte) error {
	f.sets++
	if f.sets > f.allowedSets {
		return errors.New("store write refused")
	}
	return f.DocumentStore.Set(ctx, parent, id, doc)
}
