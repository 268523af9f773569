package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/internal/store"
	"github.com/jwyoon/noticebot/internal/vector"
	"github.com/jwyoon/noticebot/pkg/logging"
)

func init() {
	logging.Init()
}

func dist(d float64) *float64 { return &d }

func addMessage(t *testing.T, messages *MessageStore, role domain.MessageRole, contents ...string) domain.Message {
	t.Helper()
	children := make([]domain.ChildMessage, 0, len(contents))
	for _, c := range contents {
		children = append(children, domain.ChildMessage{Content: domain.Str(c)})
	}
	msg, err := messages.Add(context.Background(), "w1", "s1", domain.Message{Role: role, Children: children})
	if err != nil {
		t.Fatalf("adding %s message: %v", role, err)
	}
	return msg
}

func neighbor(id, title, content, url string) vector.Neighbor {
	return vector.Neighbor{
		ID:       id,
		Distance: dist(0.1),
		Content:  content,
		Metadata: map[string]string{
			vector.MetaTitle:    title,
			vector.MetaURL:      url,
			vector.MetaImageURL: "https://img/" + id + ".png",
		},
	}
}

func TestReplyWithRetrievedDocuments(t *testing.T) {
	messages := NewMessageStore(store.NewInMemoryStore())
	addMessage(t, messages, domain.RoleUser, "when is the contest deadline?")

	engine := &MockEngine{
		OnQuery: func(_ context.Context, collection string, queryTexts []string, opts vector.QueryOptions) ([][]vector.Neighbor, error) {
			if collection != "w1" {
				t.Errorf("collection must be the website id, got %q", collection)
			}
			if opts.NumResults != 5 || opts.MaxDistance != 0.5 || opts.MinContentLength != 20 {
				t.Errorf("unexpected thresholds: %+v", opts)
			}
			return [][]vector.Neighbor{{
				neighbor("f1", "Contest notice", strings.Repeat("a", 30), "https://site/9912"),
				neighbor("f2", "Contest notice chunk 2", strings.Repeat("b", 30), "https://site/9912"),
				neighbor("f3", "Other notice", strings.Repeat("c", 30), "https://site/9913"),
			}}, nil
		},
	}
	provider := &MockProvider{}
	assembler := NewAssembler(messages, engine, provider)

	result, err := assembler.Reply(context.Background(), "w1", "s1")
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("want reply plus carousel, got %d messages", len(result))
	}

	reply := result[0]
	if reply.Role != domain.RoleAssistant || len(reply.Children) != 1 || *reply.Children[0].Content != "generated reply" {
		t.Errorf("unexpected reply message: %+v", reply)
	}

	// Two neighbors share a url, so the carousel carries two documents.
	carousel := result[1]
	if len(carousel.Children) != 2 {
		t.Fatalf("carousel must dedupe by url, got %d children", len(carousel.Children))
	}
	first := carousel.Children[0]
	if *first.Title != "Contest notice" || *first.URL != "https://site/9912" || *first.ImageURL != "https://img/f1.png" {
		t.Errorf("carousel child lost fields: %+v", first)
	}

	// Both messages must have been persisted.
	stored, err := messages.List(context.Background(), "w1", "s1")
	if err != nil {
		t.Fatalf("listing messages: %v", err)
	}
	if len(stored) != 3 {
		t.Errorf("want user turn plus 2 assistant messages in the store, got %d", len(stored))
	}
}

func TestReplyPromptConstruction(t *testing.T) {
	messages := NewMessageStore(store.NewInMemoryStore())
	addMessage(t, messages, domain.RoleUser, "first question")
	addMessage(t, messages, domain.RoleAssistant, "first answer")
	addMessage(t, messages, domain.RoleUser, "second question")

	provider := &MockProvider{}
	assembler := NewAssembler(messages, &MockEngine{}, provider)

	if _, err := assembler.Reply(context.Background(), "w1", "s1"); err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if len(provider.Received) != 1 {
		t.Fatalf("provider called %d times, want 1", len(provider.Received))
	}
	sent := provider.Received[0]

	// system + 3 prior turns + synthetic user payload
	if len(sent) != 5 {
		t.Fatalf("got %d completion messages, want 5", len(sent))
	}
	if sent[0].Role != domain.RoleSystem || !strings.Contains(sent[0].Content, "Today is") {
		t.Errorf("system prompt must carry the current date, got %q", sent[0].Content)
	}
	wantRoles := []domain.MessageRole{domain.RoleUser, domain.RoleAssistant, domain.RoleUser, domain.RoleUser}
	for i, want := range wantRoles {
		if sent[i+1].Role != want {
			t.Errorf("message %d: got role %s, want %s", i+1, sent[i+1].Role, want)
		}
	}
	last := sent[len(sent)-1]
	if !strings.Contains(last.Content, `"userQuestion":"second question"`) {
		t.Errorf("payload must embed the question, got %q", last.Content)
	}
	if !strings.Contains(last.Content, `"retrieval":"NO DOCUMENTS RETRIEVED"`) {
		t.Errorf("empty retrieval must use the sentinel, got %q", last.Content)
	}
}

func TestReplyEmptyRetrievalYieldsOnlyReply(t *testing.T) {
	messages := NewMessageStore(store.NewInMemoryStore())
	addMessage(t, messages, domain.RoleUser, "anything")

	assembler := NewAssembler(messages, &MockEngine{}, &MockProvider{})
	result, err := assembler.Reply(context.Background(), "w1", "s1")
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("no carousel without retrieved documents, got %d messages", len(result))
	}
}

// A conversation whose only message carries no children has no usable
// history, which is a precondition failure, not an upstream one.
func TestReplyNoHistory(t *testing.T) {
	docs := store.NewInMemoryStore()
	messages := NewMessageStore(docs)
	if _, err := messages.Add(context.Background(), "w1", "s1", domain.Message{Role: domain.RoleUser}); err != nil {
		t.Fatalf("adding placeholder: %v", err)
	}

	assembler := NewAssembler(messages, &MockEngine{}, &MockProvider{})
	_, err := assembler.Reply(context.Background(), "w1", "s1")
	if !errors.Is(err, domain.ErrNoHistory) {
		t.Fatalf("want ErrNoHistory, got %v", err)
	}
	if !strings.Contains(domain.ErrNoHistory.Error(), "no non-empty history") {
		t.Errorf("unexpected error text: %v", domain.ErrNoHistory)
	}
}

func TestReplyNoUserMessage(t *testing.T) {
	messages := NewMessageStore(store.NewInMemoryStore())
	addMessage(t, messages, domain.RoleAssistant, "unprompted greeting")

	assembler := NewAssembler(messages, &MockEngine{}, &MockProvider{})
	_, err := assembler.Reply(context.Background(), "w1", "s1")
	if !errors.Is(err, domain.ErrNoUserMessage) {
		t.Errorf("want ErrNoUserMessage, got %v", err)
	}
}

func TestReplyNoQueryContent(t *testing.T) {
	messages := NewMessageStore(store.NewInMemoryStore())
	msg := domain.Message{
		Role:     domain.RoleUser,
		Children: []domain.ChildMessage{{ImageURL: domain.Str("https://img/x.png")}},
	}
	if _, err := messages.Add(context.Background(), "w1", "s1", msg); err != nil {
		t.Fatalf("adding message: %v", err)
	}

	assembler := NewAssembler(messages, &MockEngine{}, &MockProvider{})
	_, err := assembler.Reply(context.Background(), "w1", "s1")
	if !errors.Is(err, domain.ErrNoQueryContent) {
		t.Errorf("want ErrNoQueryContent, got %v", err)
	}
}

func TestReplyRetrievalFailureIsFatal(t *testing.T) {
	messages := NewMessageStore(store.NewInMemoryStore())
	addMessage(t, messages, domain.RoleUser, "question")

	engine := &MockEngine{
		OnQuery: func(_ context.Context, _ string, _ []string, _ vector.QueryOptions) ([][]vector.Neighbor, error) {
			return nil, errors.New("index offline")
		},
	}
	provider := &MockProvider{}
	assembler := NewAssembler(messages, engine, provider)

	if _, err := assembler.Reply(context.Background(), "w1", "s1"); err == nil {
		t.Fatal("retrieval failure must surface")
	}
	if len(provider.Received) != 0 {
		t.Error("generation must not run after retrieval failed")
	}
}

// If the carousel write fails after the reply was written, the caller sees
// the reply and the error.
func TestReplyPartialPersistence(t *testing.T) {
	backing := store.NewInMemoryStore()
	failing := &failingStore{DocumentStore: backing, allowedSets: 2}
	messages := NewMessageStore(failing)
	addMessage(t, messages, domain.RoleUser, "question")

	engine := &MockEngine{
		OnQuery: func(_ context.Context, _ string, _ []string, _ vector.QueryOptions) ([][]vector.Neighbor, error) {
			return [][]vector.Neighbor{{neighbor("f1", "t", strings.Repeat("a", 30), "https://site/1")}}, nil
		},
	}
	assembler := NewAssembler(messages, engine, &MockProvider{})

	result, err := assembler.Reply(context.Background(), "w1", "s1")
	if err == nil {
		t.Fatal("carousel write failure must be reported")
	}
	if len(result) != 1 {
		t.Fatalf("the persisted reply must still be returned, got %d messages", len(result))
	}
	if *result[0].Children[0].Content != "generated reply" {
		t.Errorf("unexpected surviving message: %+v", result[0])
	}
}

func TestReplyCacheHitSkipsRetrievalAndGeneration(t *testing.T) {
	messages := NewMessageStore(store.NewInMemoryStore())
	addMessage(t, messages, domain.RoleUser, "when is the contest deadline?")

	engine := &MockEngine{
		OnQuery: func(_ context.Context, _ string, _ []string, _ vector.QueryOptions) ([][]vector.Neighbor, error) {
			t.Error("retrieval must not run on a cache hit")
			return nil, nil
		},
	}
	provider := &MockProvider{}
	cache := &MockCache{
		OnLookup: func(_ context.Context, question string) (string, bool, error) {
			if question != "when is the contest deadline?" {
				t.Errorf("cache queried with %q", question)
			}
			return "cached answer", true, nil
		},
	}
	assembler := NewAssembler(messages, engine, provider).WithCache(cache)

	result, err := assembler.Reply(context.Background(), "w1", "s1")
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("cache hit must yield the reply only, got %d messages", len(result))
	}
	if *result[0].Children[0].Content != "cached answer" {
		t.Errorf("unexpected reply: %+v", result[0])
	}
	if len(provider.Received) != 0 {
		t.Error("generation must not run on a cache hit")
	}
}

func TestReplyCacheMissStoresGeneratedAnswer(t *testing.T) {
	messages := NewMessageStore(store.NewInMemoryStore())
	addMessage(t, messages, domain.RoleUser, "when is the contest deadline?")

	cache := &MockCache{}
	assembler := NewAssembler(messages, &MockEngine{}, &MockProvider{}).WithCache(cache)

	if _, err := assembler.Reply(context.Background(), "w1", "s1"); err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if cache.Stored["when is the contest deadline?"] != "generated reply" {
		t.Errorf("cache contents = %v", cache.Stored)
	}
}

// A broken cache degrades to a normal generation pass.
func TestReplyCacheFailureFallsThrough(t *testing.T) {
	messages := NewMessageStore(store.NewInMemoryStore())
	addMessage(t, messages, domain.RoleUser, "question")

	cache := &MockCache{
		OnLookup: func(_ context.Context, _ string) (string, bool, error) {
			return "", false, errors.New("cache down")
		},
		OnStore: func(_ context.Context, _, _ string) error {
			return errors.New("cache down")
		},
	}
	provider := &MockProvider{}
	assembler := NewAssembler(messages, &MockEngine{}, provider).WithCache(cache)

	result, err := assembler.Reply(context.Background(), "w1", "s1")
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if len(result) != 1 || *result[0].Children[0].Content != "generated reply" {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(provider.Received) != 1 {
		t.Errorf("generation ran %d times, want 1", len(provider.Received))
	}
}
