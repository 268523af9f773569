package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/internal/store"
)

func TestAddAssignsIdentityAndPersists(t *testing.T) {
	messages := NewMessageStore(store.NewInMemoryStore())
	msg, err := messages.Add(context.Background(), "w1", "s1", domain.Message{
		Role:     domain.RoleUser,
		Children: []domain.ChildMessage{{Content: domain.Str("hello")}},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if msg.ID == "" || msg.CreatedAt.IsZero() {
		t.Errorf("identity not assigned: %+v", msg)
	}

	got, err := messages.Get(context.Background(), "w1", "s1", msg.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if *got.Children[0].Content != "hello" {
		t.Errorf("roundtrip lost content: %+v", got)
	}
}

func TestAddValidatesChildren(t *testing.T) {
	messages := NewMessageStore(store.NewInMemoryStore())

	t.Run("child with all fields null is rejected", func(t *testing.T) {
		_, err := messages.Add(context.Background(), "w1", "s1", domain.Message{
			Role:     domain.RoleUser,
			Children: []domain.ChildMessage{{}},
		})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("want ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := messages.Add(context.Background(), "w1", "s1", domain.Message{Role: "moderator"})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("want ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("child with one field is accepted", func(t *testing.T) {
		_, err := messages.Add(context.Background(), "w1", "s1", domain.Message{
			Role:     domain.RoleAssistant,
			Children: []domain.ChildMessage{{URL: domain.Str("https://site/1")}},
		})
		if err != nil {
			t.Errorf("Add failed: %v", err)
		}
	})
}

func TestListRecentNReturnsTailInOrder(t *testing.T) {
	messages := NewMessageStore(store.NewInMemoryStore())
	texts := []string{"m1", "m2", "m3", "m4", "m5"}
	for _, text := range texts {
		if _, err := messages.Add(context.Background(), "w1", "s1", domain.Message{
			Role:     domain.RoleUser,
			Children: []domain.ChildMessage{{Content: domain.Str(text)}},
		}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	recent, err := messages.ListRecentN(context.Background(), "w1", "s1", 3)
	if err != nil {
		t.Fatalf("ListRecentN failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("got %d messages, want 3", len(recent))
	}
	want := []string{"m3", "m4", "m5"}
	for i, w := range want {
		if got := *recent[i].Children[0].Content; got != w {
			t.Errorf("position %d: got %s, want %s", i, got, w)
		}
	}
}

func TestListRecentNShorterHistory(t *testing.T) {
	messages := NewMessageStore(store.NewInMemoryStore())
	addMessage(t, messages, domain.RoleUser, "only one")

	recent, err := messages.ListRecentN(context.Background(), "w1", "s1", 16)
	if err != nil {
		t.Fatalf("ListRecentN failed: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("got %d messages, want 1", len(recent))
	}
}

func TestResourceStoreLifecycle(t *testing.T) {
	resources := NewResourceStore(store.NewInMemoryStore())
	ctx := context.Background()

	website, err := resources.AddWebsite(ctx, "startup board")
	if err != nil {
		t.Fatalf("AddWebsite failed: %v", err)
	}
	session, err := resources.AddSession(ctx, website.ID)
	if err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}
	if _, err := resources.GetSession(ctx, website.ID, session.ID); err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}

	t.Run("session under unknown website", func(t *testing.T) {
		_, err := resources.AddSession(ctx, "missing")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("want ErrNotFound, got %v", err)
		}
	})

	t.Run("delete session", func(t *testing.T) {
		if err := resources.DeleteSession(ctx, website.ID, session.ID); err != nil {
			t.Fatalf("DeleteSession failed: %v", err)
		}
		if _, err := resources.GetSession(ctx, website.ID, session.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("want ErrNotFound after delete, got %v", err)
		}
	})
}
