package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/jwyoon/noticebot/internal/config"
	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/internal/llm"
	"github.com/jwyoon/noticebot/internal/vector"
	"github.com/jwyoon/noticebot/pkg/logging"
)

// QueryEngine is the slice of the vector engine the reply path needs.
type QueryEngine interface {
	Query(ctx context.Context, collection string, queryTexts []string, opts vector.QueryOptions) ([][]vector.Neighbor, error)
}

// AnswerCache memoizes generated answers per question. The cache is best
// effort: a failing cache degrades to a normal generation pass.
type AnswerCache interface {
	Lookup(ctx context.Context, question string) (string, bool, error)
	Store(ctx context.Context, question, answer string) error
}

// Assembler turns one user turn into a generated reply. Each turn walks a
// fixed sequence: load history, retrieve grounding documents, generate,
// persist. Concurrent turns on one session are not ordered against each
// other.
type Assembler struct {
	messages *MessageStore
	engine   QueryEngine
	provider llm.Provider
	cache    AnswerCache
	now      func() time.Time
	logger   *logging.Logger
}

func NewAssembler(messages *MessageStore, engine QueryEngine, provider llm.Provider) *Assembler {
	return &Assembler{
		messages: messages,
		engine:   engine,
		provider: provider,
		now:      time.Now,
		logger:   logging.NewLogger("ReplyAssembler"),
	}
}

// WithCache enables answer memoization.
func (a *Assembler) WithCache(cache AnswerCache) *Assembler {
	a.cache = cache
	return a
}

// Reply generates and persists the assistant's answer for the session's
// latest user turn. It returns the reply message, followed by a carousel
// message when grounding documents were retrieved. If the carousel write
// fails after the reply was written, the reply is returned alongside the
// error; the partial result is the caller's to see.
func (a *Assembler) Reply(ctx context.Context, websiteID, sessionID string) ([]domain.Message, error) {
	log := a.logger.With("website", websiteID, "session", sessionID)

	history, lastUser, err := a.loadHistory(ctx, websiteID, sessionID)
	if err != nil {
		return nil, err
	}

	question := questionText(lastUser)
	if cached, ok := a.lookupCached(ctx, question); ok {
		log.Info("answering from cache")
		return a.persist(ctx, websiteID, sessionID, cached, nil)
	}

	docs, err := a.retrieve(ctx, websiteID, lastUser)
	if err != nil {
		return nil, err
	}
	log.Debug("retrieval finished", "documents", len(docs))

	reply, err := a.generate(ctx, history, lastUser, docs)
	if err != nil {
		return nil, err
	}
	a.storeCached(ctx, question, reply)

	return a.persist(ctx, websiteID, sessionID, reply, docs)
}

func questionText(lastUser domain.Message) string {
	for _, child := range lastUser.Children {
		if child.Content != nil && *child.Content != "" {
			return *child.Content
		}
	}
	return ""
}

func (a *Assembler) lookupCached(ctx context.Context, question string) (string, bool) {
	if a.cache == nil || question == "" {
		return "", false
	}
	answer, ok, err := a.cache.Lookup(ctx, question)
	if err != nil {
		a.logger.Warn("cache lookup failed", "error", err)
		return "", false
	}
	return answer, ok
}

func (a *Assembler) storeCached(ctx context.Context, question, answer string) {
	if a.cache == nil || question == "" {
		return
	}
	if err := a.cache.Store(ctx, question, answer); err != nil {
		a.logger.Warn("cache store failed", "error", err)
	}
}

// loadHistory fetches the recent window, drops placeholder messages without
// children and locates the latest user turn.
func (a *Assembler) loadHistory(ctx context.Context, websiteID, sessionID string) ([]domain.Message, domain.Message, error) {
	window := 0
	for _, size := range config.ReplyWindowSizes {
		window = max(window, size)
	}
	recent, err := a.messages.ListRecentN(ctx, websiteID, sessionID, window)
	if err != nil {
		return nil, domain.Message{}, err
	}

	history := make([]domain.Message, 0, len(recent))
	for _, msg := range recent {
		if len(msg.Children) > 0 {
			history = append(history, msg)
		}
	}
	if len(history) == 0 {
		return nil, domain.Message{}, fmt.Errorf("%w: website %s session %s", domain.ErrNoHistory, websiteID, sessionID)
	}

	var lastUser *domain.Message
	for i := range history {
		if history[i].Role == domain.RoleUser {
			lastUser = &history[i]
		}
	}
	if lastUser == nil {
		return nil, domain.Message{}, fmt.Errorf("%w: website %s session %s", domain.ErrNoUserMessage, websiteID, sessionID)
	}
	return history, *lastUser, nil
}

// retrieve embeds the last user turn's children as queries and flattens the
// filtered neighbors into grounding documents, deduplicated by source url.
// Zero retrieved documents is a valid outcome.
func (a *Assembler) retrieve(ctx context.Context, websiteID string, lastUser domain.Message) ([]RetrievedDocument, error) {
	queries := make([]string, 0, len(lastUser.Children))
	for _, child := range lastUser.Children {
		if child.Content != nil && *child.Content != "" {
			queries = append(queries, *child.Content)
		}
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: last user message %s has no content", domain.ErrNoQueryContent, lastUser.ID)
	}

	results, err := a.engine.Query(ctx, websiteID, queries, vector.QueryOptions{
		NumResults:       config.ReplyNumResults,
		MaxDistance:      config.ReplyMaxDistance,
		MinContentLength: config.ReplyMinContentLength,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving documents: %w", err)
	}

	seen := make(map[string]bool)
	docs := make([]RetrievedDocument, 0)
	for _, neighbors := range results {
		for _, n := range neighbors {
			url := n.Metadata[vector.MetaURL]
			if seen[url] {
				continue
			}
			seen[url] = true
			docs = append(docs, RetrievedDocument{
				ID:       n.ID,
				Title:    n.Metadata[vector.MetaTitle],
				Content:  n.Content,
				ImageURL: n.Metadata[vector.MetaImageURL],
				URL:      url,
			})
		}
	}
	return docs, nil
}

func (a *Assembler) generate(ctx context.Context, history []domain.Message, lastUser domain.Message, docs []RetrievedDocument) (string, error) {
	question := ""
	if lastUser.Children[0].Content != nil {
		question = *lastUser.Children[0].Content
	}
	payload, err := userPayload(question, docs)
	if err != nil {
		return "", err
	}

	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.ChatMessage{Role: domain.RoleSystem, Content: systemPrompt(a.now())})
	messages = append(messages, chatContext(history)...)
	messages = append(messages, llm.ChatMessage{Role: domain.RoleUser, Content: payload})

	return a.provider.Complete(ctx, messages)
}

func (a *Assembler) persist(ctx context.Context, websiteID, sessionID, reply string, docs []RetrievedDocument) ([]domain.Message, error) {
	replyMessage, err := a.messages.Add(ctx, websiteID, sessionID, domain.Message{
		Role:     domain.RoleAssistant,
		Children: []domain.ChildMessage{{Content: domain.Str(reply)}},
	})
	if err != nil {
		return nil, fmt.Errorf("persisting reply: %w", err)
	}
	if len(docs) == 0 {
		return []domain.Message{replyMessage}, nil
	}

	children := make([]domain.ChildMessage, 0, len(docs))
	for _, doc := range docs {
		child := domain.ChildMessage{
			Title:   domain.Str(doc.Title),
			Content: domain.Str(doc.Content),
			URL:     domain.Str(doc.URL),
		}
		if doc.ImageURL != "" {
			child.ImageURL = domain.Str(doc.ImageURL)
		}
		children = append(children, child)
	}
	carouselMessage, err := a.messages.Add(ctx, websiteID, sessionID, domain.Message{
		Role:     domain.RoleAssistant,
		Children: children,
	})
	if err != nil {
		// The reply already exists; report the shorter result with the error.
		return []domain.Message{replyMessage}, fmt.Errorf("persisting retrieval carousel after reply %s: %w", replyMessage.ID, err)
	}
	return []domain.Message{replyMessage, carouselMessage}, nil
}
