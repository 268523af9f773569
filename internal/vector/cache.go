package vector

import (
	"context"
	"fmt"

	"github.com/jwyoon/noticebot/internal/config"
	"github.com/jwyoon/noticebot/internal/embedding"
	"github.com/jwyoon/noticebot/pkg/logging"
)

// CacheCollection holds memoized answers keyed by question embedding.
const CacheCollection = "semantic-cache"

const cacheMetaAnswer = "answer"

// ReplyCache memoizes generated answers. A question whose embedding lands
// within the distance cutoff of a previously answered question reuses that
// answer instead of a fresh retrieval and generation pass.
type ReplyCache struct {
	embedder    embedding.Embedder
	index       Index
	maxDistance float64
	logger      *logging.Logger
}

func NewReplyCache(embedder embedding.Embedder, index Index) *ReplyCache {
	return &ReplyCache{
		embedder:    embedder,
		index:       index,
		maxDistance: config.ReplyCacheMaxDistance,
		logger:      logging.NewLogger("ReplyCache"),
	}
}

// Lookup returns the cached answer for a semantically equivalent question.
// A missing distance never counts as a hit.
func (c *ReplyCache) Lookup(ctx context.Context, question string) (string, bool, error) {
	vec, err := c.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return "", false, fmt.Errorf("embedding cache question: %w", err)
	}
	neighbors, err := c.index.Query(ctx, CacheCollection, vec, 1)
	if err != nil {
		return "", false, fmt.Errorf("querying %s: %w", CacheCollection, err)
	}
	if len(neighbors) == 0 {
		return "", false, nil
	}
	hit := neighbors[0]
	if hit.Distance == nil || *hit.Distance > c.maxDistance {
		return "", false, nil
	}
	c.logger.Info("cache hit", "distance", *hit.Distance)
	return hit.Metadata[cacheMetaAnswer], true, nil
}

// Store memoizes an answer under its question. The question is embedded the
// same way lookups are, so both sides live in the query embedding space, and
// the deterministic point id keeps a repeated question as one entry.
func (c *ReplyCache) Store(ctx context.Context, question, answer string) error {
	vec, err := c.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return fmt.Errorf("embedding cache question: %w", err)
	}
	if err := c.index.CreateCollection(ctx, CacheCollection); err != nil {
		return err
	}
	doc := Document{
		ID:       question,
		Content:  question,
		Metadata: map[string]string{cacheMetaAnswer: answer},
	}
	return c.index.AddDocuments(ctx, CacheCollection, []Document{doc}, [][]float32{vec})
}
