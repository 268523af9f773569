package vector

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/jwyoon/noticebot/internal/embedding"
	"github.com/jwyoon/noticebot/pkg/logging"
)

// QueryOptions bound one retrieval pass.
type QueryOptions struct {
	NumResults       int     `json:"numResults"`
	MaxDistance      float64 `json:"maxDistance"`
	MinContentLength int     `json:"minContentLength"`
}

// Engine embeds query texts, searches a collection and post-processes the
// neighbors. One query text is one embedding call plus one search; multiple
// texts run concurrently because they are independent.
type Engine struct {
	embedder embedding.Embedder
	index    Index
	logger   *logging.Logger
}

func NewEngine(embedder embedding.Embedder, index Index) *Engine {
	return &Engine{
		embedder: embedder,
		index:    index,
		logger:   logging.NewLogger("QueryEngine"),
	}
}

// Query returns one filtered, deduplicated neighbor list per query text. An
// empty neighbor set is a valid result, not an error.
func (e *Engine) Query(ctx context.Context, collection string, queryTexts []string, opts QueryOptions) ([][]Neighbor, error) {
	results := make([][]Neighbor, len(queryTexts))
	errs := make([]error, len(queryTexts))

	var wg sync.WaitGroup
	for i, text := range queryTexts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			results[i], errs[i] = e.queryOne(ctx, collection, text, opts)
		}(i, text)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
	}
	return results, nil
}

func (e *Engine) queryOne(ctx context.Context, collection, text string, opts QueryOptions) ([]Neighbor, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	neighbors, err := e.index.Query(ctx, collection, vec, opts.NumResults)
	if err != nil {
		return nil, err
	}
	kept := DedupeByID(Filter(neighbors, opts.MaxDistance, opts.MinContentLength))
	e.logger.Debug("query processed", "collection", collection, "raw", len(neighbors), "kept", len(kept))
	return kept, nil
}

// Filter keeps neighbors within maxDistance whose content is at least
// minContentLength characters. Both boundaries are inclusive. A missing
// distance counts as infinite and never passes.
func Filter(neighbors []Neighbor, maxDistance float64, minContentLength int) []Neighbor {
	kept := make([]Neighbor, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Distance == nil || *n.Distance > maxDistance {
			continue
		}
		if utf8.RuneCountInString(n.Content) < minContentLength {
			continue
		}
		kept = append(kept, n)
	}
	return kept
}

// DedupeByID keeps the first occurrence of each id, preserving order. It
// runs after Filter so the survivor is the first occurrence that passed the
// quality gate, not merely the first returned.
func DedupeByID(neighbors []Neighbor) []Neighbor {
	seen := make(map[string]bool, len(neighbors))
	kept := make([]Neighbor, 0, len(neighbors))
	for _, n := range neighbors {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		kept = append(kept, n)
	}
	return kept
}
