// Package embedding wraps the embedding provider behind a small interface
// so the query engine and the indexer can be tested against fakes.
package embedding

import "context"

type Embedder interface {
	// EmbedQuery embeds one retrieval query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// EmbedDocuments embeds a batch of document fragments.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}
