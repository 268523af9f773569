package vector

import (
	"context"
	"fmt"

	"github.com/jwyoon/noticebot/internal/config"
)

// IngestDocuments embeds the documents and upserts them into the collection
// in batches, creating the collection on first use. Ids are stable, so
// re-ingesting the same documents overwrites instead of duplicating.
func (e *Engine) IngestDocuments(ctx context.Context, collection string, docs []Document) error {
	if err := e.index.CreateCollection(ctx, collection); err != nil {
		return err
	}
	for start := 0; start < len(docs); start += config.IndexBatchSize {
		end := min(start+config.IndexBatchSize, len(docs))
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Content
		}
		vectors, err := e.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch at %d: %w", start, err)
		}
		if err := e.index.AddDocuments(ctx, collection, batch, vectors); err != nil {
			return fmt.Errorf("indexing batch at %d: %w", start, err)
		}
		e.logger.Debug("indexed batch", "collection", collection, "from", start, "to", end)
	}
	return nil
}
