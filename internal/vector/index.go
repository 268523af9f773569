// Package vector holds the retrieval core: a vector index façade, the
// embed-search pipeline, and the filter+dedup pass over search results.
package vector

import "context"

// Neighbor is one nearest-neighbor hit. Distance is a pointer because the
// index may omit it; a missing distance never passes a distance filter.
type Neighbor struct {
	ID       string            `json:"id"`
	Distance *float64          `json:"distance"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// Document is one indexable item.
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// Metadata keys shared between the indexing and reply paths.
const (
	MetaTitle      = "title"
	MetaURL        = "url"
	MetaImageURL   = "imageUrl"
	MetaDocumentID = "documentId"
	MetaSource     = "source"
)

// Index is the vector index boundary. Collections partition documents by
// logical source; one website maps to one collection.
type Index interface {
	CreateCollection(ctx context.Context, name string) error
	CollectionExists(ctx context.Context, name string) (bool, error)
	DeleteCollection(ctx context.Context, name string) error
	AddDocuments(ctx context.Context, collection string, docs []Document, vectors [][]float32) error
	Query(ctx context.Context, collection string, vector []float32, numResults int) ([]Neighbor, error)
}
