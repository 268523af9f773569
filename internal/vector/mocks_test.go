package vector

import "context"

// MockEmbedder implements embedding.Embedder.
type MockEmbedder struct {
	OnEmbedQuery     func(ctx context.Context, text string) ([]float32, error)
	OnEmbedDocuments func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if m.OnEmbedQuery != nil {
		return m.OnEmbedQuery(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if m.OnEmbedDocuments != nil {
		return m.OnEmbedDocuments(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

// MockIndex implements Index.
type MockIndex struct {
	OnCreateCollection func(ctx context.Context, name string) error
	OnCollectionExists func(ctx context.Context, name string) (bool, error)
	OnDeleteCollection func(ctx context.Context, name string) error
	OnAddDocuments     func(ctx context.Context, collection string, docs []Document, vectors [][]float32) error
	OnQuery            func(ctx context.Context, collection string, vector []float32, numResults int) ([]Neighbor, error)
}

func (m *MockIndex) CreateCollection(ctx context.Context, name string) error {
	if m.OnCreateCollection != nil {
		return m.OnCreateCollection(ctx, name)
	}
	return nil
}

func (m *MockIndex) CollectionExists(ctx context.Context, name string) (bool, error) {
	if m.OnCollectionExists != nil {
		return m.OnCollectionExists(ctx, name)
	}
	return true, nil
}

func (m *MockIndex) DeleteCollection(ctx context.Context, name string) error {
	if m.OnDeleteCollection != nil {
		return m.OnDeleteCollection(ctx, name)
	}
	return nil
}

func (m *MockIndex) AddDocuments(ctx context.Context, collection string, docs []Document, vectors [][]float32) error {
	if m.OnAddDocuments != nil {
		return m.OnAddDocuments(ctx, collection, docs, vectors)
	}
	return nil
}

func (m *MockIndex) Query(ctx context.Context, collection string, vector []float32, numResults int) ([]Neighbor, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, collection, vector, numResults)
	}
	return []Neighbor{}, nil
}

func dist(d float64) *float64 {
	return &d
}
