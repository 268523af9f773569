package vector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/jwyoon/noticebot/internal/config"
	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/pkg/logging"
)

var dimension = uint64(config.EmbeddingDimension)

// metadata payload keys are prefixed so they cannot collide with the
// reserved id/content keys.
const (
	payloadID      = "id"
	payloadContent = "content"
	metaPrefix     = "meta_"
)

// QdrantIndex implements Index on a qdrant instance. Qdrant only accepts
// UUID or integer point ids, so the point id is a deterministic UUID derived
// from the document id; the real id travels in the payload. The derivation
// keeps re-indexing idempotent.
type QdrantIndex struct {
	client *qdrant.Client
	logger *logging.Logger
}

func NewQdrantIndex(client *qdrant.Client) *QdrantIndex {
	return &QdrantIndex{
		client: client,
		logger: logging.NewLogger("QdrantIndex"),
	}
}

func pointID(documentID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(documentID)).String()
}

func (q *QdrantIndex) CreateCollection(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty collection name", domain.ErrInvalidArgument)
	}
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: checking collection %s: %v", domain.ErrUpstreamFailure, name, err)
	}
	if exists {
		return nil
	}
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection %s: %v", domain.ErrUpstreamFailure, name, err)
	}
	q.logger.Info("created collection", "name", name)
	return nil
}

func (q *QdrantIndex) CollectionExists(ctx context.Context, name string) (bool, error) {
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("%w: checking collection %s: %v", domain.ErrUpstreamFailure, name, err)
	}
	return exists, nil
}

func (q *QdrantIndex) DeleteCollection(ctx context.Context, name string) error {
	exists, err := q.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
	}
	if err := q.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("%w: deleting collection %s: %v", domain.ErrUpstreamFailure, name, err)
	}
	return nil
}

func (q *QdrantIndex) AddDocuments(ctx context.Context, collection string, docs []Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("%w: got %d documents but %d vectors", domain.ErrInvalidArgument, len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		payload := map[string]any{
			payloadID:      doc.ID,
			payloadContent: doc.Content,
		}
		for k, v := range doc.Metadata {
			payload[metaPrefix+k] = v
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(doc.ID)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: qdrant upsert: %v", domain.ErrUpstreamFailure, err)
	}
	return nil
}

// Query returns up to numResults neighbors. Qdrant scores cosine hits by
// similarity, so the score is converted to a distance here; every neighbor
// it returns carries one.
func (q *QdrantIndex) Query(ctx context.Context, collection string, vector []float32, numResults int) ([]Neighbor, error) {
	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(numResults)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant query: %v", domain.ErrUpstreamFailure, err)
	}

	neighbors := make([]Neighbor, 0, len(hits))
	for _, hit := range hits {
		distance := 1 - float64(hit.Score)
		neighbor := Neighbor{
			ID:       hit.Payload[payloadID].GetStringValue(),
			Distance: &distance,
			Content:  hit.Payload[payloadContent].GetStringValue(),
			Metadata: make(map[string]string),
		}
		for key, value := range hit.Payload {
			if meta, ok := cutMetaKey(key); ok {
				neighbor.Metadata[meta] = value.GetStringValue()
			}
		}
		neighbors = append(neighbors, neighbor)
	}
	return neighbors, nil
}

func cutMetaKey(key string) (string, bool) {
	if len(key) > len(metaPrefix) && key[:len(metaPrefix)] == metaPrefix {
		return key[len(metaPrefix):], true
	}
	return "", false
}
