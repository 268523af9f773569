package embedding

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jwyoon/noticebot/internal/config"
	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/pkg/logging"
)

var dimension = config.EmbeddingDimension

// GoogleEmbedder embeds text with the gemini embedding models. Queries and
// documents use different task types, which measurably changes retrieval
// quality.
type GoogleEmbedder struct {
	genAI  *genai.Client
	model  string
	logger *logging.Logger
}

func NewGoogleEmbedder(genAI *genai.Client, model string) *GoogleEmbedder {
	return &GoogleEmbedder{
		genAI:  genAI,
		model:  model,
		logger: logging.NewLogger("GoogleEmbedder"),
	}
}

func (e *GoogleEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	result, err := e.embed(ctx, []string{text}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return result[0], nil
}

func (e *GoogleEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	return e.embed(ctx, texts, "RETRIEVAL_DOCUMENT")
}

func (e *GoogleEmbedder) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: text}}})
	}
	cfg := &genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: taskType}

	result, err := e.genAI.Models.EmbedContent(ctx, e.model, contents, cfg)
	if err != nil && isRateLimited(err) {
		e.logger.Warn("embedding rate limit hit, retrying once", "error", err)
		time.Sleep(5 * time.Second)
		result, err = e.genAI.Models.EmbedContent(ctx, e.model, contents, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: embedding %d texts: %v", domain.ErrUpstreamFailure, len(texts), err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: embedding provider returned %d vectors for %d texts", domain.ErrUpstreamFailure, len(result.Embeddings), len(texts))
	}

	vectors := make([][]float32, 0, len(result.Embeddings))
	for _, emb := range result.Embeddings {
		vectors = append(vectors, emb.Values)
	}
	return vectors, nil
}

func isRateLimited(err error) bool {
	if s, ok := status.FromError(err); ok {
		return s.Code() == codes.ResourceExhausted
	}
	return false
}
