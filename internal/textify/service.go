package textify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/internal/store"
	"github.com/jwyoon/noticebot/pkg/logging"
)

// TextifyRequest asks for the named documents to be split into fragments of
// each configured length, per extraction source.
type TextifyRequest struct {
	WebsiteID   string   `json:"websiteId"`
	DocumentIDs []string `json:"documentIds"`
	TextLengths []int    `json:"textLengths"`
}

func (r TextifyRequest) Validate() error {
	if r.WebsiteID == "" {
		return fmt.Errorf("%w: websiteId is empty", domain.ErrInvalidArgument)
	}
	if len(r.DocumentIDs) == 0 {
		return fmt.Errorf("%w: documentIds is empty", domain.ErrInvalidArgument)
	}
	if len(r.TextLengths) == 0 {
		return fmt.Errorf("%w: textLengths is empty", domain.ErrInvalidArgument)
	}
	for _, length := range r.TextLengths {
		if length <= 0 {
			return fmt.Errorf("%w: text lengths must be positive, got %d", domain.ErrInvalidArgument, length)
		}
	}
	return nil
}

// TextifyResult counts persisted fragments per extraction source.
type TextifyResult struct {
	TitleFragments   int `json:"titleFragments"`
	ContentFragments int `json:"contentFragments"`
	ImageFragments   int `json:"imageFragments"`
}

type Service interface {
	Run(ctx context.Context, req TextifyRequest) (TextifyResult, error)
}

type service struct {
	docs   store.DocumentStore
	ocr    TextExtractor
	logger *logging.Logger
}

func NewService(docs store.DocumentStore, ocr TextExtractor) Service {
	return &service{
		docs:   docs,
		ocr:    ocr,
		logger: logging.NewLogger("TextifyService"),
	}
}

// Run loads the documents, splits each extraction source across every
// configured length and persists one fragment batch per source.
func (s *service) Run(ctx context.Context, req TextifyRequest) (TextifyResult, error) {
	if err := req.Validate(); err != nil {
		return TextifyResult{}, err
	}
	log := s.logger.With("website", req.WebsiteID, "documents", len(req.DocumentIDs))

	documents, err := s.loadDocuments(ctx, req.WebsiteID, req.DocumentIDs)
	if err != nil {
		return TextifyResult{}, err
	}

	var result TextifyResult
	sources := []struct {
		source  domain.FragmentSource
		extract func(context.Context, domain.CrawledDocument) string
		count   *int
	}{
		{domain.SourceTitle, func(_ context.Context, d domain.CrawledDocument) string { return d.Title }, &result.TitleFragments},
		{domain.SourceContent, func(_ context.Context, d domain.CrawledDocument) string { return d.Content }, &result.ContentFragments},
		{domain.SourceImage, func(ctx context.Context, d domain.CrawledDocument) string {
			return ocrAllImages(ctx, s.ocr, d.ImageURLs, s.logger)
		}, &result.ImageFragments},
	}

	for _, src := range sources {
		fragments := make([]domain.TextFragment, 0)
		for _, doc := range documents {
			fragments = append(fragments, Split(doc.ID, src.extract(ctx, doc), src.source, req.TextLengths)...)
		}
		if err := s.saveFragments(ctx, req.WebsiteID, fragments); err != nil {
			return TextifyResult{}, err
		}
		*src.count = len(fragments)
		log.Debug("persisted fragments", "source", src.source, "count", len(fragments))
	}
	log.Info("textify finished", "title", result.TitleFragments, "content", result.ContentFragments, "image", result.ImageFragments)
	return result, nil
}

func (s *service) loadDocuments(ctx context.Context, websiteID string, ids []string) ([]domain.CrawledDocument, error) {
	parent := store.WebsiteDocuments(websiteID)
	documents := make([]domain.CrawledDocument, 0, len(ids))
	for _, id := range ids {
		raw, err := s.docs.Get(ctx, parent, id)
		if err != nil {
			return nil, fmt.Errorf("loading document %s: %w", id, err)
		}
		var doc domain.CrawledDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: document %s is not valid JSON: %v", domain.ErrInvalidArgument, id, err)
		}
		documents = append(documents, doc)
	}
	return documents, nil
}

// saveFragments stamps the batch with one createdAt and commits it whole.
func (s *service) saveFragments(ctx context.Context, websiteID string, fragments []domain.TextFragment) error {
	if len(fragments) == 0 {
		return nil
	}
	createdAt := time.Now().UTC().Format(time.RFC3339)
	batch := make(map[string][]byte, len(fragments))
	for _, fragment := range fragments {
		fragment.CreatedAt = createdAt
		data, err := json.Marshal(fragment)
		if err != nil {
			return fmt.Errorf("marshalling fragment %s: %w", fragment.ID, err)
		}
		batch[fragment.ID] = data
	}
	if err := s.docs.SetBatch(ctx, store.WebsiteFragments(websiteID), batch); err != nil {
		return fmt.Errorf("%w: writing fragments: %v", domain.ErrUpstreamFailure, err)
	}
	return nil
}
