// Package indexer pushes persisted text fragments into the vector index,
// one collection per website.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/internal/store"
	"github.com/jwyoon/noticebot/internal/vector"
	"github.com/jwyoon/noticebot/pkg/logging"
)

// Ingestor is the slice of the vector engine the indexer needs.
type Ingestor interface {
	IngestDocuments(ctx context.Context, collection string, docs []vector.Document) error
}

// IndexRequest asks for a website's fragments to be (re)indexed. With
// DocumentIDs set, only fragments of those documents are considered.
type IndexRequest struct {
	WebsiteID   string   `json:"websiteId"`
	DocumentIDs []string `json:"documentIds,omitempty"`
}

func (r IndexRequest) Validate() error {
	if r.WebsiteID == "" {
		return fmt.Errorf("%w: websiteId is empty", domain.ErrInvalidArgument)
	}
	return nil
}

type IndexResult struct {
	IndexedFragments int `json:"indexedFragments"`
}

type Service interface {
	Run(ctx context.Context, req IndexRequest) (IndexResult, error)
}

type service struct {
	docs     store.DocumentStore
	ingestor Ingestor
	logger   *logging.Logger
}

func NewService(docs store.DocumentStore, ingestor Ingestor) Service {
	return &service{
		docs:     docs,
		ingestor: ingestor,
		logger:   logging.NewLogger("IndexService"),
	}
}

// Run loads the website's fragments, attaches document-level metadata and
// ingests everything into the website's collection. Fragment ids are stable,
// so re-running overwrites instead of duplicating.
func (s *service) Run(ctx context.Context, req IndexRequest) (IndexResult, error) {
	if err := req.Validate(); err != nil {
		return IndexResult{}, err
	}
	log := s.logger.With("website", req.WebsiteID)

	fragments, err := s.loadFragments(ctx, req)
	if err != nil {
		return IndexResult{}, err
	}
	if len(fragments) == 0 {
		log.Info("no fragments to index")
		return IndexResult{}, nil
	}

	documents, err := s.buildDocuments(ctx, req.WebsiteID, fragments)
	if err != nil {
		return IndexResult{}, err
	}
	if err := s.ingestor.IngestDocuments(ctx, req.WebsiteID, documents); err != nil {
		return IndexResult{}, err
	}
	log.Info("indexing finished", "fragments", len(documents))
	return IndexResult{IndexedFragments: len(documents)}, nil
}

func (s *service) loadFragments(ctx context.Context, req IndexRequest) ([]domain.TextFragment, error) {
	raw, err := s.docs.List(ctx, store.WebsiteFragments(req.WebsiteID))
	if err != nil {
		return nil, fmt.Errorf("%w: listing fragments: %v", domain.ErrUpstreamFailure, err)
	}

	wanted := make(map[string]bool, len(req.DocumentIDs))
	for _, id := range req.DocumentIDs {
		wanted[id] = true
	}

	fragments := make([]domain.TextFragment, 0, len(raw))
	for id, data := range raw {
		var fragment domain.TextFragment
		if err := json.Unmarshal(data, &fragment); err != nil {
			return nil, fmt.Errorf("%w: fragment %s is not valid JSON: %v", domain.ErrInvalidArgument, id, err)
		}
		if len(wanted) > 0 && !wanted[fragment.DocumentID] {
			continue
		}
		fragments = append(fragments, fragment)
	}
	// Stable order keeps embedding batches reproducible.
	sort.Slice(fragments, func(i, j int) bool { return fragments[i].ID < fragments[j].ID })
	return fragments, nil
}

// buildDocuments joins each fragment with its parent document's metadata so
// the reply path can render retrieved fragments as full notices.
func (s *service) buildDocuments(ctx context.Context, websiteID string, fragments []domain.TextFragment) ([]vector.Document, error) {
	parents := make(map[string]domain.CrawledDocument)
	parent := store.WebsiteDocuments(websiteID)
	for _, fragment := range fragments {
		if _, ok := parents[fragment.DocumentID]; ok {
			continue
		}
		raw, err := s.docs.Get(ctx, parent, fragment.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("loading parent document %s: %w", fragment.DocumentID, err)
		}
		var doc domain.CrawledDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: document %s is not valid JSON: %v", domain.ErrInvalidArgument, fragment.DocumentID, err)
		}
		parents[fragment.DocumentID] = doc
	}

	documents := make([]vector.Document, 0, len(fragments))
	for _, fragment := range fragments {
		doc := parents[fragment.DocumentID]
		metadata := map[string]string{
			vector.MetaTitle:      doc.Title,
			vector.MetaURL:        doc.URL,
			vector.MetaDocumentID: doc.ID,
			vector.MetaSource:     string(fragment.Source),
		}
		if len(doc.ImageURLs) > 0 {
			metadata[vector.MetaImageURL] = doc.ImageURLs[0]
		}
		documents = append(documents, vector.Document{
			ID:       fragment.ID,
			Content:  fragment.Content,
			Metadata: metadata,
		})
	}
	return documents, nil
}
