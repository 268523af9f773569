package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/internal/store"
	"github.com/jwyoon/noticebot/pkg/logging"
)

// CrawlRequest asks for the inclusive id range [MinID, MaxID] of a website's
// board to be crawled.
type CrawlRequest struct {
	WebsiteID string            `json:"websiteId"`
	MinID     int               `json:"minId"`
	MaxID     int               `json:"maxId"`
	Strategy  DuplicateStrategy `json:"duplicateCrawlStrategy"`
	Retry     RetryConfig       `json:"retryConfig"`
}

func (r CrawlRequest) Validate() error {
	if r.WebsiteID == "" {
		return fmt.Errorf("%w: websiteId is empty", domain.ErrInvalidArgument)
	}
	if r.MinID < 0 || r.MaxID < 0 {
		return fmt.Errorf("%w: ids must not be negative", domain.ErrInvalidArgument)
	}
	if r.MinID > r.MaxID {
		return fmt.Errorf("%w: minId must not exceed maxId", domain.ErrInvalidArgument)
	}
	if err := r.Strategy.Validate(); err != nil {
		return err
	}
	return r.Retry.Validate()
}

// CrawlResult summarizes one batch: which ids survived duplicate filtering,
// how many documents were written, and the per-page errors.
type CrawlResult struct {
	RequestedIDs int                 `json:"requestedIds"`
	CrawledIDs   []string            `json:"crawledIds"`
	Errors       []domain.CrawlError `json:"errors"`
}

type Service interface {
	Run(ctx context.Context, req CrawlRequest) (CrawlResult, error)
}

type service struct {
	crawler *Crawler
	filter  *DuplicateFilter
	docs    store.DocumentStore
	logger  *logging.Logger
}

func NewService(crawler *Crawler, filter *DuplicateFilter, docs store.DocumentStore) Service {
	return &service{
		crawler: crawler,
		filter:  filter,
		docs:    docs,
		logger:  logging.NewLogger("CrawlService"),
	}
}

// Run filters the id range against the store, crawls what remains and
// persists the successes as one batch.
func (s *service) Run(ctx context.Context, req CrawlRequest) (CrawlResult, error) {
	if err := req.Validate(); err != nil {
		return CrawlResult{}, err
	}
	log := s.logger.With("website", req.WebsiteID, "minId", req.MinID, "maxId", req.MaxID)

	candidates := GenerateIDs(req.MinID, req.MaxID)
	ids, err := s.filter.Filter(ctx, req.WebsiteID, candidates, req.Strategy)
	if err != nil {
		return CrawlResult{}, err
	}
	if len(ids) == 0 {
		log.Info("nothing to crawl after duplicate filtering")
		return CrawlResult{RequestedIDs: len(candidates), CrawledIDs: []string{}, Errors: []domain.CrawlError{}}, nil
	}

	docs, crawlErrs := s.crawler.Crawl(ctx, ids, req.Retry)
	if err := s.SaveDocuments(ctx, req.WebsiteID, docs); err != nil {
		return CrawlResult{}, err
	}
	log.Info("crawl finished", "crawled", len(docs), "failed", len(crawlErrs))

	crawledIDs := make([]string, 0, len(docs))
	for _, doc := range docs {
		crawledIDs = append(crawledIDs, doc.ID)
	}
	return CrawlResult{
		RequestedIDs: len(candidates),
		CrawledIDs:   crawledIDs,
		Errors:       crawlErrs,
	}, nil
}

// SaveDocuments stamps the whole batch with one crawledAt and writes it
// atomically.
func (s *service) SaveDocuments(ctx context.Context, websiteID string, docs []domain.CrawledDocument) error {
	if len(docs) == 0 {
		return nil
	}
	crawledAt := time.Now().UTC().Format(time.RFC3339)
	batch := make(map[string][]byte, len(docs))
	for _, doc := range docs {
		doc.CrawledAt = crawledAt
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshalling document %s: %w", doc.ID, err)
		}
		batch[doc.ID] = data
	}
	if err := s.docs.SetBatch(ctx, store.WebsiteDocuments(websiteID), batch); err != nil {
		return fmt.Errorf("%w: writing crawled documents: %v", domain.ErrUpstreamFailure, err)
	}
	return nil
}
