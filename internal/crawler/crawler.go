// Package crawler fetches board pages by id, with bounded retry per page
// and duplicate detection against the document store.
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/pkg/logging"
)

// RetryConfig bounds the per-page retry loop. A page is attempted
// MaxRetry+1 times in total, sleeping Interval between attempts.
type RetryConfig struct {
	MaxRetry int           `json:"maxRetry"`
	Interval time.Duration `json:"-"`
}

func (c RetryConfig) Validate() error {
	if c.MaxRetry < 0 {
		return fmt.Errorf("%w: maxRetry must not be negative", domain.ErrInvalidArgument)
	}
	if c.Interval < 0 {
		return fmt.Errorf("%w: retry interval must not be negative", domain.ErrInvalidArgument)
	}
	return nil
}

// Crawler fetches and parses pages. Fetches within a batch run concurrently;
// each page degrades independently into a CrawlError when its retry budget
// runs out.
type Crawler struct {
	client      *http.Client
	parser      *Parser
	urlTemplate string
	logger      *logging.Logger
}

func New(client *http.Client, parser *Parser, urlTemplate string) *Crawler {
	return &Crawler{
		client:      client,
		parser:      parser,
		urlTemplate: urlTemplate,
		logger:      logging.NewLogger("Crawler"),
	}
}

// GenerateIDs returns the string ids for the inclusive range [minID, maxID].
func GenerateIDs(minID, maxID int) []string {
	ids := make([]string, 0, maxID-minID+1)
	for id := minID; id <= maxID; id++ {
		ids = append(ids, strconv.Itoa(id))
	}
	return ids
}

// Crawl fetches every id concurrently and partitions the batch into
// documents and errors. It never fails as a whole.
func (c *Crawler) Crawl(ctx context.Context, ids []string, retry RetryConfig) ([]domain.CrawledDocument, []domain.CrawlError) {
	type outcome struct {
		doc     domain.CrawledDocument
		crawlEr *domain.CrawlError
	}

	outcomes := make([]outcome, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			doc, crawlErr := c.crawlWithRetry(ctx, id, retry)
			outcomes[i] = outcome{doc: doc, crawlEr: crawlErr}
		}(i, id)
	}
	wg.Wait()

	docs := make([]domain.CrawledDocument, 0, len(ids))
	errs := make([]domain.CrawlError, 0)
	for _, o := range outcomes {
		if o.crawlEr != nil {
			c.logger.Error("failed to crawl page", "url", o.crawlEr.URL, "message", o.crawlEr.Message)
			errs = append(errs, *o.crawlEr)
			continue
		}
		docs = append(docs, o.doc)
	}
	return docs, errs
}

func (c *Crawler) crawlWithRetry(ctx context.Context, id string, retry RetryConfig) (domain.CrawledDocument, *domain.CrawlError) {
	url := fmt.Sprintf(c.urlTemplate, id)
	var attempts []string
	for attempt := 0; ; attempt++ {
		doc, err := c.crawlOnce(ctx, id, url)
		if err == nil {
			return doc, nil
		}
		attempts = append(attempts, fmt.Sprintf("attempt %d: %v", attempt+1, err))
		if attempt >= retry.MaxRetry {
			return domain.CrawledDocument{}, &domain.CrawlError{
				URL:     url,
				Message: err.Error(),
				Stack:   strings.Join(attempts, "\n"),
			}
		}
		if retry.Interval > 0 {
			select {
			case <-time.After(retry.Interval):
			case <-ctx.Done():
				attempts = append(attempts, fmt.Sprintf("attempt %d: %v", attempt+2, ctx.Err()))
				return domain.CrawledDocument{}, &domain.CrawlError{
					URL:     url,
					Message: ctx.Err().Error(),
					Stack:   strings.Join(attempts, "\n"),
				}
			}
		}
	}
}

func (c *Crawler) crawlOnce(ctx context.Context, id, url string) (domain.CrawledDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.CrawledDocument{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.CrawledDocument{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.CrawledDocument{}, fmt.Errorf("fetching %s: http status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.CrawledDocument{}, fmt.Errorf("reading response from %s: %w", url, err)
	}
	return c.parser.Parse(id, url, body)
}
