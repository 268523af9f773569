package crawler

import (
	"context"
	"fmt"
	"sync"

	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/internal/store"
	"github.com/jwyoon/noticebot/pkg/logging"
)

// DuplicateStrategy governs what happens when a candidate id was already
// crawled before.
type DuplicateStrategy string

const (
	// StrategySkip crawls only the ids not present in the store.
	StrategySkip DuplicateStrategy = "skip"
	// StrategyOverwrite crawls every id regardless of what exists.
	StrategyOverwrite DuplicateStrategy = "overwrite"
	// StrategyAbort crawls nothing when any id is a duplicate.
	StrategyAbort DuplicateStrategy = "abort"
)

func (s DuplicateStrategy) Validate() error {
	switch s {
	case StrategySkip, StrategyOverwrite, StrategyAbort:
		return nil
	default:
		return fmt.Errorf("%w: unknown duplicate strategy %q", domain.ErrInvalidArgument, s)
	}
}

// DuplicateFilter answers "which of these ids should actually be crawled".
// The store caps membership queries at store.MaxInQuery ids, so the id list
// is split into batches queried concurrently and unioned.
type DuplicateFilter struct {
	docs   store.DocumentStore
	logger *logging.Logger
}

func NewDuplicateFilter(docs store.DocumentStore) *DuplicateFilter {
	return &DuplicateFilter{
		docs:   docs,
		logger: logging.NewLogger("DuplicateFilter"),
	}
}

// Filter applies the strategy over the full id list. With StrategyAbort a
// found duplicate returns ErrDuplicateFound so the caller can tell "aborted"
// apart from "nothing to crawl".
func (f *DuplicateFilter) Filter(ctx context.Context, websiteID string, ids []string, strategy DuplicateStrategy) ([]string, error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []string{}, nil
	}
	// Overwrite never needs to know what exists.
	if strategy == StrategyOverwrite {
		return ids, nil
	}

	duplicates, err := f.findDuplicates(ctx, websiteID, ids)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("checked candidate ids", "website", websiteID, "candidates", len(ids), "duplicates", len(duplicates))

	switch strategy {
	case StrategySkip:
		fresh := make([]string, 0, len(ids))
		for _, id := range ids {
			if !duplicates[id] {
				fresh = append(fresh, id)
			}
		}
		return fresh, nil
	case StrategyAbort:
		if len(duplicates) > 0 {
			return nil, fmt.Errorf("%w: %d of %d ids already crawled", domain.ErrDuplicateFound, len(duplicates), len(ids))
		}
		return ids, nil
	}
	return nil, fmt.Errorf("%w: unknown duplicate strategy %q", domain.ErrInvalidArgument, strategy)
}

func (f *DuplicateFilter) findDuplicates(ctx context.Context, websiteID string, ids []string) (map[string]bool, error) {
	parent := store.WebsiteDocuments(websiteID)

	batches := make([][]string, 0, (len(ids)+store.MaxInQuery-1)/store.MaxInQuery)
	for start := 0; start < len(ids); start += store.MaxInQuery {
		end := min(start+store.MaxInQuery, len(ids))
		batches = append(batches, ids[start:end])
	}

	results := make([][]bool, len(batches))
	errs := make([]error, len(batches))
	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []string) {
			defer wg.Done()
			results[i], errs[i] = f.docs.ExistsIn(ctx, parent, batch)
		}(i, batch)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("%w: duplicate existence query: %v", domain.ErrUpstreamFailure, err)
		}
	}

	duplicates := make(map[string]bool)
	for i, batch := range batches {
		for j, exists := range results[i] {
			if exists {
				duplicates[batch[j]] = true
			}
		}
	}
	return duplicates, nil
}
