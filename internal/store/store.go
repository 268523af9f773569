// Package store provides the document persistence layer. Documents live in
// named collections addressed by a Path, and every value crossing the
// boundary is raw JSON so the callers own their own schemas.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwyoon/noticebot/internal/domain"
)

// MaxInQuery is the largest number of ids a single ExistsIn call accepts.
const MaxInQuery = 30

// Path addresses a collection of documents, e.g.
// Path{"websites", websiteID, "documents"}.
type Path []string

func (p Path) Key() string {
	return strings.Join(p, ":")
}

// Child returns the path extended with the given segments.
func (p Path) Child(segments ...string) Path {
	child := make(Path, 0, len(p)+len(segments))
	child = append(child, p...)
	child = append(child, segments...)
	return child
}

// DocumentStore is the persistence contract shared by the crawler, the
// splitter and the chat layer. Implementations must treat ids inside one
// collection as unique and Set as an upsert.
type DocumentStore interface {
	Get(ctx context.Context, parent Path, id string) ([]byte, error)
	Set(ctx context.Context, parent Path, id string, doc []byte) error
	SetBatch(ctx context.Context, parent Path, docs map[string][]byte) error
	Delete(ctx context.Context, parent Path, id string) error
	List(ctx context.Context, parent Path) (map[string][]byte, error)
	ListIDs(ctx context.Context, parent Path) ([]string, error)
	// ExistsIn reports, per id, whether a document with that id exists in
	// the collection. Callers batch larger id sets themselves.
	ExistsIn(ctx context.Context, parent Path, ids []string) ([]bool, error)
}

func checkInQuerySize(ids []string) error {
	if len(ids) > MaxInQuery {
		return fmt.Errorf("%w: at most %d ids per existence query, got %d", domain.ErrInvalidArgument, MaxInQuery, len(ids))
	}
	return nil
}
