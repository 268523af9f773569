package domain

import "fmt"

// CrawledDocument is one raw board page as fetched from the source site.
// Identity is the source-assigned page id; a crawl either produces the whole
// document or a CrawlError, never a partial record.
type CrawledDocument struct {
	ID        string   `json:"id"`
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	ImageURLs []string `json:"imageUrls"`
	FileURLs  []string `json:"fileUrls"`
	PostedAt  string   `json:"postedAt"`
	CrawledAt string   `json:"crawledAt"`
	ViewCount int      `json:"viewCnt"`
}

// CrawlError records a page id that exhausted its retry budget. The batch
// result partitions into documents and crawl errors; errors never abort the
// batch.
type CrawlError struct {
	URL     string `json:"url"`
	Message string `json:"message"`
	// Stack holds one line per failed attempt, oldest first.
	Stack string `json:"stack"`
}

// FragmentSource tags which extraction a text fragment came from.
type FragmentSource string

const (
	SourceTitle   FragmentSource = "title"
	SourceContent FragmentSource = "content"
	SourceImage   FragmentSource = "image"
)

// TextFragment is a fixed-length slice of a document's extracted text, the
// unit indexed for retrieval. Its id is deterministic from its coordinates,
// so re-splitting the same document overwrites rather than duplicates.
type TextFragment struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"documentId"`
	Source     FragmentSource `json:"source"`
	Content    string         `json:"content"`
	StartIndex int            `json:"startIndex"`
	EndIndex   int            `json:"endIndex"`
	CreatedAt  string         `json:"createdAt"`
}

// FragmentID builds the composite fragment id from its coordinates.
func FragmentID(documentID string, source FragmentSource, start, end int) string {
	return fmt.Sprintf("%s=%s-%d-%d", documentID, source, start, end)
}
