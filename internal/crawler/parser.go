package crawler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jwyoon/noticebot/internal/domain"
)

// pageEnvelope is the JSON shape the board API wraps every page in. Fields
// are pointers so a missing key can be told apart from a zero value; the
// payload is untrusted and validated before anything is read out of it.
type pageEnvelope struct {
	Response *string      `json:"response"`
	Message  *string      `json:"message"`
	Code     *string      `json:"code"`
	Data     *pagePayload `json:"data"`
}

type pagePayload struct {
	Content *pageContent `json:"content"`
	Files   []pageFile   `json:"files"`
}

type pageContent struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	RegDate   *string `json:"regDate"`
	ViewCount *int    `json:"viewCnt"`
}

type pageFile struct {
	FileID *string `json:"fileId"`
}

func (e *pageEnvelope) validate() error {
	if e.Response == nil || e.Message == nil || e.Code == nil || e.Data == nil {
		return fmt.Errorf("%w: response envelope missing required fields", domain.ErrInvalidArgument)
	}
	c := e.Data.Content
	if c == nil || c.Title == nil || c.Content == nil || c.RegDate == nil {
		return fmt.Errorf("%w: page content missing required fields", domain.ErrInvalidArgument)
	}
	for i, f := range e.Data.Files {
		if f.FileID == nil {
			return fmt.Errorf("%w: file %d missing fileId", domain.ErrInvalidArgument, i)
		}
	}
	return nil
}

// Parser turns a raw board API response into a CrawledDocument.
type Parser struct {
	fileURLTemplate    string
	contentImagePrefix string
}

func NewParser(fileURLTemplate, contentImagePrefix string) *Parser {
	return &Parser{
		fileURLTemplate:    fileURLTemplate,
		contentImagePrefix: contentImagePrefix,
	}
}

func (p *Parser) Parse(id, url string, body []byte) (domain.CrawledDocument, error) {
	var envelope pageEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return domain.CrawledDocument{}, fmt.Errorf("%w: response from %s is not valid JSON: %v", domain.ErrInvalidArgument, url, err)
	}
	if err := envelope.validate(); err != nil {
		return domain.CrawledDocument{}, err
	}

	content := envelope.Data.Content
	root, err := goquery.NewDocumentFromReader(strings.NewReader(*content.Content))
	if err != nil {
		return domain.CrawledDocument{}, fmt.Errorf("%w: parsing page html from %s: %v", domain.ErrInvalidArgument, url, err)
	}

	doc := domain.CrawledDocument{
		ID:        id,
		URL:       url,
		Title:     *content.Title,
		Content:   extractText(root),
		ImageURLs: p.extractImageURLs(root),
		FileURLs:  make([]string, 0, len(envelope.Data.Files)),
		PostedAt:  *content.RegDate,
	}
	if content.ViewCount != nil {
		doc.ViewCount = *content.ViewCount
	}
	for _, f := range envelope.Data.Files {
		doc.FileURLs = append(doc.FileURLs, fmt.Sprintf(p.fileURLTemplate, *f.FileID))
	}
	return doc, nil
}

// extractText flattens the page body to plain text. The html parser already
// decodes entities, so encoded ampersands and no-break spaces survive only
// when the source double-escaped them; both forms are normalized here.
func extractText(root *goquery.Document) string {
	text := root.Text()
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, " ", " ")
	return text
}

// extractImageURLs keeps only content images. Decorative banners and
// tracking pixels live under other prefixes and are dropped.
func (p *Parser) extractImageURLs(root *goquery.Document) []string {
	urls := make([]string, 0)
	root.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if ok && strings.HasPrefix(src, p.contentImagePrefix) {
			urls = append(urls, src)
		}
	})
	return urls
}
