package crawler

import (
	"errors"
	"testing"

	"github.com/jwyoon/noticebot/internal/domain"
)

const (
	testFileURLTemplate = "https://example.ac.kr/api/resource/download/%s"
	testImagePrefix     = "https://example.ac.kr:443/api/resource/BOARD_CONTENT_IMG"
)

func testParser() *Parser {
	return NewParser(testFileURLTemplate, testImagePrefix)
}

func TestParseExtractsDocument(t *testing.T) {
	body := []byte(`{
		"response": "ok",
		"message": "",
		"code": "00",
		"data": {
			"content": {
				"title": "2024 Startup Contest",
				"content": "<p>Apply by friday.&amp;nbsp;Teams of 2&amp;amp;3 welcome.</p><img src=\"` + testImagePrefix + `/poster.png\"><img src=\"https://cdn.example.com/banner.gif\">",
				"regDate": "2024-03-02",
				"viewCnt": 812
			},
			"files": [{"fileId": "f-1"}, {"fileId": "f-2"}]
		}
	}`)

	doc, err := testParser().Parse("812", "https://example.ac.kr/api/board/content/812", body)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.ID != "812" || doc.Title != "2024 Startup Contest" {
		t.Errorf("unexpected identity fields: %+v", doc)
	}
	if doc.Content != "Apply by friday. Teams of 2&3 welcome." {
		t.Errorf("entities not normalized, got %q", doc.Content)
	}
	if len(doc.ImageURLs) != 1 || doc.ImageURLs[0] != testImagePrefix+"/poster.png" {
		t.Errorf("image prefix filter failed, got %v", doc.ImageURLs)
	}
	if len(doc.FileURLs) != 2 || doc.FileURLs[0] != "https://example.ac.kr/api/resource/download/f-1" {
		t.Errorf("file urls wrong, got %v", doc.FileURLs)
	}
	if doc.ViewCount != 812 || doc.PostedAt != "2024-03-02" {
		t.Errorf("metadata wrong: viewCnt=%d postedAt=%s", doc.ViewCount, doc.PostedAt)
	}
}

func TestParseRejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `<html>Service Unavailable</html>`},
		{"missing envelope fields", `{"data": {}}`},
		{"missing content", `{"response":"ok","message":"","code":"00","data":{"files":[]}}`},
		{"missing title", `{"response":"ok","message":"","code":"00","data":{"content":{"content":"x","regDate":"2024-01-01"},"files":[]}}`},
		{"file without id", `{"response":"ok","message":"","code":"00","data":{"content":{"title":"t","content":"x","regDate":"2024-01-01"},"files":[{}]}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := testParser().Parse("1", "https://example.ac.kr/api/board/content/1", []byte(tc.body))
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("want ErrInvalidArgument, got %v", err)
			}
		})
	}
}
