package textify

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwyoon/noticebot/internal/config"
)

// An oversized image is skipped, not sent: empty text and no error. The nil
// genai client makes any accidental provider call fail the test loudly.
func TestExtractTextSkipsOversizedImage(t *testing.T) {
	oversized := make([]byte, config.OCRImageByteLimit+1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(oversized)
	}))
	defer server.Close()

	ocr := NewGeminiOCR(nil, server.Client(), "gemini-test")

	text, err := ocr.ExtractText(t.Context(), server.URL+"/big.png")
	if err != nil {
		t.Fatalf("oversized image must be skipped, got error: %v", err)
	}
	if text != "" {
		t.Errorf("skipped image must yield empty text, got %q", text)
	}
}

func TestExtractTextFetchStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	ocr := NewGeminiOCR(nil, server.Client(), "gemini-test")

	if _, err := ocr.ExtractText(t.Context(), server.URL+"/gone.png"); err == nil {
		t.Fatal("a failed image fetch must surface an error")
	}
}
