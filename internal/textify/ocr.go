package textify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/jwyoon/noticebot/internal/config"
	"github.com/jwyoon/noticebot/pkg/logging"
)

// TextExtractor reads the text out of a single image.
type TextExtractor interface {
	ExtractText(ctx context.Context, imageURL string) (string, error)
}

const ocrPrompt = "Transcribe all text visible in this image. Return only the transcribed text, nothing else. Return an empty response if the image contains no text."

// GeminiOCR extracts text from an image by sending the raw bytes to a
// vision-capable gemini model. Images above the provider's 4MB ceiling are
// skipped rather than sent; a skip yields empty text, not an error.
type GeminiOCR struct {
	genAI  *genai.Client
	client *http.Client
	model  string
	logger *logging.Logger
}

func NewGeminiOCR(genAI *genai.Client, client *http.Client, model string) *GeminiOCR {
	return &GeminiOCR{
		genAI:  genAI,
		client: client,
		model:  model,
		logger: logging.NewLogger("GeminiOCR"),
	}
}

func (o *GeminiOCR) ExtractText(ctx context.Context, imageURL string) (string, error) {
	data, mimeType, err := o.fetchImage(ctx, imageURL)
	if err != nil {
		return "", err
	}
	if len(data) > config.OCRImageByteLimit {
		o.logger.Warn("image exceeds provider size limit, skipping ocr", "url", imageURL, "bytes", len(data))
		return "", nil
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}},
			{Text: ocrPrompt},
		},
	}}
	result, err := o.genAI.Models.GenerateContent(ctx, o.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("ocr call for %s: %w", imageURL, err)
	}
	return result.Text(), nil
}

func (o *GeminiOCR) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching image %s: %w", imageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetching image %s: http status %d", imageURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(config.OCRImageByteLimit)+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading image %s: %w", imageURL, err)
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

// ocrAllImages runs the extractor over every image concurrently. An image
// that fails OCR contributes no text; only the surviving texts are joined.
func ocrAllImages(ctx context.Context, extractor TextExtractor, imageURLs []string, logger *logging.Logger) string {
	texts := make([]string, len(imageURLs))
	var wg sync.WaitGroup
	for i, url := range imageURLs {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			text, err := extractor.ExtractText(ctx, url)
			if err != nil {
				logger.Warn("ocr failed for image, dropping it", "url", url, "error", err)
				return
			}
			texts[i] = text
		}(i, url)
	}
	wg.Wait()

	joined := make([]string, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			joined = append(joined, t)
		}
	}
	return strings.Join(joined, "\n")
}
