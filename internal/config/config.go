package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	IsProd       = false
	LogLevelProd = slog.LevelInfo
	TraceIDKey   = "traceId"

	RateLimitPerSecond      = 2
	BurstRateLimitPerSecond = 5

	// Server timeouts.
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	// Outbound HTTP pooling, shared by the crawler and the OCR image fetcher.
	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	// Crawl fetch. Each page fetch is one blocking round trip with its own timeout.
	CrawlFetchTimeout = 15 * time.Second

	// The document store rejects "id in (...)" queries above this many values,
	// so existence checks are batched client-side.
	DuplicateQueryBatchSize = 30

	// Vision providers reject images above 4MB; larger images are skipped, not sent.
	OCRImageByteLimit = 4 << 20

	EmbeddingDimension int32 = 1536

	// Fragments are embedded and upserted in batches of this size.
	IndexBatchSize = 100

	// Retrieval thresholds for the reply path.
	ReplyMaxDistance      = 0.5
	ReplyMinContentLength = 20
	ReplyNumResults       = 5

	// Distance cutoff for reusing a cached answer. Only a near-identical
	// question counts as a semantic match.
	ReplyCacheMaxDistance = 0.05
)

// ReplyWindowSizes are the candidate history window sizes; the reply path
// loads max(ReplyWindowSizes) recent messages.
var ReplyWindowSizes = []int{1, 8, 16}

type Config struct {
	ListenAddr string

	RedisAddr     string
	RedisPassword string

	QdrantHost   string
	QdrantPort   int
	QdrantUseTLS bool

	GoogleAPIKey   string
	EmbeddingModel string
	OCRModel       string

	OpenAIAPIKey string
	OpenAIModel  string

	// PageURLTemplate is the crawl source URL with one %s verb for the page id.
	PageURLTemplate string
	// FileURLTemplate builds a download URL from an attachment file id.
	FileURLTemplate string
	// ContentImagePrefix filters extracted image URLs down to content images.
	ContentImagePrefix string
}

func Load() (Config, error) {
	cfg := Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":3000"),
		RedisAddr:          getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		QdrantHost:         getEnv("QDRANT_HOST", "127.0.0.1"),
		QdrantUseTLS:       getEnv("QDRANT_USE_TLS", "") == "true",
		GoogleAPIKey:       getEnv("GOOGLE_API_KEY", ""),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
		OCRModel:           getEnv("OCR_MODEL", "gemini-2.5-flash-lite-preview-09-2025"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		PageURLTemplate:    getEnv("PAGE_URL_TEMPLATE", "https://startup.hanyang.ac.kr/api/board/content/%s"),
		FileURLTemplate:    getEnv("FILE_URL_TEMPLATE", "https://startup.hanyang.ac.kr/api/resource/download/%s"),
		ContentImagePrefix: getEnv("CONTENT_IMAGE_PREFIX", "https://startup.hanyang.ac.kr:443/api/resource/BOARD_CONTENT_IMG"),
	}

	port := getEnv("QDRANT_PORT", "6334")
	p, err := strconv.Atoi(port)
	if err != nil {
		return Config{}, fmt.Errorf("invalid QDRANT_PORT %q: %w", port, err)
	}
	cfg.QdrantPort = p

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
