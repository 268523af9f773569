package customHttpClient

import (
	"net/http"
	"time"

	"github.com/jwyoon/noticebot/internal/config"
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// New returns a client on the shared pooled transport. The crawler and the
// OCR image fetcher both talk to the same host, so they share the pool.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}
