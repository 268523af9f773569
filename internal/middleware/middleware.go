// Package middleware carries the request plumbing shared by every route:
// trace injection, per-IP rate limiting and request metrics.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jwyoon/noticebot/internal/config"
	"github.com/jwyoon/noticebot/internal/metrics"
	"github.com/jwyoon/noticebot/pkg/logging"
)

// Trace tags every request with a trace id, reusing the X-Trace-Id header
// when the caller supplied one.
func Trace(next http.Handler) http.Handler {
	logger := logging.NewLogger("middleware")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace := r.Header.Get("X-Trace-Id")
		if trace == "" {
			trace = uuid.NewString()
		}
		logger.Debug("trace injected", "traceId", trace, "path", r.URL.Path)
		ctx := context.WithValue(r.Context(), config.TraceIDKey, trace)
		w.Header().Set("X-Trace-Id", trace)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Metrics records the request counter labelled with the final status code
// and observes the handler duration.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HTTPStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
		metrics.ObserveRequest(r.URL.Path, time.Since(start))
	})
}

// RateLimit rejects callers that exhaust the per-IP token bucket.
func RateLimit(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	logger := logging.NewLogger("middleware")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !limiter.GetLimiter(ip).Allow() {
				logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
