package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "http_request_duration_seconds",
	Help:    "Time spent serving a request.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30},
}, []string{"path"})

var crawledDocumentsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "crawled_documents_total",
	Help: "Documents successfully crawled and persisted",
})

var crawlErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "crawl_errors_total",
	Help: "Page crawls that exhausted their retry budget",
})

var indexedFragmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "indexed_fragments_total",
	Help: "Text fragments upserted into the vector index",
})

var repliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "replies_total",
	Help: "Generated replies labelled by outcome",
}, []string{"outcome"})

// HTTPStatusRecorder captures the status code a handler wrote so the
// request counter can be labelled after the fact.
type HTTPStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HTTPStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func ObserveRequest(path string, elapsed time.Duration) {
	requestDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

func CountCrawl(documents, errors int) {
	crawledDocumentsTotal.Add(float64(documents))
	crawlErrorsTotal.Add(float64(errors))
}

func CountIndexedFragments(n int) {
	indexedFragmentsTotal.Add(float64(n))
}

func CountReply(outcome string) {
	repliesTotal.WithLabelValues(outcome).Inc()
}
