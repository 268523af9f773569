package api

import (
	"time"

	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/internal/vector"
)

type ErrorResponse struct {
	Code    int    `json:"code" example:"404"`
	Message string `json:"message" example:"website not found"`
	TraceID string `json:"traceId,omitempty"`
}

type PingResponse struct {
	Status    string    `json:"status" example:"ok"`
	Timestamp time.Time `json:"timestamp"`
}

type CollectionResponse struct {
	Name   string `json:"name"`
	Exists bool   `json:"exists"`
}

// ReplyResponse carries the persisted reply message, plus the carousel
// message when grounding documents were retrieved. Error is set when the
// carousel write failed after the reply was already stored.
type ReplyResponse struct {
	Messages []domain.Message `json:"messages"`
	Error    string           `json:"error,omitempty"`
}

type QueryResponse struct {
	Results []vector.QueryResult `json:"results"`
}

// requests---------------------

type CreateWebsiteRequest struct {
	Name string `json:"name" validate:"required"`
}

// QueryRequest's MaxDistance is a pointer so an explicit 0 (exact matches
// only) is distinguishable from an absent field.
type QueryRequest struct {
	QueryTexts       []string `json:"queryTexts" validate:"required"`
	NumResults       int      `json:"numResults,omitempty"`
	MaxDistance      *float64 `json:"maxDistance,omitempty"`
	MinContentLength int      `json:"minContentLength,omitempty"`
}
