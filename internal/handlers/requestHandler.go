// Package handlers exposes the pipeline over HTTP: crawl, textify, index,
// collection queries, and the website/session/message/reply chat surface.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jwyoon/noticebot/internal/api"
	"github.com/jwyoon/noticebot/internal/chat"
	"github.com/jwyoon/noticebot/internal/config"
	"github.com/jwyoon/noticebot/internal/crawler"
	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/internal/indexer"
	"github.com/jwyoon/noticebot/internal/metrics"
	"github.com/jwyoon/noticebot/internal/textify"
	"github.com/jwyoon/noticebot/internal/vector"
	"github.com/jwyoon/noticebot/pkg/logging"
)

type Handler struct {
	crawler   crawler.Service
	textifier textify.Service
	indexer   indexer.Service
	engine    chat.QueryEngine
	index     vector.Index
	messages  *chat.MessageStore
	resources *chat.ResourceStore
	assembler *chat.Assembler
	logger    *logging.Logger
}

func New(
	crawlSvc crawler.Service,
	textifySvc textify.Service,
	indexSvc indexer.Service,
	engine chat.QueryEngine,
	index vector.Index,
	messages *chat.MessageStore,
	resources *chat.ResourceStore,
	assembler *chat.Assembler,
) *Handler {
	return &Handler{
		crawler:   crawlSvc,
		textifier: textifySvc,
		indexer:   indexSvc,
		engine:    engine,
		index:     index,
		messages:  messages,
		resources: resources,
		assembler: assembler,
		logger:    logging.NewLogger("handlers"),
	}
}

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, api.PingResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

// Crawl godoc
// @Summary      Crawl a range of board posts
// @Description  Fetches posts minId..maxId from the board API, applies the duplicate strategy, and stores the parsed documents.
// @Tags         Pipeline
// @Accept       json
// @Produce      json
// @Param        request  body      crawler.CrawlRequest  true  "Crawl range, retry config and duplicate strategy"
// @Success      200      {object}  crawler.CrawlResult
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse  "Duplicates found under the abort strategy"
// @Router       /crawl [post]
func (h *Handler) Crawl(w http.ResponseWriter, r *http.Request) {
	var req crawler.CrawlRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.crawler.Run(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	metrics.CountCrawl(len(result.CrawledIDs), len(result.Errors))
	h.writeJSONResponse(w, http.StatusOK, result)
}

// Textify godoc
// @Summary      Split stored documents into fragments
// @Tags         Pipeline
// @Accept       json
// @Produce      json
// @Param        request  body      textify.TextifyRequest  true  "Documents and window lengths"
// @Success      200      {object}  textify.TextifyResult
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /textify [post]
func (h *Handler) Textify(w http.ResponseWriter, r *http.Request) {
	var req textify.TextifyRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.textifier.Run(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, result)
}

// Index godoc
// @Summary      Embed fragments and push them to the vector index
// @Tags         Pipeline
// @Accept       json
// @Produce      json
// @Param        request  body      indexer.IndexRequest  true  "Website and optional document filter"
// @Success      200      {object}  indexer.IndexResult
// @Failure      400      {object}  api.ErrorResponse
// @Router       /index [post]
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	var req indexer.IndexRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.indexer.Run(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	metrics.CountIndexedFragments(result.IndexedFragments)
	h.writeJSONResponse(w, http.StatusOK, result)
}

func (h *Handler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collectionID")
	if err := h.index.CreateCollection(r.Context(), name); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, api.CollectionResponse{Name: name, Exists: true})
}

func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collectionID")
	exists, err := h.index.CollectionExists(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !exists {
		h.writeError(w, r, domain.ErrNotFound)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, api.CollectionResponse{Name: name, Exists: true})
}

func (h *Handler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collectionID")
	if err := h.index.DeleteCollection(r.Context(), name); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Query godoc
// @Summary      Search a collection
// @Description  Embeds each query text and returns the filtered, deduplicated neighbors per text. Zeroed options fall back to the reply-path defaults.
// @Tags         Retrieval
// @Accept       json
// @Produce      json
// @Param        collectionID  path      string            true  "Collection name"
// @Param        request       body      api.QueryRequest  true  "Query texts and filter options"
// @Success      200           {object}  api.QueryResponse
// @Failure      400           {object}  api.ErrorResponse
// @Router       /collections/{collectionID}/query [post]
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collectionID")
	var req api.QueryRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(req.QueryTexts) == 0 {
		h.writeError(w, r, domain.ErrInvalidArgument)
		return
	}
	opts := vector.QueryOptions{
		NumResults:       req.NumResults,
		MaxDistance:      config.ReplyMaxDistance,
		MinContentLength: req.MinContentLength,
	}
	if req.MaxDistance != nil {
		opts.MaxDistance = *req.MaxDistance
	}
	if opts.NumResults <= 0 {
		opts.NumResults = config.ReplyNumResults
	}
	neighborLists, err := h.engine.Query(r.Context(), name, req.QueryTexts, opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	results := make([]vector.QueryResult, len(neighborLists))
	for i, neighbors := range neighborLists {
		results[i] = vector.ToQueryResult(neighbors)
	}
	h.writeJSONResponse(w, http.StatusOK, api.QueryResponse{Results: results})
}

func (h *Handler) CreateWebsite(w http.ResponseWriter, r *http.Request) {
	var req api.CreateWebsiteRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	website, err := h.resources.AddWebsite(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, website)
}

func (h *Handler) ListWebsites(w http.ResponseWriter, r *http.Request) {
	websites, err := h.resources.ListWebsites(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, websites)
}

func (h *Handler) GetWebsite(w http.ResponseWriter, r *http.Request) {
	website, err := h.resources.GetWebsite(r.Context(), chi.URLParam(r, "websiteID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, website)
}

func (h *Handler) DeleteWebsite(w http.ResponseWriter, r *http.Request) {
	if err := h.resources.DeleteWebsite(r.Context(), chi.URLParam(r, "websiteID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.resources.AddSession(r.Context(), chi.URLParam(r, "websiteID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, session)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.resources.GetSession(r.Context(), chi.URLParam(r, "websiteID"), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, session)
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.resources.DeleteSession(r.Context(), chi.URLParam(r, "websiteID"), chi.URLParam(r, "sessionID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var msg domain.Message
	if err := decodeJSONBody(r, &msg); err != nil {
		h.writeError(w, r, err)
		return
	}
	stored, err := h.messages.Add(r.Context(), chi.URLParam(r, "websiteID"), chi.URLParam(r, "sessionID"), msg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, stored)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messages.List(r.Context(), chi.URLParam(r, "websiteID"), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, msgs)
}

func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.messages.Get(r.Context(), chi.URLParam(r, "websiteID"), chi.URLParam(r, "sessionID"), chi.URLParam(r, "messageID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, msg)
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.messages.Delete(r.Context(), chi.URLParam(r, "websiteID"), chi.URLParam(r, "sessionID"), chi.URLParam(r, "messageID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reply godoc
// @Summary      Generate the assistant reply for the session's latest user turn
// @Description  Loads recent history, retrieves grounding documents, asks the chat model, and persists the reply plus an evidence carousel. A carousel write failure after the reply was stored returns the reply with the error attached.
// @Tags         Messaging
// @Produce      json
// @Param        websiteID  path      string  true  "Website ID"
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  api.ReplyResponse
// @Failure      404        {object}  api.ErrorResponse  "No usable history or no user turn"
// @Router       /websites/{websiteID}/sessions/{sessionID}/reply [get]
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.assembler.Reply(r.Context(), chi.URLParam(r, "websiteID"), chi.URLParam(r, "sessionID"))
	if err != nil && len(msgs) == 0 {
		metrics.CountReply("error")
		h.writeError(w, r, err)
		return
	}
	resp := api.ReplyResponse{Messages: msgs}
	if err != nil {
		metrics.CountReply("partial")
		resp.Error = err.Error()
	} else {
		metrics.CountReply("ok")
	}
	h.writeJSONResponse(w, http.StatusOK, resp)
}
