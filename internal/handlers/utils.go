package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jwyoon/noticebot/internal/api"
	"github.com/jwyoon/noticebot/internal/config"
	"github.com/jwyoon/noticebot/internal/domain"
)

func (h *Handler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		h.logger.Error("Error encoding response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFromError(err)
	trace, _ := r.Context().Value(config.TraceIDKey).(string)
	if code == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "traceId", trace, "error", err)
	} else {
		h.logger.Warn("request rejected", "path", r.URL.Path, "traceId", trace, "error", err)
	}
	h.writeJSONResponse(w, code, api.ErrorResponse{Code: code, Message: err.Error(), TraceID: trace})
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrNoQueryContent):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoHistory), errors.Is(err, domain.ErrNoUserMessage):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateFound):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSONBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrInvalidArgument
	}
	return nil
}
