package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/jwyoon/noticebot/internal/config"
	"github.com/jwyoon/noticebot/internal/handlers"
	"github.com/jwyoon/noticebot/internal/middleware"
	"github.com/jwyoon/noticebot/pkg/logging"
)

type Server struct {
	httpServer *http.Server
	logger     *logging.Logger
}

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
}

func New(listenAddr string, h *handlers.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         listenAddr,
			Handler:      NewRouter(h),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: logging.NewLogger("Server"),
	}
}

// NewRouter wires the middleware chain and every route onto a chi mux.
func NewRouter(h *handlers.Handler) *chi.Mux {
	limiter := middleware.NewIPRateLimiter(rate.Limit(config.RateLimitPerSecond), config.BurstRateLimitPerSecond)

	r := chi.NewRouter()
	r.Use(middleware.Trace)
	r.Use(middleware.Metrics)
	r.Use(middleware.RateLimit(limiter))

	//register prometheus
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/ping", h.Ping)

	r.Post("/crawl", h.Crawl)
	r.Post("/textify", h.Textify)
	r.Post("/index", h.Index)

	r.Post("/collections/{collectionID}", h.CreateCollection)
	r.Get("/collections/{collectionID}", h.GetCollection)
	r.Delete("/collections/{collectionID}", h.DeleteCollection)
	r.Post("/collections/{collectionID}/query", h.Query)

	r.Post("/websites", h.CreateWebsite)
	r.Get("/websites", h.ListWebsites)
	r.Get("/websites/{websiteID}", h.GetWebsite)
	r.Delete("/websites/{websiteID}", h.DeleteWebsite)

	r.Post("/websites/{websiteID}/sessions", h.CreateSession)
	r.Get("/websites/{websiteID}/sessions/{sessionID}", h.GetSession)
	r.Delete("/websites/{websiteID}/sessions/{sessionID}", h.DeleteSession)

	r.Post("/websites/{websiteID}/sessions/{sessionID}/messages", h.CreateMessage)
	r.Get("/websites/{websiteID}/sessions/{sessionID}/messages", h.ListMessages)
	r.Get("/websites/{websiteID}/sessions/{sessionID}/messages/{messageID}", h.GetMessage)
	r.Delete("/websites/{websiteID}/sessions/{sessionID}/messages/{messageID}", h.DeleteMessage)

	r.Get("/websites/{websiteID}/sessions/{sessionID}/reply", h.Reply)

	return r
}

func (s *Server) Run() {
	s.logger.Info("Server is listening at", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Server crashed", "error", err.Error(), "addr", s.httpServer.Addr)
	}
}

func (s *Server) ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	s.logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		s.httpServer.SetKeepAlivesEnabled(false)

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("Could not shutdown gracefully", "error", err)
		}
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Graceful shutdown complete")
	case <-ctx.Done():
		s.logger.Info("Force Shut down")
		os.Exit(1)
	}
}
