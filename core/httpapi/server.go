// Package httpapi exposes conversation sessions over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/adalundhe/llcguide/core/conversation"
	"github.com/adalundhe/llcguide/core/session"
	"github.com/adalundhe/llcguide/core/transcript"
	"github.com/gin-gonic/gin"
)

// Sessions is the session surface the handlers need
type Sessions interface {
	Create() (*session.Session, error)
	Get(id string) (*session.Session, error)
	Send(ctx context.Context, id, input string, extra conversation.Info) (*conversation.Response, error)
	Close(id string) error
	Len() int
}

// TranscriptLister reads recorded turns
type TranscriptLister interface {
	List(ctx context.Context, sessionID string) ([]transcript.Turn, error)
}

// Config configures the HTTP server
type Config struct {
	Addr        string           // Listen address, e.g. ":8080"
	Sessions    Sessions         // Required
	Transcripts TranscriptLister // Optional, disables the transcript route if nil

	ShutdownTimeout time.Duration // Default: 5s

	Logger *slog.Logger // Optional, uses slog.Default() if nil
}

// Server serves the conversation API
type Server struct {
	router   *gin.Engine
	handlers *Handlers
	addr     string
	timeout  time.Duration
	logger   *slog.Logger
}

// New builds a server and registers its routes
func New(cfg Config) (*Server, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("httpapi: sessions are required")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "httpapi")

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		router: router,
		handlers: &Handlers{
			sessions:    cfg.Sessions,
			transcripts: cfg.Transcripts,
			logger:      logger,
		},
		addr:    cfg.Addr,
		timeout: cfg.ShutdownTimeout,
		logger:  logger,
	}
	SetupRoutes(router, s.handlers)
	return s, nil
}

// SetupRoutes registers the API on router
func SetupRoutes(router *gin.Engine, h *Handlers) {
	v1 := router.Group("/v1")
	{
		v1.GET("/health", h.Health)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", h.CreateSession)
			sessions.GET("/:sessionId", h.GetSession)
			sessions.DELETE("/:sessionId", h.CloseSession)
			sessions.POST("/:sessionId/messages", h.SendMessage)
			if h.transcripts != nil {
				sessions.GET("/:sessionId/transcript", h.GetTranscript)
			}
		}
	}
}

// Handler returns the underlying http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
