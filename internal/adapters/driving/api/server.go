// Package api exposes EmbedIQ over a JSON HTTP API built on gin.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
	"github.com/custodia-labs/embediq/internal/logger"
)

// ErrMissingService is returned by NewServer when a required service is nil.
var ErrMissingService = errors.New("api: ingest, document and chat services are required")

// Services are the driving ports the API delegates to.
type Services struct {
	Ingest   driving.IngestService
	Document driving.DocumentService
	Chat     driving.ChatService
}

// Server routes HTTP requests to the EmbedIQ services.
type Server struct {
	services Services
	limits   domain.UploadSettings
	version  string
	router   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithUploadLimits sets the per-request file count and per-file size limits.
func WithUploadLimits(limits domain.UploadSettings) Option {
	return func(s *Server) {
		s.limits = limits
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer builds the router.
func NewServer(services Services, opts ...Option) (*Server, error) {
	if services.Ingest == nil || services.Document == nil || services.Chat == nil {
		return nil, ErrMissingService
	}

	s := &Server{
		services: services,
		limits:   domain.DefaultAppSettings().Upload,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery(), requestLogger(), cors())
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "EmbedIQ API is running!")
	})
	s.router.GET("/health", s.health)

	files := s.router.Group("/api/files")
	{
		files.POST("/upload", s.uploadFiles)
		files.GET("", s.listFiles)
		files.DELETE("/:fileId", s.deleteFile)
	}

	chat := s.router.Group("/api/chat")
	{
		chat.POST("/message", s.sendMessage)
		chat.GET("/history", s.chatHistory)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("HTTP API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "EmbedIQ API",
		"version": s.version,
	})
}

// requestLogger logs each request at debug level.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
