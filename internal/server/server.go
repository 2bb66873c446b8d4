package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/basel-ax/genrelay/internal/config"
	"github.com/basel-ax/genrelay/internal/domain"
	"github.com/basel-ax/genrelay/internal/metrics"
	"github.com/basel-ax/genrelay/internal/service"
	"github.com/basel-ax/genrelay/internal/upload"
)

const shutdownTimeout = 30 * time.Second

// multipartOverhead is the allowance for form fields and boundaries on top of the file itself.
const multipartOverhead = 1 << 20

// maxJSONBodyBytes caps the /generate request body.
const maxJSONBodyBytes = 1 << 20

// Generator is the generation surface the handlers need
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (*domain.GenerationResult, error)
	GenerateFromImage(ctx context.Context, prompt string, image []byte) (*domain.GenerationResult, error)
	GenerateFromDocument(ctx context.Context, document []byte, mimeType string) (*domain.GenerationResult, error)
	GenerateFromAudio(ctx context.Context, audio []byte, mimeType string) (*domain.GenerationResult, error)
}

// Server wires the relay handlers to their shared, read-only dependencies
type Server struct {
	cfg     *config.Config
	gen     Generator
	uploads *upload.Store
	metrics *metrics.Metrics
}

// New creates a server; a nil m gets a fresh metrics registry
func New(cfg *config.Config, gen Generator, uploads *upload.Store, m *metrics.Metrics) *Server {
	if m == nil {
		m = metrics.New()
	}
	return &Server{cfg: cfg, gen: gen, uploads: uploads, metrics: m}
}

// Router builds the gin engine with all routes
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestIDMiddleware())
	r.Use(requestLogger())
	r.Use(metricsMiddleware(s.metrics))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	r.POST(service.EndpointText, bodyLimit(maxJSONBodyBytes), s.handleGenerate)

	uploads := r.Group("/")
	uploads.Use(bodyLimit(s.cfg.MaxUploadBytes + multipartOverhead))
	uploads.POST(service.EndpointImage, s.handleGenerateImage)
	uploads.POST(service.EndpointDocument, s.handleGenerateFromDocument)
	uploads.POST(service.EndpointAudio, s.handleGenerateFromAudio)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server is running on port %d", s.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
