package http

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/gitzip/pkg/domain/interfaces"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
	"github.com/m-mizutani/gitzip/pkg/utils/async"
)

// config holds internal HTTP server configuration
type config struct {
	addr       string
	creds      *model.Credentials
	mirror     interfaces.ArtifactStore
	dispatcher *async.Dispatcher
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithCredentials sets the credentials used when a request carries none
func WithCredentials(creds *model.Credentials) Option {
	return func(c *config) {
		c.creds = creds
	}
}

// WithMirror saves a copy of every served artifact to store in the background
func WithMirror(store interfaces.ArtifactStore) Option {
	return func(c *config) {
		c.mirror = store
	}
}

// WithDispatcher sets the dispatcher tracking background mirroring
func WithDispatcher(d *async.Dispatcher) Option {
	return func(c *config) {
		c.dispatcher = d
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	downloadUC interfaces.DownloadUseCase,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr: "localhost:8080",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.dispatcher == nil {
		cfg.dispatcher = async.NewDispatcher()
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)
	if sentry.CurrentHub().Client() != nil {
		router.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}

	// Health check
	router.Get("/health", handleHealth)

	// Download endpoint
	downloadHandler := NewDownloadHandler(downloadUC, cfg.creds, cfg.mirror, cfg.dispatcher)
	router.Post("/api/download", downloadHandler.Handle)

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
