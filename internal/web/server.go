// Package web provides the HTTP server, upload pages and JSON API.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justestif/go-mood-tunes/internal/emotion"
	"github.com/justestif/go-mood-tunes/internal/logging"
	"github.com/justestif/go-mood-tunes/internal/recommend"
)

const (
	// DefaultAddr is the default server address.
	DefaultAddr = "127.0.0.1:8080"

	// DefaultMaxUploadBytes caps image uploads.
	DefaultMaxUploadBytes = 10 << 20
)

// Recommender runs the recommendation pipeline for a label.
type Recommender interface {
	Recommend(ctx context.Context, label emotion.Label) recommend.Result
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	TemplatesFS fs.FS
	StaticFS    fs.FS

	Classifier  emotion.Classifier
	Recommender Recommender

	MaxUploadBytes  int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// RateLimit is the number of POST requests allowed per client IP in
	// RateWindow. Zero disables rate limiting.
	RateLimit   int
	RateWindow  time.Duration
	CORSOrigins []string

	KakaoAppKey string
}

// Server is the HTTP server for the web application.
type Server struct {
	router          chi.Router
	server          *http.Server
	handlers        *Handlers
	shutdownTimeout time.Duration
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Classifier == nil || cfg.Recommender == nil {
		return nil, errors.New("classifier and recommender are required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	handlers := NewHandlers(cfg.Classifier, cfg.Recommender, templates, HandlerOptions{
		MaxUploadBytes: cfg.MaxUploadBytes,
		KakaoAppKey:    cfg.KakaoAppKey,
	})

	router := chi.NewRouter()

	s := &Server{
		router:          router,
		handlers:        handlers,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  durationOr(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout: durationOr(cfg.WriteTimeout, 60*time.Second),
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes(cfg ServerConfig) {
	fileServer := http.FileServer(http.FS(cfg.StaticFS))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	s.router.Get("/healthz", s.handlers.Healthz)
	s.router.Handle("/metrics", promhttp.Handler())

	// Pages
	s.router.Get("/", s.handlers.Home)
	s.router.With(rateLimit(cfg.RateLimit, cfg.RateWindow)).Post("/recommend", s.handlers.Recommend)

	// JSON API
	s.router.Route("/api", func(r chi.Router) {
		r.Use(corsHandler(cfg.CORSOrigins))
		r.Use(rateLimit(cfg.RateLimit, cfg.RateWindow))
		r.Post("/recommendations", s.handlers.APIRecommendations)
		r.Post("/analyze", s.handlers.APIAnalyze)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.Info().Str("addr", s.server.Addr).Msgf("starting server at http://%s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		logging.Info().Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logging.Info().Msg("server stopped")
	return nil
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
