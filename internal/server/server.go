package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/schoolcms/schoolcms/internal/handler"
	"github.com/schoolcms/schoolcms/internal/openapi"
	"github.com/schoolcms/schoolcms/internal/server/middleware"
	"github.com/schoolcms/schoolcms/internal/service"
	"github.com/schoolcms/schoolcms/internal/store"
	"github.com/schoolcms/schoolcms/internal/upload"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MaxBodySize     int64 // bytes, JSON endpoints only
	// StaticDir, when non-empty, is served at / for the public frontend.
	StaticDir string
	// LoginRateLimit is the number of login attempts per IP per minute.
	LoginRateLimit int
	MaxImageSize   int64
	MaxFileSize    int64
	EnableMetrics  bool
	Version        string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            3000,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		MaxBodySize:     10 << 20,
		LoginRateLimit:  10,
		MaxImageSize:    5 << 20,
		MaxFileSize:     20 << 20,
		EnableMetrics:   true,
		Version:         "dev",
	}
}

// Server is the top-level HTTP server. It owns the chi router and the
// services the handlers depend on.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	uploads    *upload.Storage
	tokens     *service.TokenService
	sessions   *service.SessionService
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, st *store.Store, uploads *upload.Storage, tokens *service.TokenService, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		uploads:  uploads,
		tokens:   tokens,
		sessions: service.NewSessionService(st, tokens, logger),
		logger:   logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5, "application/json", "text/html", "text/css", "application/javascript"))

	if s.cfg.EnableMetrics {
		metrics := middleware.NewMetrics()
		r.Use(metrics.Middleware)
		r.Handle("/metrics", metrics.Handler())
	}

	// --- Health checks and API description (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/openapi.json", s.handleOpenAPI)

	auth := handler.NewAuthHandler(s.sessions, s.logger)
	activities := handler.NewActivityHandler(s.store, s.logger)
	content := handler.NewContentHandler(s.store, s.uploads, handler.UploadLimits{
		MaxImageSize: s.cfg.MaxImageSize,
		MaxFileSize:  s.cfg.MaxFileSize,
	}, s.logger)
	requireAdmin := middleware.Authenticate(s.tokens)

	r.Route("/api", func(r chi.Router) {
		// JSON endpoints share the request body limit. Multipart uploads
		// below enforce their own per-policy limits.
		r.Group(func(r chi.Router) {
			r.Use(chimw.RequestSize(s.cfg.MaxBodySize))

			r.With(middleware.RateLimit(s.cfg.LoginRateLimit)).Post("/auth/login", auth.Login)

			// Public content
			r.Get("/news", content.ListNews)
			r.Get("/news/{id}", content.GetNews)
			r.Get("/slides", content.ListSlides)
			r.Get("/slides/{id}", content.GetSlide)
			r.Get("/teachers", content.ListTeachers)
			r.Get("/teachers/{id}", content.GetTeacher)
			r.Get("/downloads", content.ListDownloads)
			r.Get("/downloads/{id}", content.GetDownload)
			r.Get("/downloads/{id}/file", content.DownloadFile)
			r.Get("/settings", content.GetSettings)
			r.Get("/users/count", content.CountUsers)

			// Admin endpoints
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Get("/auth/me", auth.Me)
				r.Put("/auth/password", auth.ChangePassword)

				r.Get("/activities", activities.List)
				r.Post("/activities", activities.Create)
				r.Delete("/activities/clear", activities.Clear)

				r.Post("/news", content.CreateNews)
				r.Put("/news/{id}", content.UpdateNews)
				r.Delete("/news/{id}", content.DeleteNews)

				r.Post("/slides", content.CreateSlide)
				r.Put("/slides/{id}", content.UpdateSlide)
				r.Delete("/slides/{id}", content.DeleteSlide)

				r.Post("/teachers", content.CreateTeacher)
				r.Put("/teachers/{id}", content.UpdateTeacher)
				r.Delete("/teachers/{id}", content.DeleteTeacher)

				r.Delete("/downloads/{id}", content.DeleteDownload)

				r.Put("/settings", content.UpdateSettings)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/upload", content.Upload)
			r.Post("/downloads", content.CreateDownload)
		})
	})

	// --- Uploaded files and the public frontend ---
	r.Handle(upload.URLPrefix+"*", http.StripPrefix(upload.URLPrefix, noListing(http.FileServer(http.Dir(s.uploads.Dir())))))
	if s.cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}

	s.router = r
}

// noListing hides directory indexes of the upload directory.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the database answers a
// ping, or 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, httpStatus := "ok", http.StatusOK
	checks := map[string]string{"database": "ok"}
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		checks["database"] = "unreachable"
		status, httpStatus = "degraded", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// handleOpenAPI serves the OpenAPI 3 description of the REST API.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc := openapi.Generate(s.cfg.Version, "")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests within the configured timeout.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
