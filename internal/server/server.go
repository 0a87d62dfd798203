// Package server is the composition root: it opens the store, builds the
// services and handlers, and mounts them on a chi router.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config
//	  → sqlstore.DB            (sqlite or postgres)
//	  → cache.Cache            (redis or in-process LRU)
//	  → storage.Storage        (supabase bucket or none)
//	  → auth.Resolver          (token → user, cached)
//	  → service.*Service       (business rules, return envelopes)
//	  → handler.*Handler       (HTTP in, envelope out)
//
// Nothing below this package knows which concrete store, cache or bucket it
// was given.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/tenxdev/internal/auth"
	"github.com/sakif/tenxdev/internal/cache"
	"github.com/sakif/tenxdev/internal/config"
	"github.com/sakif/tenxdev/internal/handler"
	"github.com/sakif/tenxdev/internal/middleware"
	"github.com/sakif/tenxdev/internal/repository/sqlstore"
	"github.com/sakif/tenxdev/internal/service"
	"github.com/sakif/tenxdev/internal/storage"
)

// ShutdownTimeout is how long in-flight requests get to finish after
// SIGINT or SIGTERM.
const ShutdownTimeout = 30 * time.Second

// Server owns the router and every resource that has to be released on
// shutdown.
type Server struct {
	router  chi.Router
	config  *config.Config
	logger  *slog.Logger
	version string

	db      *sqlstore.DB
	closers []io.Closer
}

// New connects to every backing service named in cfg and wires the routes.
// On error, whatever was already opened is closed again.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*Server, error) {
	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		version: version,
	}

	if err := EnsureSQLiteDir(cfg.Database); err != nil {
		return nil, err
	}
	db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s.db = db

	userCache, err := s.openCache(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	store, err := s.openStorage()
	if err != nil {
		s.Close()
		return nil, err
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	resolver := auth.NewResolver(tokens, db.Users(), userCache, cfg.AdminEmails, logger)

	s.setupRoutes(resolver, store)
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the cache connection and the database, in that order.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}

func (s *Server) openCache(ctx context.Context) (cache.Cache, error) {
	c := s.config.Cache
	if c.RedisAddr == "" {
		s.logger.Info("using in-process user cache", slog.Int("size", c.Size), slog.Duration("ttl", c.TTL))
		return cache.NewMemory(c.Size, c.TTL), nil
	}
	r, err := cache.NewRedis(ctx, c.RedisAddr, "tenxdev:", c.TTL)
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	s.closers = append(s.closers, r)
	s.logger.Info("using redis user cache", slog.String("addr", c.RedisAddr), slog.Duration("ttl", c.TTL))
	return r, nil
}

func (s *Server) openStorage() (storage.Storage, error) {
	if !s.config.StorageEnabled() {
		s.logger.Warn("SUPABASE_URL not set: document file_path uploads cannot be resolved")
		return storage.None{}, nil
	}
	st, err := storage.NewSupabase(s.config.Storage.URL, s.config.Storage.Key, s.config.Storage.Bucket)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return st, nil
}

// setupRoutes configures middleware and routes.
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: Logger reads the id it stores
//  2. RealIP
//  3. Logger
//  4. Recoverer: inside Logger, so a panic is still logged as a 500
//  5. CORS: answers preflight requests before any auth check
//
// AUTH LEVELS:
//
//	optional  OptionalAuth: the user is attached when the token is valid
//	required  RequireAuth: 401 without a valid token
//	admin     RequireAuth + RequireAdmin: 403 for non-admins
func (s *Server) setupRoutes(resolver *auth.Resolver, store storage.Storage) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	cards := s.db.Cards()
	contents := s.db.Contents()

	cardService := service.NewCardService(cards, s.logger)
	savedService := service.NewSavedItemService(s.db.SavedItems(), cards, contents, s.logger)
	contentService := service.NewContentService(contents, cards, store, s.logger)
	reviewService := service.NewReviewService(s.db.Reviews(), cards, s.logger)
	userService := service.NewUserService(s.db.Users(), s.logger)

	cardHandler := handler.NewCardHandler(cardService, s.logger)
	savedHandler := handler.NewSavedItemHandler(savedService, s.logger)
	contentHandler := handler.NewContentHandler(contentService, s.logger)
	reviewHandler := handler.NewReviewHandler(reviewService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.version, s.logger)

	s.router.Get("/health", healthHandler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/logout", userHandler.HandleLogout)
		r.With(resolver.RequireAuth).Get("/me", userHandler.HandleMe)

		r.Route("/card-features", func(r chi.Router) {
			r.Get("/stats", cardHandler.HandleStats)

			r.Group(func(r chi.Router) {
				r.Use(resolver.OptionalAuth)
				r.Get("/", cardHandler.HandleList)
				r.Get("/search", cardHandler.HandleSearch)
				r.Get("/tech/{tech}", cardHandler.HandleByTech)
				r.Get("/{id}", cardHandler.HandleGet)
				r.Get("/{id}/reviews", reviewHandler.HandleList)
				r.Get("/{id}/reviews/summary", reviewHandler.HandleSummary)
			})

			r.Group(func(r chi.Router) {
				r.Use(resolver.RequireAuth)
				r.Post("/", cardHandler.HandleCreate)
				r.Put("/{id}", cardHandler.HandleUpdate)
				r.Delete("/{id}", cardHandler.HandleDelete)
				r.Put("/{id}/reviews", reviewHandler.HandleUpsert)
				r.Delete("/{id}/reviews", reviewHandler.HandleDelete)
			})

			r.Group(func(r chi.Router) {
				r.Use(resolver.RequireAuth, auth.RequireAdmin)
				r.Post("/bulk", cardHandler.HandleBulkCreate)
				r.Delete("/bulk", cardHandler.HandleBulkDelete)
			})
		})

		r.Route("/saved-items", func(r chi.Router) {
			r.Use(resolver.RequireAuth)
			r.Get("/", savedHandler.HandleList)
			r.Post("/", savedHandler.HandleSave)
			r.Get("/{type}/{id}", savedHandler.HandleIsSaved)
			r.Delete("/{type}/{id}", savedHandler.HandleUnsave)
		})

		r.Route("/contents", func(r chi.Router) {
			r.Get("/", contentHandler.HandleList)
			r.Get("/slug/{slug}", contentHandler.HandleGetBySlug)
			r.Get("/{id}", contentHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(resolver.RequireAuth, auth.RequireAdmin)
				r.Post("/", contentHandler.HandleCreate)
				r.Put("/{id}", contentHandler.HandleUpdate)
				r.Delete("/{id}", contentHandler.HandleDelete)
			})
		})
	})
}

// Start serves HTTP until SIGINT or SIGTERM, then drains in-flight requests
// for up to ShutdownTimeout and closes the database.
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.Database.Driver),
			slog.String("version", s.version),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}

// EnsureSQLiteDir creates the parent directory of a SQLite database file.
// Postgres and in-memory databases need nothing.
func EnsureSQLiteDir(db config.DatabaseConf) error {
	if db.Driver != sqlstore.DriverSQLite || db.DSN == ":memory:" || strings.HasPrefix(db.DSN, "file:") {
		return nil
	}
	dir := filepath.Dir(db.DSN)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}
