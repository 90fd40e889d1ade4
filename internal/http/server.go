package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/auth"
	"github.com/Clark-Hu/movie-catalog/internal/catalog"
	"github.com/Clark-Hu/movie-catalog/internal/config"
	"github.com/Clark-Hu/movie-catalog/internal/gotrue"
	"github.com/Clark-Hu/movie-catalog/internal/logging"
	"github.com/Clark-Hu/movie-catalog/internal/metrics"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
	"github.com/Clark-Hu/movie-catalog/internal/store"
	"github.com/Clark-Hu/movie-catalog/internal/validate"
)

// Accounts is the slice of the auth provider used by the login and register routes.
type Accounts interface {
	SignIn(ctx context.Context, email, password string) (gotrue.Session, error)
	SignUp(ctx context.Context, email, password string) (gotrue.Session, error)
}

// Dependencies are the collaborators the server is built from. Store may be
// nil in tests, in which case /readyz reports unavailable.
type Dependencies struct {
	Store     *store.Store
	Repo      *repository.Repository
	Verifier  auth.Verifier
	// Usernames defaults to the profiles repository.
	Usernames auth.UsernameLookup
	Accounts  Accounts
	Events    catalog.EventPublisher
	Validator *validate.Validator
	Logger    *zap.Logger
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg       config.Config
	store     *store.Store
	repo      *repository.Repository
	accounts  Accounts
	events    catalog.EventPublisher
	validator *validate.Validator
	logger    *zap.Logger

	reviews   *catalog.Reviews
	watchlist *catalog.Watchlist
	lists     *catalog.Lists
	guard     *auth.Middleware

	router  chi.Router
	httpSrv *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, deps Dependencies) *Server {
	logger := logging.OrNop(deps.Logger)
	v := deps.Validator
	if v == nil {
		v = validate.Default()
	}
	repo := deps.Repo
	usernames := deps.Usernames
	if usernames == nil {
		usernames = repo.Profiles
	}
	aggregator := catalog.NewRatingAggregator(repo.Reviews, repo.Movies, logger)

	s := &Server{
		cfg:       cfg,
		store:     deps.Store,
		repo:      repo,
		accounts:  deps.Accounts,
		events:    deps.Events,
		validator: v,
		logger:    logger,
		reviews:   catalog.NewReviews(repo.Movies, repo.Reviews, aggregator, deps.Events, logger),
		watchlist: catalog.NewWatchlist(repo.Movies, repo.Watchlist, deps.Events),
		lists:     catalog.NewLists(repo.Movies, repo.Lists),
		guard:     auth.NewMiddleware(deps.Verifier, usernames, logger),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	if cfg.RateLimitRequests > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindowSecs)*time.Second))
	}
	r.Use(metrics.Middleware)

	s.router = r
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/movies", func(r chi.Router) {
		r.Get("/", s.handleListMovies)
		r.Get("/search", s.handleSearchMovies)
		r.Get("/{id}", s.handleGetMovie)
		r.Get("/{id}/reviews", s.handleMovieReviews)
	})
	s.router.Get("/genres", s.handleListGenres)
	s.router.Post("/auth/login", s.handleLogin)
	s.router.Post("/auth/register", s.handleRegister)

	s.router.Group(func(r chi.Router) {
		r.Use(s.guard.RequireUser)

		// {id} is the movie on POST and the review on PUT and DELETE.
		r.Post("/reviews/{id}", s.handleCreateReview)
		r.Put("/reviews/{id}", s.handleUpdateReview)
		r.Delete("/reviews/{id}", s.handleDeleteReview)

		r.Get("/watchlist", s.handleListWatchlist)
		r.Post("/watchlist/toggle", s.handleToggleWatchlist)

		r.Post("/lists", s.handleCreateList)
		r.Get("/lists/my", s.handleMyLists)
		r.Post("/lists/{listId}/movies", s.handleAddListMovie)

		for _, path := range []string{"/users/profile", "/profile"} {
			r.Get(path, s.handleGetProfile)
			r.Post(path, s.handleUpsertProfile)
		}
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http: listening", zap.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		s.logger.Warn("http: readiness check failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			s.logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// recoverer turns a panic into a generic 500. The stack goes to the log only.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error("http: panic recovered",
				zap.Any("panic", rec),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Stack("stack"),
			)
			s.respondError(w, http.StatusInternalServerError, "Server error")
		}()
		next.ServeHTTP(w, r)
	})
}
