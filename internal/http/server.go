package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/store-ratings/internal/config"
	"github.com/Clark-Hu/store-ratings/internal/domain"
	"github.com/Clark-Hu/store-ratings/internal/metrics"
	"github.com/Clark-Hu/store-ratings/internal/service"
	"github.com/Clark-Hu/store-ratings/internal/validation"
)

// HealthChecker reports whether the backing database is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg       config.Config
	health    HealthChecker
	svc       *service.Service
	metrics   *metrics.Metrics
	validator *validation.Validator
	limiter   *ipRateLimiter
	logger    *logrus.Logger
	router    chi.Router
	httpSrv   *http.Server
}

// New constructs the HTTP server with base middleware and routes. m may be nil.
func New(cfg config.Config, health HealthChecker, svc *service.Service, m *metrics.Metrics, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Server{
		cfg:       cfg,
		health:    health,
		svc:       svc,
		metrics:   m,
		validator: validation.New(),
		limiter:   newIPRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst),
		logger:    logger,
		router:    chi.NewRouter(),
	}
	s.router.Use(middleware.RequestID)
	// Forwarded headers are client-controlled unless a proxy in front rewrites them.
	if cfg.TrustProxyHeaders {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(s.logRequests)
	s.router.Use(s.metrics.Instrument)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.ClientURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.registerRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.NotFound(s.handleNotFound)
	s.router.MethodNotAllowed(s.handleMethodNotAllowed)

	s.router.Get("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(s.rateLimit)
				r.Post("/signup", s.handleSignup)
				r.Post("/login", s.handleLogin)
			})
			r.Group(func(r chi.Router) {
				r.Use(s.authenticate)
				r.Get("/me", s.handleMe)
				r.Put("/change-password", s.handleChangePassword)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authenticate, s.requireRoles(domain.RoleAdmin))
			r.Get("/dashboard", s.handleAdminDashboard)
			r.Post("/users", s.handleCreateUser)
			r.Get("/users", s.handleListUsers)
			r.Get("/users/{id}", s.handleGetUser)
			r.Post("/stores", s.handleCreateStore)
			r.Post("/stores/with-owner", s.handleCreateStoreWithOwner)
			r.Get("/stores", s.handleAdminListStores)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate, s.requireRoles(domain.RoleUser))
			r.Get("/stores", s.handleListStores)
			r.Post("/ratings", s.handleSubmitRating)
		})

		r.Route("/store-owner", func(r chi.Router) {
			r.Use(s.authenticate, s.requireRoles(domain.RoleStoreOwner))
			r.Get("/dashboard", s.handleOwnerDashboard)
		})
	})
}

// Start boots the HTTP server and blocks until ctx is cancelled or the listener fails.
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
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.health != nil {
		if err := s.health.HealthCheck(ctx); err != nil {
			s.logger.WithError(err).Warn("health check failed")
			s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Database unavailable", nil)
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}
