package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/internal/metrics"
	"github.com/aretw0/abacus/pkg/auth"
	"github.com/aretw0/abacus/pkg/history"
	"github.com/aretw0/abacus/pkg/ports"
	"github.com/aretw0/abacus/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultMaxBodyBytes caps JSON request bodies.
const DefaultMaxBodyBytes = 10 << 20

// DefaultAllowedOrigins are the browser origins accepted when none is configured.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "https://localhost:3000"}

// Deps are the services behind the API.
type Deps struct {
	Auth     *auth.Service
	History  *history.Service
	Sessions *session.Manager
	Engine   *abacus.Engine
}

// Server holds the handlers of the REST API.
type Server struct {
	auth     *auth.Service
	history  *history.Service
	sessions *session.Manager
	engine   *abacus.Engine

	recorder      *history.Recorder
	metrics       *metrics.Metrics
	globalLimiter ports.RateLimiter
	authLimiter   ports.RateLimiter
	logger        *slog.Logger
	origins       []string
	development   bool
	maxBodyBytes  int64
	version       string
	now           func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithRecorder records successful /evaluate calls in the caller's history.
func WithRecorder(r *history.Recorder) Option {
	return func(s *Server) {
		s.recorder = r
	}
}

// WithRateLimiters sets the limiter applied to every request and the
// stricter one applied to /api/auth. A nil limiter disables its tier.
func WithRateLimiters(global, authentication ports.RateLimiter) Option {
	return func(s *Server) {
		s.globalLimiter = global
		s.authLimiter = authentication
	}
}

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithDevelopment exposes internal error details in 500 responses.
func WithDevelopment(dev bool) Option {
	return func(s *Server) {
		s.development = dev
	}
}

// WithMaxBodyBytes caps request bodies under /api.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithVersion sets the version reported by /health and /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates the API server.
func NewServer(deps Deps, opts ...Option) *Server {
	s := &Server{
		auth:         deps.Auth,
		history:      deps.History,
		sessions:     deps.Sessions,
		engine:       deps.Engine,
		maxBodyBytes: DefaultMaxBodyBytes,
		version:      abacus.Version,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if len(s.origins) == 0 {
		s.origins = DefaultAllowedOrigins
	}
	if s.engine == nil {
		s.engine = abacus.New()
	}
	return s
}

// NewHandler creates the HTTP handler of the API.
func NewHandler(deps Deps, opts ...Option) http.Handler {
	return NewServer(deps, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Set before mounting so sub-routers inherit them.
	r.NotFound(s.notFound)
	r.MethodNotAllowed(s.notFound)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(s.recoverer)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(s.rateLimit("global", s.globalLimiter, "Too many requests from this IP, please try again later."))

	r.Get("/", s.index)
	r.Get("/health", s.health)
	r.Get("/info", s.info)
	r.Get("/openapi.yaml", s.openapi)
	r.Get("/swagger", s.swagger)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limitBody)

		r.Route("/auth", func(r chi.Router) {
			r.Use(s.rateLimit("auth", s.authLimiter, "Too many authentication attempts, please try again later."))
			r.Post("/register", s.register)
			r.Post("/login", s.login)
			r.With(s.requireAuth).Get("/profile", s.profile)
			r.With(s.requireAuth).Get("/verify", s.verify)
		})

		r.Route("/operations", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.saveOperation)
			r.Get("/", s.listOperations)
			r.Delete("/", s.clearOperations)
			r.Get("/statistics", s.statistics)
			r.Delete("/{id}", s.deleteOperation)
		})

		r.Route("/calculator", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/evaluate", s.evaluate)
			r.Post("/sessions", s.createSession)
			r.Get("/sessions/{id}", s.getSession)
			r.Delete("/sessions/{id}", s.deleteSession)
			r.Post("/sessions/{id}/keys", s.pressKeys)
			r.Get("/sessions/{id}/events", s.subscribeSession)
		})
	})

	return r
}
