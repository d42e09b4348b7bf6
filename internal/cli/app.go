package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/config"
	"github.com/aretw0/abacus/internal/metrics"
	httpAdapter "github.com/aretw0/abacus/pkg/adapters/http"
	"github.com/aretw0/abacus/pkg/adapters/memory"
	"github.com/aretw0/abacus/pkg/adapters/redis"
	"github.com/aretw0/abacus/pkg/adapters/sqlite"
	"github.com/aretw0/abacus/pkg/auth"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/history"
	"github.com/aretw0/abacus/pkg/ports"
	"github.com/aretw0/abacus/pkg/session"
)

// Redis key prefixes of the rate limit tiers and session locks.
const (
	globalLimitPrefix = "abacus:global:"
	authLimitPrefix   = "abacus:auth:"
	lockPrefix        = "abacus:lock:"
)

// App is the wired API service: storage, engine, sessions and HTTP handler.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engine   *abacus.Engine
	Metrics  *metrics.Metrics
	Sessions *session.Manager
	Handler  http.Handler

	db       *sqlite.Store
	redis    *redis.Store
	recorder *history.Recorder
	stop     context.CancelFunc
}

// NewApp opens the database and wires every service behind the REST API.
// Sessions and rate limits live in Redis when a URL is configured, in
// process memory otherwise.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		db:      db,
	}

	workerCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	app.stop = stop
	app.recorder = history.NewRecorder(db,
		history.WithQueueSize(cfg.History.QueueSize),
		history.WithRecorderLogger(logger),
		history.WithDropHook(app.Metrics.HistoryDropped),
		history.WithSaveHook(app.Metrics.HistoryRecorded),
	)
	app.recorder.Start(workerCtx)

	app.Engine = abacus.New(
		abacus.WithLogger(logger),
		abacus.WithLifecycleHooks(domain.ChainHooks(
			createDebugHooks(logger),
			app.Metrics.Hooks(),
			domain.LifecycleHooks{OnCalculation: app.recorder.Hook()},
		)),
	)

	var (
		store         ports.StateStore = memory.NewStore()
		globalLimiter ports.RateLimiter
		authLimiter   ports.RateLimiter
		sessionOpts   = []session.Option{
			session.WithErrorDwell(cfg.Session.ErrorDwell),
			session.WithLogger(logger),
		}
	)
	if cfg.Redis.URL != "" {
		rs, err := redis.New(cfg.Redis.URL, redis.WithTTL(cfg.Redis.SessionTTL))
		if err != nil {
			app.Close()
			return nil, err
		}
		app.redis = rs
		if err := rs.Ping(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("redis unavailable: %w", err)
		}
		store = rs
		globalLimiter = redis.NewRateLimiter(rs.Client(), globalLimitPrefix, cfg.RateLimit.GlobalLimit, cfg.RateLimit.Window)
		authLimiter = redis.NewRateLimiter(rs.Client(), authLimitPrefix, cfg.RateLimit.AuthLimit, cfg.RateLimit.Window)
		sessionOpts = append(sessionOpts, session.WithLocker(redis.NewLocker(rs.Client(), lockPrefix)))
		logger.Info("using redis for sessions and rate limits")
	} else {
		globalLimiter = memory.NewRateLimiter(cfg.RateLimit.GlobalLimit, cfg.RateLimit.Window)
		authLimiter = memory.NewRateLimiter(cfg.RateLimit.AuthLimit, cfg.RateLimit.Window)
	}
	if cfg.Session.Encryption != nil {
		logger.Info("sealing sessions at rest")
	}
	app.Sessions = session.NewManager(SealStore(store, cfg.Session.Encryption), app.Engine, sessionOpts...)

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	server := httpAdapter.NewServer(httpAdapter.Deps{
		Auth:     auth.NewService(db, tokens, auth.WithBcryptCost(cfg.Auth.BcryptCost), auth.WithLogger(logger)),
		History:  history.NewService(db, history.WithLogger(logger)),
		Sessions: app.Sessions,
		Engine:   app.Engine,
	},
		httpAdapter.WithLogger(logger),
		httpAdapter.WithMetrics(app.Metrics),
		httpAdapter.WithRecorder(app.recorder),
		httpAdapter.WithRateLimiters(globalLimiter, authLimiter),
		httpAdapter.WithAllowedOrigins(allowedOrigins(cfg.Server.FrontendURL)...),
		httpAdapter.WithDevelopment(cfg.IsDevelopment()),
		httpAdapter.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	)
	app.Handler = server.Handler()
	return app, nil
}

// allowedOrigins splits a comma separated origin list. The stock frontend URL
// also admits its https twin.
func allowedOrigins(frontendURL string) []string {
	if frontendURL == httpAdapter.DefaultAllowedOrigins[0] {
		return httpAdapter.DefaultAllowedOrigins
	}
	var origins []string
	for _, o := range strings.Split(frontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Close drains the history queue and releases storage.
func (a *App) Close() {
	if a.Sessions != nil {
		a.Sessions.Close()
	}
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.stop != nil {
		a.stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("failed to close redis", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.Logger.Warn("failed to close database", "error", err)
	}
}

// Serve runs the API until ctx is cancelled, then shuts down gracefully.
// Open event streams are ended when shutdown begins.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	streams, endStreams := context.WithCancel(context.Background())
	defer endStreams()

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           app.Handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return streams },
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", srv.Addr, "env", cfg.Env, "database", cfg.Database.Path)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		endStreams()

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "error", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		logger.Info("server stopped gracefully")
		return nil
	}
}

// Migrate opens the database, applying the schema, and returns its version.
func Migrate(ctx context.Context, path string) (int, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return db.SchemaVersion(ctx)
}
