package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/dustebin/core/config"
	"github.com/dmitrymomot/dustebin/core/logger"
	"github.com/dmitrymomot/dustebin/core/server"
	"github.com/dmitrymomot/dustebin/integration/database/pg"
	"github.com/dmitrymomot/dustebin/integration/database/redis"
	"github.com/dmitrymomot/dustebin/integration/storage/s3"
	"github.com/dmitrymomot/dustebin/internal/api"
	"github.com/dmitrymomot/dustebin/internal/paste"
	"github.com/dmitrymomot/dustebin/middleware"
	"github.com/dmitrymomot/dustebin/pkg/async"
	"github.com/dmitrymomot/dustebin/pkg/ratelimiter"
	"github.com/dmitrymomot/dustebin/pkg/summarizer"
	"github.com/dmitrymomot/dustebin/pkg/viewcache"
)

// shutdownTimeout bounds the wait for background metadata generation.
const shutdownTimeout = 10 * time.Second

// App wires the paste service, the limiters and the HTTP server together.
type App struct {
	config    Config
	hasConfig bool
	logger    *slog.Logger

	repo         paste.Repository
	images       paste.ImageStore
	summaryStore summarizer.Store
	summarizer   summarizer.Summarizer

	pastes  *paste.Service
	limits  *ratelimiter.Service
	reaper  *ratelimiter.Reaper
	cleaner *paste.Cleaner
	handler http.Handler
	server  *server.Server

	checks  []func(context.Context) error
	closers []func()
}

// AppOption configures an App. Components supplied through options are not
// built from configuration.
type AppOption func(*App) error

// NewApp loads configuration (unless WithConfig is given), connects the
// configured backends and assembles the application. Postgres is required;
// Redis and object storage are optional.
func NewApp(ctx context.Context, opts ...AppOption) (*App, error) {
	a := &App{}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if !a.hasConfig {
		if err := config.Load(&a.config); err != nil {
			return nil, err
		}
	}
	if a.logger == nil {
		a.logger = newLogger(a.config)
		logger.SetAsDefault(a.logger)
	}

	steps := []func(context.Context) error{
		a.setupStorage,
		a.setupSummarizer,
		a.setupLimits,
		a.setupPastes,
		a.setupServer,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func newLogger(cfg Config) *slog.Logger {
	opts := []logger.Option{logger.WithDevelopment(cfg.AppName)}
	if cfg.Env == "production" {
		opts = []logger.Option{logger.WithProduction(cfg.AppName)}
	}
	opts = append(opts,
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithContextExtractors(middleware.RequestIDExtractor),
	)
	return logger.New(opts...)
}

// WithConfig uses cfg instead of loading it from the environment.
func WithConfig(cfg Config) AppOption {
	return func(a *App) error {
		a.config = cfg
		a.hasConfig = true
		return nil
	}
}

func WithLogger(l *slog.Logger) AppOption {
	return func(a *App) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		a.logger = l
		return nil
	}
}

// WithRepository replaces the Postgres repository.
func WithRepository(repo paste.Repository) AppOption {
	return func(a *App) error {
		if repo == nil {
			return errors.New("repository cannot be nil")
		}
		a.repo = repo
		return nil
	}
}

// WithImageStore replaces the S3 image store.
func WithImageStore(store paste.ImageStore) AppOption {
	return func(a *App) error {
		if store == nil {
			return errors.New("image store cannot be nil")
		}
		a.images = store
		return nil
	}
}

// WithSummarizer replaces the configured AI summarizer chain.
func WithSummarizer(s summarizer.Summarizer) AppOption {
	return func(a *App) error {
		if s == nil {
			return errors.New("summarizer cannot be nil")
		}
		a.summarizer = s
		return nil
	}
}

func (a *App) setupStorage(ctx context.Context) error {
	if a.repo == nil {
		pool, err := pg.Connect(ctx, a.config.DB)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		if err := pg.Migrate(ctx, pool, a.config.DB, paste.Migrations, paste.MigrationsDir, a.logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		a.repo = paste.NewPGRepository(pool)
		a.checks = append(a.checks, pg.Healthcheck(pool))
	}

	if a.summaryStore == nil && a.summarizer == nil && a.config.Redis.Enabled() {
		client, err := redis.Connect(ctx, a.config.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.summaryStore = summarizer.NewRedisStore(client)
		a.checks = append(a.checks, redis.Healthcheck(client))
	}

	if a.images == nil && a.config.Storage.Enabled() {
		store, err := s3.New(ctx, a.config.Storage)
		if err != nil {
			return fmt.Errorf("connect object storage: %w", err)
		}
		a.images = store
		a.checks = append(a.checks, store.Healthcheck)
	}
	if a.images == nil {
		a.logger.WarnContext(ctx, "object storage not configured, image pastes disabled", logger.Component("app"))
	}
	return nil
}

func (a *App) setupSummarizer(ctx context.Context) error {
	if a.summarizer != nil {
		return nil
	}
	s, err := summarizer.New(ctx, a.config.AI, a.summaryStore, a.logger)
	if err != nil {
		return fmt.Errorf("summarizer: %w", err)
	}
	a.summarizer = s
	return nil
}

func (a *App) setupLimits(context.Context) error {
	limits, err := ratelimiter.NewService(a.config.RateLimit, ratelimiter.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	a.limits = limits
	a.reaper = ratelimiter.NewReaperFromConfig(a.config.RateLimit, limits, ratelimiter.WithReaperLogger(a.logger))
	a.checks = append(a.checks, a.reaper.Healthcheck)
	return nil
}

func (a *App) setupPastes(context.Context) error {
	opts := []paste.Option{
		paste.WithLogger(a.logger),
		paste.WithSummarizer(a.summarizer),
		paste.WithViewCounter(viewcache.NewFromConfig(a.config.Views)),
		paste.WithRunner(async.NewRunner(
			async.WithTaskTimeout(a.config.Paste.SummaryTimeout),
			async.WithLogger(a.logger),
		)),
	}
	if a.images != nil {
		opts = append(opts, paste.WithImageStore(a.images))
	}
	a.pastes = paste.NewService(a.repo, opts...)

	a.cleaner = paste.NewCleanerFromConfig(a.config.Paste, a.pastes, paste.WithCleanerLogger(a.logger))
	a.checks = append(a.checks, a.cleaner.Healthcheck)
	return nil
}

func (a *App) setupServer(context.Context) error {
	h := api.NewHandler(a.pastes, a.config.API,
		api.WithLogger(a.logger),
		api.WithMetadataTimeout(a.config.Paste.MetadataTimeout),
	)
	a.handler = api.NewRouter(h, a.limits, a.logger, a.checks...)

	srv, err := server.NewFromConfig(a.config.Server, server.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	a.server = srv
	return nil
}

// Handler returns the HTTP handler of the application.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP and runs the rate limit reaper and the expired paste
// cleaner until ctx is cancelled or one of them fails. Background metadata
// work is drained and connections are closed before Run returns.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(a.server.Run(ctx, a.handler))
	g.Go(a.reaper.Run(ctx))
	g.Go(a.cleaner.Run(ctx))

	a.logger.InfoContext(ctx, "dustebin started",
		logger.Component("app"),
		slog.String("addr", a.server.Addr()),
	)
	err := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := a.pastes.Shutdown(shutdownCtx); serr != nil {
		a.logger.Warn("background work did not finish", logger.Error(serr))
	}
	return err
}

// Close releases backend connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
