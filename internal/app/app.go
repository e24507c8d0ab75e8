// Package app wires every component together: database pool, repositories,
// services, handlers, the HTTP server and the background jobs.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/config"
	"pixelwerk.nl/backoffice/internal/db/postgres"
	"pixelwerk.nl/backoffice/internal/features/analytics"
	"pixelwerk.nl/backoffice/internal/features/attachments"
	"pixelwerk.nl/backoffice/internal/features/auth"
	"pixelwerk.nl/backoffice/internal/features/companies"
	"pixelwerk.nl/backoffice/internal/features/customers"
	"pixelwerk.nl/backoffice/internal/features/leads"
	"pixelwerk.nl/backoffice/internal/features/quotes"
	"pixelwerk.nl/backoffice/internal/features/users"
	"pixelwerk.nl/backoffice/internal/jobs"
	"pixelwerk.nl/backoffice/internal/notify"
	"pixelwerk.nl/backoffice/internal/ratelimit"
	"pixelwerk.nl/backoffice/internal/server"
)

// rateLimitCleanup is how often the in-process limiter drops stale buckets.
const rateLimitCleanup = 5 * time.Minute

// App holds the long-lived components.
type App struct {
	Server    *server.Server
	Scheduler *jobs.Scheduler
	Limiter   *ratelimit.Limiter
	DB        *pgxpool.Pool
}

// New builds the application. The order matters: later components
// depend on earlier ones.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	common.SetTimezone(cfg.AppTimezone)

	// 1. Database
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database verbinding: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migraties: %w", err)
	}

	// 2. Rate limiter
	limiter, err := newLimiter(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	// 3. Notifications
	var (
		notifier leads.Notifier
		digest   jobs.DigestSender
	)
	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			_ = limiter.Close()
			pool.Close()
			return nil, err
		}
		notifier, digest = tg, tg
		log.WithField("chat_id", cfg.TelegramChatID).Info("Telegram notifications enabled")
	} else {
		log.Info("Telegram notifications disabled")
	}

	// 4. Repositories
	userRepo := users.NewRepository(pool)
	authRepo := auth.NewRepository(pool)
	leadRepo := leads.NewRepository(pool)
	attachmentRepo := attachments.NewRepository(pool)
	quoteRepo := quotes.NewRepository(pool)
	customerRepo := customers.NewRepository(pool)
	analyticsRepo := analytics.NewRepository(pool)

	// 5. Services
	authService := auth.NewService(authRepo, userRepo, auth.OptionsFromConfig(cfg))
	userService := users.NewService(userRepo, authService)
	leadService := leads.NewService(leadRepo, notifier)
	attachmentService := attachments.NewService(attachmentRepo, leadService, cfg.AttachmentMaxBytes)
	quoteService := quotes.NewService(quoteRepo, leadService, quotes.Defaults{
		VATRate:   cfg.QuoteDefaultVAT,
		ValidDays: cfg.QuoteValidityDays,
	})
	customerService := customers.NewService(customerRepo, leadService)
	analyticsService := analytics.NewService(analyticsRepo)
	registry := companies.NewRegistry(companies.RegistryConfig{
		BaseURL: cfg.CompanyAPIURL,
		APIKey:  cfg.CompanyAPIKey,
		Timeout: cfg.CompanyAPITimeout,
		RPS:     cfg.CompanyAPIRPS,
	}, nil)
	if !registry.Enabled() {
		log.Info("Company lookup disabled: COMPANY_API_KEY not set")
	}

	// 6. Handlers
	handlers := server.Handlers{
		Auth:        auth.NewHandler(authService),
		Users:       users.NewHandler(userService),
		Leads:       leads.NewHandler(leadService),
		Attachments: attachments.NewHandler(attachmentService),
		Quotes:      quotes.NewHandler(quoteService),
		Customers:   customers.NewHandler(customerService),
		Analytics:   analytics.NewHandler(analyticsService),
		Companies:   companies.NewHandler(registry),
	}
	if cfg.DebugEndpointEnabled {
		handlers.Debug = server.DebugHandler(cfg.AppEnv, pool, time.Now())
		log.Warn("Debug endpoint enabled")
	}

	// 7. Router and server
	router := server.NewRouter(handlers, server.RouterConfig{
		Gate:      auth.NewGate(authService),
		Limiter:   limiter,
		Quotas:    server.QuotasFromConfig(cfg),
		ProxyHops: cfg.ProxyHops(),
	})

	// 8. Scheduler
	scheduler := jobs.NewScheduler(authService, leadService, digest)

	return &App{
		Server:    server.New(cfg, router),
		Scheduler: scheduler,
		Limiter:   limiter,
		DB:        pool,
	}, nil
}

// Run starts the jobs and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("scheduler starten: %w", err)
	}
	defer a.Scheduler.Stop()

	if err := a.Server.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the limiter store and the pool. Call after Run returns.
func (a *App) Close() {
	if err := a.Limiter.Close(); err != nil {
		log.WithError(err).Warn("Rate limiter close failed")
	}
	a.DB.Close()
}

func newLimiter(ctx context.Context, cfg *config.Config) (*ratelimit.Limiter, error) {
	if cfg.RateLimitRedisURL == "" {
		log.Info("Rate limiting with in-process counters")
		return ratelimit.NewLimiter(ratelimit.NewMemoryStore(rateLimitCleanup)), nil
	}
	store, err := ratelimit.NewRedisStore(ctx, cfg.RateLimitRedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis rate limiter: %w", err)
	}
	log.Info("Rate limiting with Redis")
	return ratelimit.NewLimiter(store), nil
}
