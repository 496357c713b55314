// Package bootstrap wires configuration into live runtime dependencies.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"projectarium/internal/cache"
	"projectarium/internal/config"
	"projectarium/internal/database"
	"projectarium/internal/middleware"
	"projectarium/internal/observability"
	"projectarium/internal/repository"
	"projectarium/internal/seed"
	"projectarium/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// EnsureBot provisions the welcome bot and its showcase projects.
	EnsureBot bool
}

// InitRuntime connects to the database and Redis. Redis is optional: a nil
// client means the process runs without caching and notifications.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	middleware.InitMiddleware(cfg.JWTSecret)

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	if opts.EnsureBot {
		if err := provisionBot(ctx, cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to provision welcome bot: %w", err)
		}
	}
	return db, rdb, nil
}

func provisionBot(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg.BotUsername == "" {
		return nil
	}
	catalog, err := seed.BotProjects()
	if err != nil {
		return err
	}
	store := repository.NewStore(db)
	bot := service.NewWelcomeBot(store, service.NewGraphService(store, nil), nil, cfg.BotUsername)
	user, err := bot.EnsureBot(ctx, catalog)
	if err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "welcome bot ready",
		slog.String("username", user.Username),
		slog.Uint64("user_id", uint64(user.ID)),
	)
	return nil
}

// InitTracing starts the tracer provider described by cfg and returns its
// shutdown function.
func InitTracing(cfg *config.Config) (func(context.Context) error, error) {
	return observability.InitTracing(tracingConfig(cfg))
}

func tracingConfig(cfg *config.Config) observability.TracingConfig {
	tc := observability.TracingConfig{
		ServiceName:    "projectarium-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		SamplerRatio:   1.0,
	}
	switch {
	case cfg.OTLPEndpoint != "":
		tc.Enabled = true
		tc.Exporter = "otlp"
		tc.OTLPEndpoint = cfg.OTLPEndpoint
	case cfg.Env == "debug":
		tc.Enabled = true
		tc.Exporter = "stdout"
	}
	if cfg.IsProduction() {
		tc.SamplerRatio = 0.1
	}
	return tc
}
