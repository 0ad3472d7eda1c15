package setup

import (
	"context"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jaxron/axonet/middleware/circuitbreaker"
	"github.com/jaxron/axonet/middleware/retry"
	"github.com/jaxron/axonet/middleware/singleflight"
	"github.com/jaxron/axonet/pkg/client"
	"go.uber.org/zap"

	"github.com/culturebot/culturebot/internal/content"
	"github.com/culturebot/culturebot/internal/database"
	"github.com/culturebot/culturebot/internal/redis"
	"github.com/culturebot/culturebot/internal/setup/config"
)

// App bundles all core dependencies needed by the bot. Each field is a
// subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config    // Application configuration
	Logger       *zap.Logger       // Main application logger
	DBLogger     *zap.Logger       // Database-specific logger
	DB           database.Client   // Database connection pool
	RedisManager *redis.Manager    // Redis connection manager
	Registry     *content.Registry // Content providers by media kind
}

// InitializeApp bootstraps all application dependencies in the correct
// order, ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, logDir string) (*App, error) {
	// Load app configuration
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logger, dbLogger, err := GetLoggers(logDir, cfg.Debug.LogLevel, cfg.Debug.MaxLogsToKeep)
	if err != nil {
		return nil, err
	}

	// Redis manager provides connection pools for caching and tokens
	redisManager := redis.NewManager(&cfg.Redis, logger)

	// Initialize database and apply pending migrations
	db, err := database.NewConnection(ctx, &cfg.PostgreSQL, dbLogger.Named("database"), true)
	if err != nil {
		return nil, err
	}

	// Content provider registry is configured with a shared HTTP client
	registry, err := buildRegistry(cfg, redisManager, logger)
	if err != nil {
		db.Close()
		redisManager.Close()

		return nil, err
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger,
		DB:           db,
		RedisManager: redisManager,
		Registry:     registry,
	}, nil
}

// buildRegistry constructs the upstream content providers behind a shared
// HTTP client with a middleware chain for reliability.
func buildRegistry(cfg *config.Config, redisManager *redis.Manager, logger *zap.Logger) (*content.Registry, error) {
	cacheClient, err := redisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		return nil, err
	}

	tokenClient, err := redisManager.GetClient(redis.TokenDBIndex)
	if err != nil {
		return nil, err
	}

	requestTimeout := time.Duration(cfg.Discord.RequestTimeout) * time.Millisecond

	httpClient := client.NewClient(
		client.WithMarshalFunc(sonic.Marshal),
		client.WithUnmarshalFunc(sonic.Unmarshal),
		client.WithLogger(NewLogger(logger)),
		client.WithTimeout(requestTimeout),
		client.WithMiddleware(
			circuitbreaker.New(
				cfg.CircuitBreaker.MaxRequests,
				time.Duration(cfg.CircuitBreaker.Interval)*time.Millisecond,
				time.Duration(cfg.CircuitBreaker.Timeout)*time.Millisecond,
			),
			retry.New(
				cfg.Retry.MaxRetries,
				time.Duration(cfg.Retry.Delay)*time.Millisecond,
				time.Duration(cfg.Retry.MaxDelay)*time.Millisecond,
			),
			singleflight.New(),
		),
	)

	cache := content.NewCache(cacheClient, logger)

	tmdb := content.NewTMDB(httpClient, cfg.Providers.TMDBToken, cache, logger)
	igdb := content.NewIGDB(
		httpClient, cfg.Providers.TwitchClientID, cfg.Providers.TwitchClientSecret,
		tokenClient, cache, logger,
	)
	spotify := content.NewSpotify(
		httpClient, cfg.Providers.SpotifyClientID, cfg.Providers.SpotifyClientSecret,
		tokenClient, cache, logger,
	)

	return content.NewRegistry(tmdb.Movies(), tmdb.Series(), igdb, spotify), nil
}

// Cleanup ensures graceful shutdown of all components in reverse
// initialization order. Logs but does not fail on cleanup errors so
// every component gets a cleanup attempt.
func (a *App) Cleanup() {
	if err := a.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := a.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	if err := a.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Close Redis connections last as other components might need them
	// during cleanup
	a.RedisManager.Close()
}
