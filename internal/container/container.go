package container

import (
	"context"
	"fmt"

	"animesearch/internal/bot"
	"animesearch/internal/cache"
	"animesearch/internal/config"
	"animesearch/internal/database"
	"animesearch/internal/logger"
	"animesearch/internal/repository"
	"animesearch/internal/services"
	"animesearch/internal/session"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Container wires the service graph. Redis, Postgres and the Telegram bot
// are optional and stay nil when not configured.
type Container struct {
	Config       *config.Config
	DB           *pgxpool.Pool
	Redis        *redis.Client
	Logger       *logrus.Logger
	AnimeService *services.Client
	Media        repository.MediaRepository
	Sessions     *session.Store
	Bot          *bot.Bot
	BotHandler   *bot.Handler
}

func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger.Get(),
	}

	if cfg.Redis.Enabled() {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		c.Redis = redisClient
		c.Logger.Info("Redis connection successful")
	}

	if cfg.Database.Enabled() {
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		if err := database.Migrate(ctx, db); err != nil {
			c.Close()
			return nil, err
		}
		c.Media = repository.NewMediaRepository(db)
		c.Logger.Info("Database connection successful")
	}

	c.AnimeService = NewAnimeService(cfg, c.Logger, c.Redis)

	storeConfig := session.StoreConfig{
		Catalog:       c.AnimeService,
		TrendingLimit: cfg.Search.TrendingLimit,
		Debounce:      cfg.Search.Debounce,
		IdleTTL:       cfg.Session.IdleTTL,
		SweepInterval: cfg.Session.SweepInterval,
		Logger:        c.Logger,
	}
	if c.Media != nil {
		storeConfig.Recorder = c.Media
	}
	c.Sessions = session.NewStore(storeConfig)

	if cfg.Telegram.BotToken != "" {
		c.Bot = bot.NewBot(cfg.Telegram.BotToken, c.Logger)
		c.BotHandler = bot.NewHandler(c.Sessions, c.Bot, c.Logger)
	}

	return c, nil
}

// NewAnimeService builds the catalog client from config. A nil redisClient
// disables response caching.
func NewAnimeService(cfg *config.Config, log *logrus.Logger, redisClient *redis.Client) *services.Client {
	clientConfig := &services.ClientConfig{
		BaseURL:         cfg.Jikan.BaseURL,
		Timeout:         cfg.Jikan.Timeout,
		RateLimit:       cfg.Jikan.RateLimit,
		Burst:           cfg.Jikan.Burst,
		PageSize:        cfg.Jikan.PageSize,
		UserAgent:       cfg.Jikan.UserAgent,
		Logger:          log,
		SearchCacheTTL:  cfg.Cache.SearchTTL,
		DetailsCacheTTL: cfg.Cache.DetailsTTL,
		TopCacheTTL:     cfg.Cache.TopTTL,
	}
	if redisClient != nil {
		clientConfig.Cache = cache.NewRedisCache(redisClient)
	}
	return services.NewClientWithConfig(clientConfig)
}

func (c *Container) Close() {
	if c.Redis != nil {
		c.Redis.Close()
		c.Logger.Info("Redis connection closed")
	}
	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("Database connection closed")
	}
}
