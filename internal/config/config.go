package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "ANIMESEARCH"

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Jikan    JikanConfig    `mapstructure:"jikan"`
	Search   SearchConfig   `mapstructure:"search"`
	Session  SessionConfig  `mapstructure:"session"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type JikanConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Burst     int           `mapstructure:"burst"`
	PageSize  int           `mapstructure:"page_size"`
	UserAgent string        `mapstructure:"user_agent"`
}

type SearchConfig struct {
	Debounce      time.Duration `mapstructure:"debounce"`
	TrendingLimit int           `mapstructure:"trending_limit"`
}

type SessionConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type CacheConfig struct {
	SearchTTL  time.Duration `mapstructure:"search_ttl"`
	DetailsTTL time.Duration `mapstructure:"details_ttl"`
	TopTTL     time.Duration `mapstructure:"top_ttl"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Enabled reports whether a database host was configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// ConnString returns a keyword/value connection string for pgx.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
}

// legacyEnv maps config keys onto the bare environment names used by
// existing deployments.
var legacyEnv = map[string]string{
	"server.port":        "PORT",
	"telegram.bot_token": "BOT_TOKEN",
	"redis.host":         "R_HOST",
	"redis.port":         "R_PORT",
	"redis.password":     "R_PASS",
	"database.host":      "DB_HOST",
	"database.port":      "DB_PORT",
	"database.user":      "DB_USER",
	"database.password":  "DB_PASSWORD",
	"database.name":      "DB_NAME",
}

// Load reads .env.local (if present) into the environment and builds a
// Config from defaults and environment variables.
func Load(v *viper.Viper, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env.local"}
	}
	// A missing env file is fine; the process environment still applies.
	_ = godotenv.Load(envFiles...)

	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("jikan.base_url", "https://api.jikan.moe/v4")
	v.SetDefault("jikan.timeout", time.Duration(0))
	v.SetDefault("jikan.rate_limit", 3.0)
	v.SetDefault("jikan.burst", 1)
	v.SetDefault("jikan.page_size", 12)
	v.SetDefault("jikan.user_agent", "AnimeSearch/1.0")

	v.SetDefault("search.debounce", 250*time.Millisecond)
	v.SetDefault("search.trending_limit", 10)

	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("session.sweep_interval", 5*time.Minute)

	v.SetDefault("cache.search_ttl", 4*time.Hour)
	v.SetDefault("cache.details_ttl", 24*time.Hour)
	v.SetDefault("cache.top_ttl", 1*time.Hour)

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.host", "")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("telegram.bot_token", "")
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Jikan.PageSize <= 0 || c.Jikan.PageSize > 25 {
		return fmt.Errorf("invalid jikan page size: %d", c.Jikan.PageSize)
	}
	if c.Search.Debounce < 0 {
		return fmt.Errorf("invalid search debounce: %s", c.Search.Debounce)
	}
	if c.Database.Enabled() && (c.Database.User == "" || c.Database.Name == "") {
		return fmt.Errorf("missing required database configuration")
	}
	return nil
}
