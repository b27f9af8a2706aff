package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Reference data sources accepted by PRICING_REFDATA_SOURCE.
const (
	SourcePostgres = "postgres"
	SourceFile     = "file"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Pricing   PricingConfig
	RateLimit RateLimitConfig
	LogLevel  string `mapstructure:"LOG_LEVEL"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"SERVER_HOST"`
	Port         int           `mapstructure:"SERVER_PORT"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `mapstructure:"SERVER_IDLE_TIMEOUT"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"POSTGRES_HOST"`
	Port     int    `mapstructure:"POSTGRES_PORT"`
	User     string `mapstructure:"POSTGRES_USER"`
	Password string `mapstructure:"POSTGRES_PASSWORD"`
	DBName   string `mapstructure:"POSTGRES_DB"`
	SSLMode  string `mapstructure:"POSTGRES_SSLMODE"`
	MaxConns int32  `mapstructure:"POSTGRES_MAX_CONNS"`
	MinConns int32  `mapstructure:"POSTGRES_MIN_CONNS"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     int    `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	PoolSize int    `mapstructure:"REDIS_POOL_SIZE"`
}

// PricingConfig holds fare engine and reference data settings.
type PricingConfig struct {
	Timezone            string        `mapstructure:"PRICING_TIMEZONE"`
	ParisZone           string        `mapstructure:"PRICING_PARIS_ZONE"`
	RefDataSource       string        `mapstructure:"PRICING_REFDATA_SOURCE"`
	RefDataFile         string        `mapstructure:"PRICING_REFDATA_FILE"`
	CacheTTL            time.Duration `mapstructure:"PRICING_CACHE_TTL"`
	UrgentWindow        time.Duration `mapstructure:"PRICING_URGENT_WINDOW"`
	InvalidationChannel string        `mapstructure:"PRICING_INVALIDATION_CHANNEL"`
}

// RateLimitConfig holds the per-process token bucket for the API.
// RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	Burst int     `mapstructure:"RATE_LIMIT_BURST"`
}

// DSN returns the PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// Addr returns the Redis address in host:port format.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerAddr returns the HTTP listen address in host:port format.
func (s *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Location loads the configured pricing time zone.
func (p *PricingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: load timezone %q: %w", p.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	// Try to read .env file. If it doesn't exist (e.g., inside Docker),
	// env vars injected by docker-compose env_file are used instead.
	_ = v.ReadInConfig()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	// ── Defaults ────────────────────────────────────────
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "5s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "chauffeur")
	v.SetDefault("POSTGRES_PASSWORD", "chauffeur_secret")
	v.SetDefault("POSTGRES_DB", "chauffeur_db")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("POSTGRES_MAX_CONNS", 20)
	v.SetDefault("POSTGRES_MIN_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 50)

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("PRICING_TIMEZONE", "Europe/Paris")
	v.SetDefault("PRICING_PARIS_ZONE", "PARIS")
	v.SetDefault("PRICING_REFDATA_SOURCE", SourcePostgres)
	v.SetDefault("PRICING_REFDATA_FILE", "refdata.yaml")
	v.SetDefault("PRICING_CACHE_TTL", "10m")
	v.SetDefault("PRICING_URGENT_WINDOW", "1h")
	v.SetDefault("PRICING_INVALIDATION_CHANNEL", "pricing:invalidate")

	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{LogLevel: v.GetString("LOG_LEVEL")}

	// ── Server ──────────────────────────────────────────
	cfg.Server = ServerConfig{
		Host:         v.GetString("SERVER_HOST"),
		Port:         v.GetInt("SERVER_PORT"),
		ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		IdleTimeout:  v.GetDuration("SERVER_IDLE_TIMEOUT"),
	}

	// ── Postgres ────────────────────────────────────────
	cfg.Postgres = PostgresConfig{
		Host:     v.GetString("POSTGRES_HOST"),
		Port:     v.GetInt("POSTGRES_PORT"),
		User:     v.GetString("POSTGRES_USER"),
		Password: v.GetString("POSTGRES_PASSWORD"),
		DBName:   v.GetString("POSTGRES_DB"),
		SSLMode:  v.GetString("POSTGRES_SSLMODE"),
		MaxConns: v.GetInt32("POSTGRES_MAX_CONNS"),
		MinConns: v.GetInt32("POSTGRES_MIN_CONNS"),
	}

	// ── Redis ───────────────────────────────────────────
	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		PoolSize: v.GetInt("REDIS_POOL_SIZE"),
	}

	// ── Pricing ─────────────────────────────────────────
	cfg.Pricing = PricingConfig{
		Timezone:            v.GetString("PRICING_TIMEZONE"),
		ParisZone:           v.GetString("PRICING_PARIS_ZONE"),
		RefDataSource:       v.GetString("PRICING_REFDATA_SOURCE"),
		RefDataFile:         v.GetString("PRICING_REFDATA_FILE"),
		CacheTTL:            v.GetDuration("PRICING_CACHE_TTL"),
		UrgentWindow:        v.GetDuration("PRICING_URGENT_WINDOW"),
		InvalidationChannel: v.GetString("PRICING_INVALIDATION_CHANNEL"),
	}

	// ── Rate limiting ───────────────────────────────────
	cfg.RateLimit = RateLimitConfig{
		RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		Burst: v.GetInt("RATE_LIMIT_BURST"),
	}

	switch cfg.Pricing.RefDataSource {
	case SourcePostgres, SourceFile:
	default:
		return nil, fmt.Errorf("config: PRICING_REFDATA_SOURCE must be %q or %q, got %q",
			SourcePostgres, SourceFile, cfg.Pricing.RefDataSource)
	}
	if cfg.Pricing.UrgentWindow <= 0 {
		return nil, fmt.Errorf("config: PRICING_URGENT_WINDOW must be positive")
	}

	return cfg, nil
}
