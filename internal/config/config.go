// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the credential service.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Token    TokenConfig
	Crypto   CryptoConfig
	Wakatime WakatimeConfig
	Cache    CacheConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// TokenConfig holds session JWT configuration.
type TokenConfig struct {
	Issuer          string
	SessionDuration time.Duration
	SigningKey      string
}

// CryptoConfig holds encryption-at-rest configuration.
type CryptoConfig struct {
	// EncryptionKey is the base64-encoded 32-byte AES key.
	EncryptionKey string
}

// WakatimeConfig holds WakaTime OAuth application configuration.
type WakatimeConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	BaseURL      string
	APIBaseURL   string
}

// CacheConfig holds in-process cache tuning.
type CacheConfig struct {
	SweepInterval time.Duration
	EarlyExpiry   time.Duration
	ProfileMaxAge time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            envString("SERVER_HOST", "0.0.0.0"),
			Port:            envInt("SERVER_PORT", 8080),
			ShutdownTimeout: envDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			MaxConns: envInt("DATABASE_MAX_CONNS", 25),
			MinConns: envInt("DATABASE_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     envString("REDIS_HOST", "localhost"),
			Port:     envInt("REDIS_PORT", 6379),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL:           envString("NATS_URL", "nats://localhost:4222"),
			SubjectPrefix: envString("NATS_SUBJECT_PREFIX", "codecrunchr"),
			MaxReconnects: envInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait: envDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
		Token: TokenConfig{
			Issuer:          envString("TOKEN_ISSUER", "codecrunchr-credentials"),
			SessionDuration: envDuration("TOKEN_SESSION_DURATION", 720*time.Hour),
			SigningKey:      os.Getenv("TOKEN_SIGNING_KEY"),
		},
		Crypto: CryptoConfig{
			EncryptionKey: os.Getenv("CRYPTO_ENCRYPTION_KEY"),
		},
		Wakatime: WakatimeConfig{
			ClientID:     os.Getenv("WAKATIME_CLIENT_ID"),
			ClientSecret: os.Getenv("WAKATIME_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("WAKATIME_REDIRECT_URI"),
			BaseURL:      os.Getenv("WAKATIME_BASE_URL"),
			APIBaseURL:   os.Getenv("WAKATIME_API_BASE_URL"),
		},
		Cache: CacheConfig{
			SweepInterval: envDuration("CACHE_SWEEP_INTERVAL", 5*time.Minute),
			EarlyExpiry:   envDuration("CACHE_EARLY_EXPIRY", 5*time.Minute),
			ProfileMaxAge: envDuration("CACHE_PROFILE_MAX_AGE", 10*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Token.SigningKey == "" {
		return fmt.Errorf("TOKEN_SIGNING_KEY is required")
	}
	if c.Crypto.EncryptionKey == "" {
		return fmt.Errorf("CRYPTO_ENCRYPTION_KEY is required")
	}
	if c.Wakatime.ClientID == "" || c.Wakatime.ClientSecret == "" {
		return fmt.Errorf("WAKATIME_CLIENT_ID and WAKATIME_CLIENT_SECRET are required")
	}
	if c.Wakatime.RedirectURI == "" {
		return fmt.Errorf("WAKATIME_REDIRECT_URI is required")
	}
	return nil
}

// Address returns the HTTP server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Address returns the Redis address.
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
