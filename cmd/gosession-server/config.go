package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/joho/godotenv"
)

const (
	backendRedis = "redis"
	backendSQL   = "sql"
)

// serverConfig is the process configuration read from the environment.
type serverConfig struct {
	Env      string
	HTTPAddr string
	LogLevel string

	AccessSecret  string
	RefreshSecret string

	RedisAddr   string
	RedisPrefix string

	SessionBackend string
	DatabaseDriver string
	DatabaseDSN    string
	PurgeInterval  time.Duration

	StoreTimeout     time.Duration
	BcryptCost       int
	LoginMaxAttempts int
	CORSOrigins      []string
}

// loadConfig reads .env when present, then the environment. Real environment
// variables win over .env entries.
func loadConfig() (*serverConfig, error) {
	_ = godotenv.Load()
	return configFromEnv(os.LookupEnv)
}

func configFromEnv(lookup func(string) (string, bool)) (*serverConfig, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	cfg := &serverConfig{
		Env:            get("APP_ENV", "development"),
		HTTPAddr:       get("HTTP_ADDR", ":8080"),
		LogLevel:       get("LOG_LEVEL", "info"),
		AccessSecret:   get("ACCESS_TOKEN_SECRET", ""),
		RefreshSecret:  get("REFRESH_TOKEN_SECRET", ""),
		RedisAddr:      get("REDIS_ADDR", ""),
		RedisPrefix:    get("REDIS_PREFIX", "rt"),
		SessionBackend: strings.ToLower(get("SESSION_BACKEND", backendRedis)),
		DatabaseDriver: get("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:    get("DATABASE_DSN", "file:gosession.db?_pragma=busy_timeout(5000)"),
	}

	var err error
	if cfg.StoreTimeout, err = time.ParseDuration(get("STORE_TIMEOUT", "5s")); err != nil {
		return nil, fmt.Errorf("invalid STORE_TIMEOUT: %w", err)
	}
	if cfg.PurgeInterval, err = time.ParseDuration(get("PURGE_INTERVAL", "10m")); err != nil {
		return nil, fmt.Errorf("invalid PURGE_INTERVAL: %w", err)
	}
	if cfg.BcryptCost, err = strconv.Atoi(get("BCRYPT_COST", "12")); err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	if cfg.LoginMaxAttempts, err = strconv.Atoi(get("LOGIN_MAX_ATTEMPTS", "5")); err != nil {
		return nil, fmt.Errorf("invalid LOGIN_MAX_ATTEMPTS: %w", err)
	}

	if origins := get("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required")
	}

	switch cfg.SessionBackend {
	case backendRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("REDIS_ADDR is required when SESSION_BACKEND=redis")
		}
	case backendSQL:
	default:
		return nil, fmt.Errorf("invalid SESSION_BACKEND %q (want redis or sql)", cfg.SessionBackend)
	}

	return cfg, nil
}

// engineConfig maps the process configuration onto the library config.
func (c *serverConfig) engineConfig() goSession.Config {
	cfg := goSession.DefaultConfig()
	cfg.Environment = c.Env
	cfg.JWT.AccessSecret = []byte(c.AccessSecret)
	cfg.JWT.RefreshSecret = []byte(c.RefreshSecret)
	cfg.Store.Timeout = c.StoreTimeout
	cfg.Store.RedisPrefix = c.RedisPrefix
	cfg.Password.BcryptCost = c.BcryptCost
	cfg.Security.MaxLoginAttempts = c.LoginMaxAttempts
	return cfg
}
