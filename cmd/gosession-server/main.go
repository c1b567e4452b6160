// Command gosession-server serves the cookie-session HTTP surface: login,
// logout, signup, refresh, protected pages and /metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/handlers"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/MrEthical07/goSession/storage/sqlstore"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gosession-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel), cfg.Env == goSession.EnvProduction)
	ctx := context.Background()

	// Credentials always live in SQL; refresh records follow SESSION_BACKEND.
	dialect, err := sqlstore.ParseDialect(cfg.DatabaseDriver)
	if err != nil {
		return err
	}
	store, err := sqlstore.OpenAndMigrate(ctx, dialect, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	builder := goSession.New().
		WithConfig(cfg.engineConfig()).
		WithCredentialStore(store.Users).
		WithActivitySink(store.Activity).
		WithLogger(log.Slog())

	var rdb redis.UniversalClient
	if cfg.RedisAddr != "" {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.RedisAddr}})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		builder = builder.WithRedis(rdb)
	}
	if cfg.SessionBackend == backendSQL {
		builder = builder.WithSessionStore(store.RefreshTokens)
	}

	engine, err := builder.Build()
	if err != nil {
		log.Error(ctx, "engine configuration rejected", "error", err)
		return err
	}
	defer engine.Close()

	mux := http.NewServeMux()
	handlers.NewAuth(engine, log).Register(mux)
	mux.Handle("GET /metrics", prometheus.NewExporter(engine).Handler())

	handler := middleware.ClientIP(middleware.Gate(engine)(mux))
	if len(cfg.CORSOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}).Handler(handler)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stop, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.SessionBackend == backendSQL {
		go purgeLoop(stop, store.RefreshTokens, cfg.PurgeInterval, log)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.HTTPAddr, "backend", cfg.SessionBackend, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-stop.Done():
	}

	log.Info(ctx, "shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func purgeLoop(ctx context.Context, tokens *sqlstore.RefreshTokens, every time.Duration, log logging.Logger) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := tokens.PurgeExpired(ctx)
			if err != nil {
				log.Warn(ctx, "purge expired refresh tokens failed", "error", err)
				continue
			}
			if n > 0 {
				log.Debug(ctx, "purged expired refresh tokens", "count", n)
			}
		}
	}
}
