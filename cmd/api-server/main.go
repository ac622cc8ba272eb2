// cmd/api-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bizmatch/internal/api"
	"bizmatch/internal/auth"
	"bizmatch/internal/common/config"
	"bizmatch/internal/common/database"
	"bizmatch/internal/common/logger"
	"bizmatch/internal/common/observability"
	"bizmatch/internal/comparison"
	"bizmatch/internal/genai"
	"bizmatch/internal/matching"
	"bizmatch/internal/request"
	"bizmatch/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting api server...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("api-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Domain wiring ---
	genaiClient := genai.NewClient(genai.Config{
		BaseURL: cfg.APIs.GenAI.BaseURL,
		APIKey:  cfg.APIs.GenAI.APIKey,
		Model:   cfg.APIs.GenAI.Model,
		Timeout: config.GetDuration(cfg.APIs.GenAI.Timeout),
	}, log)
	if genaiClient.Enabled() {
		zapLog.Info("GenAI client enabled", zap.String("model", cfg.APIs.GenAI.Model))
	} else {
		zapLog.Warn("GenAI client disabled, matching and comparison run on fallbacks only")
	}

	catalogStore := store.NewCatalogStore(pg.DB)
	requestStore := store.NewRequestStore(pg.DB)
	shortlistStore := store.NewShortlistStore(pg.DB)
	userStore := store.NewUserStore(pg.DB)

	sessionStore := auth.NewSessionStore(redis.Client, cfg.Auth.GetSessionTTL())
	authService := auth.NewService(userStore, sessionStore, log)

	matcher := matching.NewMatcher(genaiClient, cfg.Matching.MinScore, log)
	comparator := comparison.NewComparator(genaiClient, log)

	requestService := request.NewService(
		catalogStore, requestStore, shortlistStore, matcher, comparator, obs, log)

	server := api.NewServer(authService, requestService, pg, redis, &api.Config{
		Port:         cfg.Server.Port,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
		CORSOrigins:  cfg.Server.CORSOrigins,
		CookieName:   cfg.Auth.CookieName,
		CookieSecure: cfg.Auth.CookieSecure,
		SessionTTL:   cfg.Auth.GetSessionTTL(),
	}, log)

	// --- Metrics endpoint ---
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		zapLog.Info("metrics server starting", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	// --- Run with graceful shutdown ---
	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		zapLog.Fatal("api server failed", zap.Error(err))
	case sig := <-quit:
		zapLog.Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("shutdown failed", zap.Error(err))
		}
	}
}
