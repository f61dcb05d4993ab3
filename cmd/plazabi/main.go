package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plazabi/internal/auth"
	"plazabi/internal/backend"
	"plazabi/internal/cli"
	apphttp "plazabi/internal/http"
	"plazabi/internal/insights"
	"plazabi/internal/records"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	res, err := backend.Open(cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer res.Cleanup()

	store := records.NewStore(res.Blobs, res.Publisher, records.WithFare(cfg.TollPrice))
	if err := store.Load(ctx); err != nil {
		logger.Error("Failed to load record collection", "error", err)
		os.Exit(1)
	}

	authSvc := auth.NewService(res.Blobs)
	if err := authSvc.Load(ctx); err != nil {
		logger.Error("Failed to load accounts", "error", err)
		os.Exit(1)
	}

	var gen insights.Generator
	if cfg.GeminiAPIKey != "" {
		client, err := insights.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("Failed to initialize Gemini client", "error", err)
			os.Exit(1)
		}
		gen = client
		logger.Info("Gemini insights enabled")
	} else {
		logger.Info("Gemini disabled - insights will return the fallback message")
	}

	var db apphttp.Database
	if res.SQLite != nil {
		db = res.SQLite
	}

	srv := apphttp.NewServer(":"+cfg.Port, store, authSvc, insights.NewService(gen), db,
		apphttp.WithLogger(logger),
		apphttp.WithRateLimit(cfg.RateLimitPerMin),
		apphttp.WithTrustedProxies(cfg.TrustedProxies),
	)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting plazabi server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-runCtx.Done()
	logger.Info("Server stopped gracefully")
}
