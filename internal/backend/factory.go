package backend

import (
	"fmt"
	"log/slog"

	"plazabi/internal/amqp"
	"plazabi/internal/config"
	"plazabi/internal/storage"
)

// Open assembles the backend described by the configuration.
func Open(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	kind := Kind(cfg.DataBackend)
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid backend kind: %s", cfg.DataBackend)
	}

	switch kind {
	case KindMemory:
		return openMemory(logger), nil
	default:
		return openSQLite(cfg, logger)
	}
}

func openMemory(logger *slog.Logger) *Result {
	logger.Info("Initialized memory backend")
	return &Result{
		Blobs:   storage.NewMemoryStore(),
		Cleanup: func() error { return nil },
	}
}

func openSQLite(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	res := &Result{
		Blobs:   repo,
		SQLite:  repo,
		Cleanup: repo.Close,
	}

	// The broker is optional: without it the dashboard still works, only
	// the records index mirror goes stale.
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			res.Publisher = client
			res.Cleanup = func() error {
				if err := client.Close(); err != nil {
					logger.Warn("Failed closing AMQP client", "error", err)
				}
				return repo.Close()
			}
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	logger.Info("Initialized SQLite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", res.Publisher != nil)
	return res, nil
}
