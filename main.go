package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"github.com/buildware/kbase/internal/app"
	"github.com/buildware/kbase/internal/config"
	"github.com/buildware/kbase/internal/logger"
)

func main() {
	slog.SetDefault(slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil))))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.DB.Close()
	defer deps.Embedder.Close()

	application, err := app.New(cfg, deps.DB, deps.Index, deps.NSQProducer)
	if err != nil {
		slog.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	// Consume sync events to stamp last_sync_at on projects
	consumer, err := nsq.NewConsumer(config.TopicKnowledgeSynced, "backend", nsq.NewConfig())
	if err != nil {
		slog.Error("failed to create NSQ consumer", "error", err)
	} else {
		consumer.AddHandler(application.SyncedConsumer)
		if err := consumer.ConnectToNSQD(cfg.NSQDHost); err != nil {
			slog.Error("failed to connect NSQ consumer", "error", err)
		} else {
			slog.Info("NSQ synced consumer connected")
		}
		defer consumer.Stop()
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
