package main

import (
	"NetPulse/internal/bot/dependencies"
	"NetPulse/internal/bot/server"
	"NetPulse/internal/config"
	"NetPulse/pkg/logger"
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config %s", err)
	}

	log := logger.Setup(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	log.Info("Starting NetPulse bot",
		slog.String("Name", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.Int("port", cfg.Server.Port),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	container, err := dependencies.NewContainer(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to create dependency container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	container.Scheduler.Start()

	if err := registerWebhooks(ctx, container); err != nil {
		log.Error("Failed to register Webex webhooks", "error", err)
		os.Exit(1)
	}

	srv := server.New(&server.Config{
		Port: cfg.Server.Port,
		Mode: cfg.Server.Mode,
	}, container)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped gracefully")
}

// registerWebhooks points Webex at this instance: one webhook for messages,
// one for card submissions.
func registerWebhooks(ctx context.Context, container *dependencies.Container) error {
	base := strings.TrimSuffix(container.Config.Webex.WebhookBaseURL, "/")

	if err := container.Webex.EnsureWebhook(ctx,
		"ThousandEyes Chatbot All", base, "messages", "all",
	); err != nil {
		return err
	}

	return container.Webex.EnsureWebhook(ctx,
		"ThousandEyes Chatbot Card", base+"/card", "attachmentActions", "created",
	)
}
