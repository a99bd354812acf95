package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/chatarchive/internal/api"
	"github.com/MikeSquared-Agency/chatarchive/internal/config"
	"github.com/MikeSquared-Agency/chatarchive/internal/hermes"
	"github.com/MikeSquared-Agency/chatarchive/internal/pipeline"
	"github.com/MikeSquared-Agency/chatarchive/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), config.Load())
		},
	}
}

func serve(parent context.Context, cfg config.Config) error {
	slog.Info("chatarchive starting", "port", cfg.Port)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []api.Option{api.WithMaxArchiveBytes(cfg.MaxArchiveBytes())}

	// Database (optional: parsed conversations are kept in memory regardless)
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		opts = append(opts, api.WithSink(db))
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set, conversations will not be persisted")
	}

	// NATS/Hermes (optional)
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			return err
		}
		defer hermesClient.Close()
		opts = append(opts, api.WithPublisher(hermesClient))
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS_URL not set, progress events will not be published")
	}

	p := pipeline.New(cfg.MediaWorkers, slog.Default())
	srv := api.NewServer(cfg.Port, cfg.APIToken, p, slog.Default(), opts...)

	err := srv.Start(ctx)
	slog.Info("chatarchive stopped")
	return err
}
