package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/chatarchive/internal/config"
	"github.com/MikeSquared-Agency/chatarchive/internal/hermes"
)

func newWatchCmd() *cobra.Command {
	var natsURL string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print progress and parsed events published by running services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if natsURL == "" {
				natsURL = cfg.NatsURL
			}
			if natsURL == "" {
				return errors.New("no NATS server: set NATS_URL or --nats")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := hermes.NewClient(ctx, natsURL, cfg.NatsToken, slog.Default())
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			err = client.Subscribe(hermes.SubjectAll, func(subject string, data []byte) {
				fmt.Fprintf(out, "%s %s\n", subject, data)
			})
			if err != nil {
				return err
			}

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats", "", "NATS server URL (defaults to NATS_URL)")
	return cmd
}
