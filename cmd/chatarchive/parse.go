package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/chatarchive/internal/chat"
	"github.com/MikeSquared-Agency/chatarchive/internal/config"
	"github.com/MikeSquared-Agency/chatarchive/internal/pipeline"
)

func newParseCmd() *cobra.Command {
	var (
		me       string
		messages bool
		byDay    bool
		progress bool
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "parse <archive.zip>",
		Short: "Parse an archive and print the conversation as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}

			opts := pipeline.Options{PrimaryUser: me}
			if progress {
				errs := cmd.ErrOrStderr()
				opts.Progress = func(p pipeline.Progress) {
					fmt.Fprintf(errs, "%3d%% %-10s %s\n", p.Percent, p.Stage, p.Message)
				}
			}

			p := pipeline.New(workers, slog.Default())
			conv, err := p.Run(cmd.Context(), data, opts)
			if err != nil {
				return err
			}
			defer conv.Media.Release()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			switch {
			case byDay:
				return enc.Encode(chat.GroupByDay(conv.Messages))
			case messages:
				return enc.Encode(conv)
			default:
				return enc.Encode(conv.Summarize())
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&me, "me", "", "name of the archive owner; overrides the most-messages guess")
	flags.BoolVar(&messages, "messages", false, "print the full conversation including messages")
	flags.BoolVar(&byDay, "by-day", false, "print messages grouped by calendar day")
	flags.BoolVar(&progress, "progress", false, "report progress on stderr")
	flags.IntVar(&workers, "workers", config.Load().MediaWorkers, "media extraction workers")

	return cmd
}
