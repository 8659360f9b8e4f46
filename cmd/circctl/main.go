// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command circctl is the operator CLI for Libris.
//
// It talks to PostgreSQL directly with the same configuration as the API and
// runs the same circulation engine, so desk operations made here obey the
// same limits and atomicity as the HTTP endpoints.
//
//	circctl migrate
//	circctl overdue
//	circctl summary
//	circctl issue --book <id> --patron <id> --staff <id> [--due 2024-01-15]
//	circctl return --issue <id> [--date 2024-01-20]
//	circctl token --user <id> --name <name> --role librarian
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taibuivan/libris/internal/platform/config"
	"github.com/taibuivan/libris/internal/platform/constants"
)

// app carries what every subcommand needs after the root pre-run.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	state := &app{}
	var debug bool

	root := &cobra.Command{
		Use:           "circctl",
		Short:         "Operate the Libris circulation service",
		Version:       constants.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelWarn
			if debug {
				level = slog.LevelDebug
			}
			state.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
				With(slog.String("app", "circctl"))

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			state.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&debug, "debug", false, "log debug output to stderr")

	root.AddCommand(
		newMigrateCommand(state),
		newOverdueCommand(state),
		newSummaryCommand(state),
		newIssueCommand(state),
		newReturnCommand(state),
		newTokenCommand(state),
	)
	return root
}
