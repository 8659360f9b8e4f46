// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/taibuivan/libris/internal/core/circulation"
	"github.com/taibuivan/libris/internal/core/ledger"
	"github.com/taibuivan/libris/internal/core/reporting"
	"github.com/taibuivan/libris/internal/platform/constants"
	"github.com/taibuivan/libris/internal/platform/migration"
	pgstore "github.com/taibuivan/libris/internal/platform/postgres"
	requestutil "github.com/taibuivan/libris/internal/platform/request"
	"github.com/taibuivan/libris/internal/platform/sec"
)

var output = jsoniter.ConfigCompatibleWithStandardLibrary

// # Wiring helpers

func (state *app) pool(ctx context.Context) (*pgxpool.Pool, error) {
	return pgstore.NewPool(ctx, state.cfg.DatabaseURL, state.logger)
}

func (state *app) engine(pool *pgxpool.Pool) (*circulation.Engine, error) {
	policy, err := circulation.PolicyFromConfig(state.cfg.Circulation)
	if err != nil {
		return nil, err
	}
	store := circulation.NewPostgresStore(pool, state.cfg.Circulation.LockTimeout)
	return circulation.NewEngine(store, policy, state.logger), nil
}

func printJSON(writer io.Writer, value any) error {
	payload, err := output.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(writer, string(payload))
	return err
}

// parseDay reads a YYYY-MM-DD flag and pins it within the day with anchor.
// Empty yields nil.
func parseDay(raw, flag string, anchor func(time.Time) time.Time) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	day, err := time.Parse(requestutil.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("--%s must be YYYY-MM-DD: %w", flag, err)
	}
	anchored := anchor(day)
	return &anchored, nil
}

// # Commands

func newMigrateCommand(state *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := migration.RunUp(state.cfg.DatabaseURL, state.cfg.MigrationPath, state.logger); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return err
		},
	}
}

func newOverdueCommand(state *app) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List open loans past their due date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := state.pool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			engine, err := state.engine(pool)
			if err != nil {
				return err
			}

			loans, err := engine.Overdue(cmd.Context())
			if err != nil {
				return err
			}
			return printLoans(cmd.OutOrStdout(), loans, time.Now().UTC())
		},
	}
}

func printLoans(writer io.Writer, loans []*ledger.Issue, now time.Time) error {
	table := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "ISSUE\tBOOK\tPATRON\tDUE\tDAYS LATE")
	for _, loan := range loans {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%d\n",
			loan.ID, loan.BookID, loan.PatronID,
			loan.DueDate.Format(requestutil.DateLayout),
			circulation.DaysLate(loan.DueDate, now),
		)
	}
	return table.Flush()
}

func newSummaryCommand(state *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the collection summary, bypassing the cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := state.pool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			service := reporting.NewService(reporting.NewPostgresRepository(pool), nil, state.logger)
			summary, err := service.Summary(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
}

func newIssueCommand(state *app) *cobra.Command {
	var bookID, patronID, staffID, due string

	command := &cobra.Command{
		Use:   "issue",
		Short: "Lend a copy to a patron",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dueDate, err := parseDay(due, "due", circulation.EndOfDay)
			if err != nil {
				return err
			}

			pool, err := state.pool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			engine, err := state.engine(pool)
			if err != nil {
				return err
			}

			issue, err := engine.Issue(cmd.Context(), circulation.IssueRequest{
				BookID: bookID, PatronID: patronID, StaffID: staffID, DueDate: dueDate,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), issue)
		},
	}

	command.Flags().StringVar(&bookID, "book", "", "book id")
	command.Flags().StringVar(&patronID, "patron", "", "patron id")
	command.Flags().StringVar(&staffID, "staff", "circctl", "staff id recorded on the loan")
	command.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD); defaults to the loan period")
	_ = command.MarkFlagRequired("book")
	_ = command.MarkFlagRequired("patron")
	return command
}

func newReturnCommand(state *app) *cobra.Command {
	var issueID, date string

	command := &cobra.Command{
		Use:   "return",
		Short: "Close a loan and print the fine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			returnDate, err := parseDay(date, "date", circulation.StartOfDay)
			if err != nil {
				return err
			}

			pool, err := state.pool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			engine, err := state.engine(pool)
			if err != nil {
				return err
			}

			issue, err := engine.Return(cmd.Context(), circulation.ReturnRequest{IssueID: issueID, ReturnDate: returnDate})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), issue)
		},
	}

	command.Flags().StringVar(&issueID, "issue", "", "issue id")
	command.Flags().StringVar(&date, "date", "", "return date (YYYY-MM-DD); defaults to now")
	_ = command.MarkFlagRequired("issue")
	return command
}

func newTokenCommand(state *app) *cobra.Command {
	var userID, username, role string
	var ttl time.Duration

	command := &cobra.Command{
		Use:   "token",
		Short: "Mint a staff access token (requires JWT_PRIVATE_KEY_PATH)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			staffRole := sec.Role(role)
			switch staffRole {
			case sec.RoleAdmin, sec.RoleLibrarian, sec.RoleVolunteer:
			default:
				return fmt.Errorf("--role must be admin, librarian or volunteer, got %q", role)
			}

			tokens, err := sec.NewTokenService(state.cfg.JWTPrivKeyPath, state.cfg.JWTPubKeyPath, constants.AuthIssuer)
			if err != nil {
				return err
			}

			token, err := tokens.GenerateAccessToken(userID, username, staffRole, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	command.Flags().StringVar(&userID, "user", "", "staff user id")
	command.Flags().StringVar(&username, "name", "", "staff display name")
	command.Flags().StringVar(&role, "role", string(sec.RoleLibrarian), "admin, librarian or volunteer")
	command.Flags().DurationVar(&ttl, "ttl", constants.StaffTokenTTL, "token lifetime")
	_ = command.MarkFlagRequired("user")
	return command
}
