// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/taibuivan/libris/internal/platform/apperr"
	"github.com/taibuivan/libris/internal/platform/database"
	"github.com/taibuivan/libris/internal/platform/database/schema"
	"github.com/taibuivan/libris/internal/platform/dberr"
)

var (
	// ErrIssueNotFound is returned when no issue carries the requested id.
	ErrIssueNotFound = apperr.NotFound("Issue")

	// ErrLedgerGuard is returned when a guarded ledger update matched no row
	// because the issue changed state since it was read.
	ErrLedgerGuard = apperr.Conflict("Issue changed concurrently")
)

type PostgresRepository struct {
	db database.Querier
}

func NewPostgresRepository(db database.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var issueColumns = strings.Join(schema.CirculationIssue.Columns(), ", ")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*Issue, error) {
	issue := &Issue{}
	err := row.Scan(
		&issue.ID, &issue.BookID, &issue.PatronID, &issue.IssuedBy, &issue.IssueDate, &issue.DueDate,
		&issue.ReturnDate, &issue.FineAmount, &issue.FinePaid, &issue.CreatedAt, &issue.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func collectIssues(rows pgx.Rows, action string) ([]*Issue, error) {
	defer rows.Close()

	issues := make([]*Issue, 0)
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, dberr.Wrap(err, action)
		}
		issues = append(issues, issue)
	}
	return issues, dberr.Wrap(rows.Err(), action)
}

func wrapIssue(err error, action string) error {
	if err == nil {
		return nil
	}
	wrapped := dberr.Wrap(err, action)
	if errors.Is(wrapped, dberr.ErrNotFound) {
		return ErrIssueNotFound
	}
	return wrapped
}

// # Reads

func (repository *PostgresRepository) GetIssue(context context.Context, id string) (*Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		issueColumns, schema.CirculationIssue.Table, schema.CirculationIssue.ID)

	issue, err := scanIssue(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, wrapIssue(err, "get_issue")
	}
	return issue, nil
}

// FindOpenLoan returns the oldest open loan of a title, or nil when every copy
// is on the shelf.
func (repository *PostgresRepository) FindOpenLoan(context context.Context, bookID string) (*Issue, error) {
	table := schema.CirculationIssue
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL ORDER BY %s ASC LIMIT 1`,
		issueColumns, table.Table, table.BookID, table.ReturnDate, table.IssueDate)

	issue, err := scanIssue(repository.db.QueryRow(context, query, bookID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.Wrap(err, "find_open_loan")
	}
	return issue, nil
}

func (repository *PostgresRepository) ListOpen(context context.Context, patronID string) ([]*Issue, error) {
	table := schema.CirculationIssue
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL ORDER BY %s ASC, %s ASC`,
		issueColumns, table.Table, table.PatronID, table.ReturnDate, table.DueDate, table.ID)

	rows, err := repository.db.Query(context, query, patronID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_open_loans")
	}
	return collectIssues(rows, "scan_open_loan")
}

// ListByPatron pages through a patron's full borrowing history, newest first.
func (repository *PostgresRepository) ListByPatron(context context.Context, patronID string, limit, offset int) ([]*Issue, int, error) {
	table := schema.CirculationIssue

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s = $1`, table.Table, table.PatronID)
	if err := repository.db.QueryRow(context, countQuery, patronID).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_patron_history")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC, %s DESC LIMIT $2 OFFSET $3`,
		issueColumns, table.Table, table.PatronID, table.IssueDate, table.ID)

	rows, err := repository.db.Query(context, query, patronID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_patron_history")
	}

	issues, err := collectIssues(rows, "scan_patron_history")
	return issues, total, err
}

// ListOverdue returns open loans whose due date is strictly before asOf,
// most overdue first.
func (repository *PostgresRepository) ListOverdue(context context.Context, asOf time.Time) ([]*Issue, error) {
	table := schema.CirculationIssue
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s IS NULL AND %s < $1 ORDER BY %s ASC, %s ASC`,
		issueColumns, table.Table, table.ReturnDate, table.DueDate, table.DueDate, table.ID)

	rows, err := repository.db.Query(context, query, asOf)
	if err != nil {
		return nil, dberr.Wrap(err, "list_overdue")
	}
	return collectIssues(rows, "scan_overdue")
}

// MarkFinePaid records external settlement of a closed issue's fine.
func (repository *PostgresRepository) MarkFinePaid(context context.Context, id string) (*Issue, error) {
	table := schema.CirculationIssue
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = TRUE, %s = NOW()
		WHERE %s = $1 AND %s IS NOT NULL AND %s > 0 AND %s = FALSE
		RETURNING %s
	`,
		table.Table, table.FinePaid, table.UpdatedAt,
		table.ID, table.ReturnDate, table.FineAmount, table.FinePaid,
		issueColumns,
	)

	issue, err := scanIssue(repository.db.QueryRow(context, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLedgerGuard
	}
	if err != nil {
		return nil, dberr.Wrap(err, "mark_fine_paid")
	}
	return issue, nil
}

// # Loan lifecycle (transaction steps)

// LockIssue reads the issue row and holds its row lock until the transaction ends.
func (repository *PostgresRepository) LockIssue(context context.Context, id string) (*Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 FOR UPDATE`,
		issueColumns, schema.CirculationIssue.Table, schema.CirculationIssue.ID)

	issue, err := scanIssue(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, wrapIssue(err, "lock_issue")
	}
	return issue, nil
}

// OpenLoan appends a new open issue. The caller assigns ID and dates.
func (repository *PostgresRepository) OpenLoan(context context.Context, issue *Issue) error {
	table := schema.CirculationIssue
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, 0, FALSE, NOW(), NOW())
		RETURNING %s, %s, %s
	`,
		table.Table, table.ID, table.BookID, table.PatronID, table.IssuedBy, table.IssueDate, table.DueDate,
		table.FineAmount, table.FinePaid, table.CreatedAt, table.UpdatedAt,
		table.FineAmount, table.CreatedAt, table.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		issue.ID, issue.BookID, issue.PatronID, issue.IssuedBy, issue.IssueDate, issue.DueDate,
	).Scan(&issue.FineAmount, &issue.CreatedAt, &issue.UpdatedAt)
	return dberr.Wrap(err, "open_loan")
}

// CloseLoan stamps the return date and fine. It only matches open issues, so
// a second close of the same issue fails with [ErrLedgerGuard].
func (repository *PostgresRepository) CloseLoan(context context.Context, id string, returnDate time.Time, fine decimal.Decimal) (*Issue, error) {
	table := schema.CirculationIssue
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = FALSE, %s = NOW()
		WHERE %s = $1 AND %s IS NULL
		RETURNING %s
	`,
		table.Table, table.ReturnDate, table.FineAmount, table.FinePaid, table.UpdatedAt,
		table.ID, table.ReturnDate,
		issueColumns,
	)

	issue, err := scanIssue(repository.db.QueryRow(context, query, id, returnDate, fine))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLedgerGuard
	}
	if err != nil {
		return nil, dberr.Wrap(err, "close_loan")
	}
	return issue, nil
}
