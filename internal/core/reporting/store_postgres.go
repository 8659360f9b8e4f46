// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reporting

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/libris/internal/platform/apperr"
	"github.com/taibuivan/libris/internal/platform/database/schema"
	"github.com/taibuivan/libris/internal/platform/dberr"
)

const dialectPostgres = "postgres"

// ErrBuildingQuery is returned when goqu rejects a report statement.
var ErrBuildingQuery = errors.New("reporting: failed to build query")

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// readOnly runs fn in a REPEATABLE READ, READ ONLY transaction so that every
// count in one report comes from the same snapshot.
func (repository *PostgresRepository) readOnly(context context.Context, action string, fn func(pgx.Tx) error) error {
	transaction, err := repository.pool.BeginTx(context, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return dberr.Wrap(err, action+"_begin")
	}
	defer transaction.Rollback(context)

	if err := fn(transaction); err != nil {
		return err
	}
	return dberr.Wrap(transaction.Commit(context), action+"_commit")
}

/*
Summary counts titles, copies, loans and unpaid fines as of asOf.

Returns:
  - *Summary: the projection
  - error: dberr-classified failures
*/
func (repository *PostgresRepository) Summary(context context.Context, asOf time.Time) (*Summary, error) {
	booksQuery, booksArgs, err := buildInventoryQuery()
	if err != nil {
		return nil, err
	}
	loansQuery, loansArgs, err := buildLoansQuery(asOf)
	if err != nil {
		return nil, err
	}
	patronsQuery, patronsArgs, err := buildActivePatronsQuery()
	if err != nil {
		return nil, err
	}

	summary := &Summary{AsOf: asOf}

	err = repository.readOnly(context, "report_summary", func(transaction pgx.Tx) error {
		if err := transaction.QueryRow(context, booksQuery, booksArgs...).
			Scan(&summary.Titles, &summary.TotalCopies, &summary.AvailableCopies); err != nil {
			return dberr.Wrap(err, "report_inventory")
		}
		if err := transaction.QueryRow(context, loansQuery, loansArgs...).
			Scan(&summary.OpenLoans, &summary.OverdueLoans, &summary.UnpaidFines); err != nil {
			return dberr.Wrap(err, "report_loans")
		}
		if err := transaction.QueryRow(context, patronsQuery, patronsArgs...).
			Scan(&summary.ActivePatrons); err != nil {
			return dberr.Wrap(err, "report_patrons")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// Activity counts loans opened and closed in [from, to) and the fines assessed
// on the closed ones.
func (repository *PostgresRepository) Activity(context context.Context, from, to time.Time) (*Activity, error) {
	query, args, err := buildActivityQuery(from, to)
	if err != nil {
		return nil, err
	}

	activity := &Activity{From: from, To: to}

	err = repository.readOnly(context, "report_activity", func(transaction pgx.Tx) error {
		return dberr.Wrap(transaction.QueryRow(context, query, args...).
			Scan(&activity.Opened, &activity.Closed, &activity.LateReturns, &activity.FinesAssessed), "report_activity")
	})
	if err != nil {
		return nil, err
	}

	return activity, nil
}

// # Query builders

func buildInventoryQuery() (string, []any, error) {
	table := schema.CirculationBook

	return toSQL(goqu.Dialect(dialectPostgres).
		From(goqu.I(table.Table)).
		Select(
			goqu.COUNT(goqu.Star()),
			goqu.COALESCE(goqu.SUM(goqu.C(table.TotalCopies)), literalZero),
			goqu.COALESCE(goqu.SUM(goqu.C(table.AvailableCopies)), literalZero),
		))
}

func buildLoansQuery(asOf time.Time) (string, []any, error) {
	table := schema.CirculationIssue
	open := goqu.C(table.ReturnDate).IsNull()

	return toSQL(goqu.Dialect(dialectPostgres).
		From(goqu.I(table.Table)).
		Select(
			countWhen(open),
			countWhen(goqu.And(open, goqu.C(table.DueDate).Lt(asOf))),
			sumWhen(goqu.And(goqu.C(table.ReturnDate).IsNotNull(), goqu.C(table.FinePaid).IsFalse()), goqu.C(table.FineAmount)),
		))
}

func buildActivePatronsQuery() (string, []any, error) {
	table := schema.CirculationPatron

	return toSQL(goqu.Dialect(dialectPostgres).
		From(goqu.I(table.Table)).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C(table.IsActive).IsTrue()))
}

func buildActivityQuery(from, to time.Time) (string, []any, error) {
	table := schema.CirculationIssue
	opened := within(table.IssueDate, from, to)
	closed := within(table.ReturnDate, from, to)

	return toSQL(goqu.Dialect(dialectPostgres).
		From(goqu.I(table.Table)).
		Select(
			countWhen(opened),
			countWhen(closed),
			countWhen(goqu.And(closed, goqu.C(table.FineAmount).Gt(0))),
			sumWhen(closed, goqu.C(table.FineAmount)),
		).
		Where(goqu.Or(opened, closed)))
}

func within(column string, from, to time.Time) exp.ExpressionList {
	return goqu.And(goqu.C(column).Gte(from), goqu.C(column).Lt(to))
}

// CASE branches keep constants literal; bound parameters there resolve to text.
var (
	literalZero = goqu.L("0")
	literalOne  = goqu.L("1")
)

func countWhen(condition exp.Expression) exp.SQLFunctionExpression {
	return sumWhen(condition, literalOne)
}

func sumWhen(condition exp.Expression, value any) exp.SQLFunctionExpression {
	return goqu.COALESCE(goqu.SUM(goqu.Case().When(condition, value).Else(literalZero)), literalZero)
}

// toSQL renders a prepared statement with $n placeholders.
func toSQL(dataset *goqu.SelectDataset) (string, []any, error) {
	query, args, err := dataset.Prepared(true).ToSQL()
	if err != nil {
		return "", nil, apperr.Internal(errors.Join(ErrBuildingQuery, err))
	}
	return query, args, nil
}
