// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package circulation

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/taibuivan/libris/internal/core/catalog"
	"github.com/taibuivan/libris/internal/core/ledger"
	"github.com/taibuivan/libris/internal/core/patron"
	"github.com/taibuivan/libris/internal/platform/database"
	"github.com/taibuivan/libris/internal/platform/dberr"
)

/*
PostgresStore runs atomic steps as READ COMMITTED transactions.

Row locks come from SELECT ... FOR UPDATE in the Lock* steps; counter updates
re-check their guard in the WHERE clause. A lock wait longer than lockTimeout,
a deadlock, or a serialization failure aborts the transaction and dberr maps it
to CONFLICT, which the engine retries.
*/
type PostgresStore struct {
	pool        *pgxpool.Pool
	reader      *postgresTx
	lockTimeout time.Duration
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Tx    = (*postgresTx)(nil)
)

func NewPostgresStore(pool *pgxpool.Pool, lockTimeout time.Duration) *PostgresStore {
	return &PostgresStore{
		pool:        pool,
		reader:      bindRepositories(pool),
		lockTimeout: lockTimeout,
	}
}

/*
Atomic opens a transaction, runs fn against it and commits.

Parameters:
  - context: request context; cancelling it rolls the transaction back
  - fn: the atomic step

Returns:
  - error: fn's error unchanged, or a dberr-classified begin/commit failure
*/
func (store *PostgresStore) Atomic(context context.Context, fn func(tx Tx) error) error {

	// Establish Transactional Boundary
	transaction, err := store.pool.BeginTx(context, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return dberr.Wrap(err, "begin_circulation_tx")
	}
	defer transaction.Rollback(context)

	if store.lockTimeout > 0 {
		statement := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", store.lockTimeout.Milliseconds())
		if _, err := transaction.Exec(context, statement); err != nil {
			return dberr.Wrap(err, "set_lock_timeout")
		}
	}

	if err := fn(bindRepositories(transaction)); err != nil {
		return err
	}

	// Persist Atomic Changeset
	return dberr.Wrap(transaction.Commit(context), "commit_circulation_tx")
}

func (store *PostgresStore) GetBook(context context.Context, id string) (*catalog.Book, error) {
	return store.reader.books.GetBook(context, id)
}

func (store *PostgresStore) GetPatron(context context.Context, id string) (*patron.Patron, error) {
	return store.reader.patrons.GetPatron(context, id)
}

func (store *PostgresStore) GetIssue(context context.Context, id string) (*ledger.Issue, error) {
	return store.reader.loans.GetIssue(context, id)
}

func (store *PostgresStore) ListOpen(context context.Context, patronID string) ([]*ledger.Issue, error) {
	return store.reader.loans.ListOpen(context, patronID)
}

func (store *PostgresStore) ListOverdue(context context.Context, asOf time.Time) ([]*ledger.Issue, error) {
	return store.reader.loans.ListOverdue(context, asOf)
}

// # Transaction binding

// postgresTx routes each step to the leaf repository that owns the table,
// all sharing one pgx transaction.
type postgresTx struct {
	books   *catalog.PostgresRepository
	patrons *patron.PostgresRepository
	loans   *ledger.PostgresRepository
}

func bindRepositories(db database.Querier) *postgresTx {
	return &postgresTx{
		books:   catalog.NewPostgresRepository(db),
		patrons: patron.NewPostgresRepository(db),
		loans:   ledger.NewPostgresRepository(db),
	}
}

func (tx *postgresTx) LockPatron(context context.Context, id string) (*patron.Patron, error) {
	return tx.patrons.LockPatron(context, id)
}

func (tx *postgresTx) CountOpenLoans(context context.Context, patronID string) (int, error) {
	return tx.patrons.CountOpenLoans(context, patronID)
}

func (tx *postgresTx) LockBook(context context.Context, id string) (*catalog.Book, error) {
	return tx.books.LockBook(context, id)
}

func (tx *postgresTx) DecrementAvailable(context context.Context, bookID string) error {
	return tx.books.DecrementAvailable(context, bookID)
}

func (tx *postgresTx) IncrementAvailable(context context.Context, bookID string) error {
	return tx.books.IncrementAvailable(context, bookID)
}

func (tx *postgresTx) AdjustCopies(context context.Context, bookID string, delta int) error {
	return tx.books.AdjustCopies(context, bookID, delta)
}

func (tx *postgresTx) LockIssue(context context.Context, id string) (*ledger.Issue, error) {
	return tx.loans.LockIssue(context, id)
}

func (tx *postgresTx) OpenLoan(context context.Context, issue *ledger.Issue) error {
	return tx.loans.OpenLoan(context, issue)
}

func (tx *postgresTx) CloseLoan(context context.Context, id string, returnDate time.Time, fine decimal.Decimal) (*ledger.Issue, error) {
	return tx.loans.CloseLoan(context, id, returnDate, fine)
}
