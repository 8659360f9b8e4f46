// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/taibuivan/libris/internal/platform/apperr"
	"github.com/taibuivan/libris/internal/platform/database"
	"github.com/taibuivan/libris/internal/platform/database/schema"
	"github.com/taibuivan/libris/internal/platform/dberr"
)

var (
	// ErrBookNotFound is returned when no book carries the requested id.
	ErrBookNotFound = apperr.NotFound("Book")

	// ErrInventoryGuard is returned when a guarded counter update matched no
	// row, i.e. the counters moved since the caller read them.
	ErrInventoryGuard = apperr.Conflict("Book inventory changed concurrently")
)

// PostgresRepository implements [Repository] and the tx-scoped inventory
// steps on top of any [database.Querier].
type PostgresRepository struct {
	db database.Querier
}

func NewPostgresRepository(db database.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var bookColumns = strings.Join(schema.CirculationBook.Columns(), ", ")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*Book, error) {
	book := &Book{}
	var hold *string

	err := row.Scan(
		&book.ID, &book.AccessionNumber, &book.Title, &book.Author, &book.Category, &book.CategorySlug,
		&book.Condition, &book.TotalCopies, &book.AvailableCopies, &hold, &book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if hold != nil {
		status := HoldStatus(*hold)
		book.HoldStatus = &status
	}
	book.Status = book.DeriveStatus()
	return book, nil
}

func holdArgument(hold *HoldStatus) *string {
	if hold == nil {
		return nil
	}
	value := string(*hold)
	return &value
}

// wrapBook maps a missing row to [ErrBookNotFound] and defers the rest to dberr.
func wrapBook(err error, action string) error {
	if err == nil {
		return nil
	}
	wrapped := dberr.Wrap(err, action)
	if errors.Is(wrapped, dberr.ErrNotFound) {
		return ErrBookNotFound
	}
	return wrapped
}

// # Metadata

func (repository *PostgresRepository) ListBooks(context context.Context, filter Filter, limit, offset int) ([]*Book, int, error) {
	table := schema.CirculationBook

	var conditions []string
	var args []any

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		placeholder := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, fmt.Sprintf("(%s ILIKE %s OR %s ILIKE %s OR %s ILIKE %s)",
			table.Title, placeholder, table.Author, placeholder, table.AccessionNumber, placeholder))
	}
	if len(filter.CategorySlugs) > 0 {
		args = append(args, filter.CategorySlugs)
		conditions = append(conditions, fmt.Sprintf("%s = ANY($%d)", table.CategorySlug, len(args)))
	}
	if filter.AvailableOnly {
		conditions = append(conditions, fmt.Sprintf("%s > 0", table.AvailableCopies))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s%s`, table.Table, where)
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_books")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s ASC, %s ASC LIMIT $%d OFFSET $%d`,
		bookColumns, table.Table, where, table.Title, table.ID, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_books")
	}
	defer rows.Close()

	books := make([]*Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_book")
		}
		books = append(books, book)
	}

	return books, total, dberr.Wrap(rows.Err(), "iterate_books")
}

func (repository *PostgresRepository) GetBook(context context.Context, id string) (*Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		bookColumns, schema.CirculationBook.Table, schema.CirculationBook.ID)

	book, err := scanBook(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, wrapBook(err, "get_book")
	}
	return book, nil
}

// CreateBook inserts a new title. The initial copies all start on the shelf,
// so available_copies equals total_copies.
func (repository *PostgresRepository) CreateBook(context context.Context, book *Book) error {
	table := schema.CirculationBook
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $9, NOW(), NOW())
		RETURNING %s, %s, %s
	`,
		table.Table, table.ID, table.AccessionNumber, table.Title, table.Author, table.Category, table.CategorySlug,
		table.Condition, table.TotalCopies, table.AvailableCopies, table.HoldStatus, table.CreatedAt, table.UpdatedAt,
		table.AvailableCopies, table.CreatedAt, table.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		book.ID, book.AccessionNumber, book.Title, book.Author, book.Category, book.CategorySlug,
		book.Condition, book.TotalCopies, holdArgument(book.HoldStatus),
	).Scan(&book.AvailableCopies, &book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "create_book")
	}

	book.Status = book.DeriveStatus()
	return nil
}

// UpdateBook rewrites descriptive metadata only. Copy counters are untouched.
func (repository *PostgresRepository) UpdateBook(context context.Context, book *Book) error {
	table := schema.CirculationBook
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = NOW()
		WHERE %s = $1
		RETURNING %s
	`,
		table.Table, table.AccessionNumber, table.Title, table.Author, table.Category, table.CategorySlug,
		table.Condition, table.UpdatedAt, table.ID, bookColumns,
	)

	updated, err := scanBook(repository.db.QueryRow(context, query,
		book.ID, book.AccessionNumber, book.Title, book.Author, book.Category, book.CategorySlug, book.Condition,
	))
	if err != nil {
		return wrapBook(err, "update_book")
	}

	*book = *updated
	return nil
}

func (repository *PostgresRepository) SetHoldStatus(context context.Context, id string, hold *HoldStatus) (*Book, error) {
	table := schema.CirculationBook
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1 RETURNING %s`,
		table.Table, table.HoldStatus, table.UpdatedAt, table.ID, bookColumns)

	book, err := scanBook(repository.db.QueryRow(context, query, id, holdArgument(hold)))
	if err != nil {
		return nil, wrapBook(err, "set_hold_status")
	}
	return book, nil
}

// # Inventory (transaction steps)
//
// These methods are meant to run on a repository bound to a pgx.Tx. Every
// counter update is guarded in its WHERE clause, so a lost race surfaces as
// [ErrInventoryGuard] instead of a silent over- or under-count.

// LockBook reads the book row and holds its row lock until the transaction ends.
func (repository *PostgresRepository) LockBook(context context.Context, id string) (*Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 FOR UPDATE`,
		bookColumns, schema.CirculationBook.Table, schema.CirculationBook.ID)

	book, err := scanBook(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, wrapBook(err, "lock_book")
	}
	return book, nil
}

// DecrementAvailable takes one copy off the shelf. It fails when none is left.
func (repository *PostgresRepository) DecrementAvailable(context context.Context, id string) error {
	table := schema.CirculationBook
	query := fmt.Sprintf(`UPDATE %s SET %s = %s - 1, %s = NOW() WHERE %s = $1 AND %s > 0`,
		table.Table, table.AvailableCopies, table.AvailableCopies, table.UpdatedAt, table.ID, table.AvailableCopies)

	return repository.guardedUpdate(context, "decrement_available", query, id)
}

// IncrementAvailable puts one copy back. It fails when every copy is already shelved.
func (repository *PostgresRepository) IncrementAvailable(context context.Context, id string) error {
	table := schema.CirculationBook
	query := fmt.Sprintf(`UPDATE %s SET %s = %s + 1, %s = NOW() WHERE %s = $1 AND %s < %s`,
		table.Table, table.AvailableCopies, table.AvailableCopies, table.UpdatedAt, table.ID,
		table.AvailableCopies, table.TotalCopies)

	return repository.guardedUpdate(context, "increment_available", query, id)
}

// AdjustCopies moves total and available together by delta. Withdrawals are
// limited to copies currently on the shelf.
func (repository *PostgresRepository) AdjustCopies(context context.Context, id string, delta int) error {
	table := schema.CirculationBook
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = %s + $2, %s = %s + $2, %s = NOW()
		WHERE %s = $1 AND %s + $2 >= 0
	`,
		table.Table, table.TotalCopies, table.TotalCopies, table.AvailableCopies, table.AvailableCopies,
		table.UpdatedAt, table.ID, table.AvailableCopies,
	)

	return repository.guardedUpdate(context, "adjust_copies", query, id, delta)
}

func (repository *PostgresRepository) guardedUpdate(context context.Context, action, query string, args ...any) error {
	result, err := repository.db.Exec(context, query, args...)
	if err != nil {
		return dberr.Wrap(err, action)
	}
	if result.RowsAffected() == 0 {
		return ErrInventoryGuard
	}
	return nil
}
