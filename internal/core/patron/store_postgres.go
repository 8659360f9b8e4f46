// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package patron

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

// ErrPatronNotFound is returned when no patron carries the requested id.
var ErrPatronNotFound = apperr.NotFound("Patron")

type PostgresRepository struct {
	db database.Querier
}

func NewPostgresRepository(db database.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var patronColumns = strings.Join(schema.CirculationPatron.Columns(), ", ")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatron(row rowScanner) (*Patron, error) {
	patron := &Patron{}
	err := row.Scan(
		&patron.ID, &patron.PatronCode, &patron.Name, &patron.Email, &patron.Phone, &patron.Address,
		&patron.MaxBooksAllowed, &patron.IsActive, &patron.CreatedAt, &patron.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return patron, nil
}

func wrapPatron(err error, action string) error {
	if err == nil {
		return nil
	}
	wrapped := dberr.Wrap(err, action)
	if errors.Is(wrapped, dberr.ErrNotFound) {
		return ErrPatronNotFound
	}
	return wrapped
}

func (repository *PostgresRepository) ListPatrons(context context.Context, filter Filter, limit, offset int) ([]*Patron, int, error) {
	table := schema.CirculationPatron

	var conditions []string
	var args []any

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		placeholder := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, fmt.Sprintf("(%s ILIKE %s OR %s ILIKE %s OR %s ILIKE %s)",
			table.Name, placeholder, table.PatronCode, placeholder, table.Email, placeholder))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", table.IsActive, len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s%s`, table.Table, where)
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_patrons")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s ASC, %s ASC LIMIT $%d OFFSET $%d`,
		patronColumns, table.Table, where, table.Name, table.ID, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_patrons")
	}
	defer rows.Close()

	patrons := make([]*Patron, 0)
	for rows.Next() {
		patron, err := scanPatron(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_patron")
		}
		patrons = append(patrons, patron)
	}

	return patrons, total, dberr.Wrap(rows.Err(), "iterate_patrons")
}

func (repository *PostgresRepository) GetPatron(context context.Context, id string) (*Patron, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		patronColumns, schema.CirculationPatron.Table, schema.CirculationPatron.ID)

	patron, err := scanPatron(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, wrapPatron(err, "get_patron")
	}
	return patron, nil
}

func (repository *PostgresRepository) CreatePatron(context context.Context, patron *Patron) error {
	table := schema.CirculationPatron
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING %s, %s
	`,
		table.Table, table.ID, table.PatronCode, table.Name, table.Email, table.Phone, table.Address,
		table.MaxBooksAllowed, table.IsActive, table.CreatedAt, table.UpdatedAt,
		table.CreatedAt, table.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		patron.ID, patron.PatronCode, patron.Name, patron.Email, patron.Phone, patron.Address,
		patron.MaxBooksAllowed, patron.IsActive,
	).Scan(&patron.CreatedAt, &patron.UpdatedAt)
	return dberr.Wrap(err, "create_patron")
}

// UpdatePatron rewrites contact details and the loan limit. Lowering the limit
// below the current open-loan count is allowed; it only blocks further issues.
func (repository *PostgresRepository) UpdatePatron(context context.Context, patron *Patron) error {
	table := schema.CirculationPatron
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = NOW()
		WHERE %s = $1
		RETURNING %s
	`,
		table.Table, table.Name, table.Email, table.Phone, table.Address, table.MaxBooksAllowed,
		table.UpdatedAt, table.ID, patronColumns,
	)

	updated, err := scanPatron(repository.db.QueryRow(context, query,
		patron.ID, patron.Name, patron.Email, patron.Phone, patron.Address, patron.MaxBooksAllowed,
	))
	if err != nil {
		return wrapPatron(err, "update_patron")
	}

	*patron = *updated
	return nil
}

func (repository *PostgresRepository) SetActive(context context.Context, id string, active bool) (*Patron, error) {
	table := schema.CirculationPatron
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1 RETURNING %s`,
		table.Table, table.IsActive, table.UpdatedAt, table.ID, patronColumns)

	patron, err := scanPatron(repository.db.QueryRow(context, query, id, active))
	if err != nil {
		return nil, wrapPatron(err, "set_patron_active")
	}
	return patron, nil
}

// CountOpenLoans derives the live loan count from the ledger.
func (repository *PostgresRepository) CountOpenLoans(context context.Context, patronID string) (int, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s = $1 AND %s IS NULL`,
		schema.CirculationIssue.Table, schema.CirculationIssue.PatronID, schema.CirculationIssue.ReturnDate)

	var count int
	if err := repository.db.QueryRow(context, query, patronID).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "count_open_loans")
	}
	return count, nil
}

// LockPatron reads the patron row and holds its row lock until the enclosing
// transaction ends. Concurrent issues to the same patron queue up here, which
// keeps the open-loan count read after it exact.
func (repository *PostgresRepository) LockPatron(context context.Context, id string) (*Patron, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 FOR UPDATE`,
		patronColumns, schema.CirculationPatron.Table, schema.CirculationPatron.ID)

	patron, err := scanPatron(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, wrapPatron(err, "lock_patron")
	}
	return patron, nil
}
