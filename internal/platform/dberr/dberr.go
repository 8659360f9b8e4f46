// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr classifies low-level PostgreSQL errors into [apperr.AppError] values.
//
// # Classes
//
//   - Missing rows become NOT_FOUND.
//   - Serialization failures, deadlocks and lock timeouts become CONFLICT and are
//     the only class the circulation engine retries.
//   - Unique violations become CONFLICT with a duplicate message.
//   - Check violations become UNPROCESSABLE; the row broke a data rule.
//   - Connection failures become UNAVAILABLE.
//   - Anything else is INTERNAL_ERROR.
package dberr

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/libris/internal/platform/apperr"
)

var (
	// ErrNotFound is returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")

	// ErrContention is returned when the database aborted a statement because
	// another transaction holds or changed the same rows.
	ErrContention = apperr.Conflict("Concurrent update, please retry")

	// ErrDuplicate is returned on a unique-constraint violation.
	ErrDuplicate = apperr.Conflict("Resource already exists")

	// ErrCheckViolation is returned when a row fails a CHECK constraint.
	ErrCheckViolation = apperr.Unprocessable("Value violates a data constraint")
)

// Wrap inspects a database error and converts it into an [apperr.AppError].
// Errors that already are AppErrors pass through untouched. action names the
// failing statement for the debug log.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	if apperr.IsAppError(err) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
			slog.Debug("db_contention", slog.String("action", action), slog.String("sqlstate", pgErr.Code))
			return ErrContention.WithCause(err)
		case pgerrcode.UniqueViolation:
			return ErrDuplicate.WithCause(err)
		case pgerrcode.CheckViolation:
			slog.Debug("db_check_violation", slog.String("action", action), slog.String("constraint", pgErr.ConstraintName))
			return ErrCheckViolation.WithCause(err)
		case pgerrcode.AdminShutdown, pgerrcode.CrashShutdown, pgerrcode.CannotConnectNow,
			pgerrcode.ConnectionException, pgerrcode.ConnectionFailure:
			return apperr.Unavailable(err)
		}
		return apperr.Internal(err)
	}

	if IsUnavailable(err) {
		return apperr.Unavailable(err)
	}

	return apperr.Internal(err)
}

// IsUnavailable reports whether err means the database could not be reached at all.
func IsUnavailable(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	// A caller-side deadline is not an outage.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
