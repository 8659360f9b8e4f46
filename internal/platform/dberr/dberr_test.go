// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/libris/internal/platform/apperr"
	"github.com/taibuivan/libris/internal/platform/dberr"
)

/*
TestWrap_Classification verifies how driver errors map onto error codes. Only
the contention class may be retried by callers.
*/
func TestWrap_Classification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"no rows", pgx.ErrNoRows, apperr.CodeNotFound},
		{"serialization", &pgconn.PgError{Code: pgerrcode.SerializationFailure}, apperr.CodeConflict},
		{"deadlock", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, apperr.CodeConflict},
		{"lock timeout", &pgconn.PgError{Code: pgerrcode.LockNotAvailable}, apperr.CodeConflict},
		{"unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, apperr.CodeConflict},
		{"admin shutdown", &pgconn.PgError{Code: pgerrcode.AdminShutdown}, apperr.CodeUnavailable},
		{"check violation", &pgconn.PgError{Code: pgerrcode.CheckViolation}, apperr.CodeUnprocessable},
		{"not null", &pgconn.PgError{Code: pgerrcode.NotNullViolation}, apperr.CodeInternal},
		{"connect", &pgconn.ConnectError{}, apperr.CodeUnavailable},
		{"network", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, apperr.CodeUnavailable},
		{"caller deadline", context.DeadlineExceeded, apperr.CodeInternal},
		{"unknown", errors.New("weird"), apperr.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, apperr.HasCode(dberr.Wrap(tt.err, "test"), tt.code))
		})
	}
}

/*
TestWrap_Passthrough verifies nil and existing AppErrors are returned as-is.
*/
func TestWrap_Passthrough(t *testing.T) {
	assert.NoError(t, dberr.Wrap(nil, "test"))

	existing := apperr.NotFound("Book")
	assert.Same(t, existing, dberr.Wrap(existing, "test"))

	contention := dberr.Wrap(&pgconn.PgError{Code: pgerrcode.SerializationFailure}, "test")
	assert.ErrorIs(t, contention, dberr.ErrContention)
	var pgErr *pgconn.PgError
	assert.ErrorAs(t, contention, &pgErr)
}
