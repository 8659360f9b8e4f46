// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/libris/internal/platform/ctxkey"
	"github.com/taibuivan/libris/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID, or "" when none is set.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context carrying a request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the request-scoped logger, falling back to [slog.Default].
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// # Staff Identity

// WithStaff returns a new context carrying the authenticated staff claims.
func WithStaff(ctx context.Context, claims *sec.AuthClaims) context.Context {
	return context.WithValue(ctx, ctxkey.KeyStaff, claims)
}

// GetStaff retrieves the [*sec.AuthClaims] of the acting staff member, or nil.
func GetStaff(ctx context.Context) *sec.AuthClaims {
	claims, ok := ctx.Value(ctxkey.KeyStaff).(*sec.AuthClaims)
	if !ok {
		return nil
	}
	return claims
}
