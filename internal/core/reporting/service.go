// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reporting

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/libris/internal/platform/validate"
)

const (
	// DefaultActivityWindow applies when the caller omits the range start.
	DefaultActivityWindow = 30 * 24 * time.Hour

	// MaxActivityWindow bounds a single activity query.
	MaxActivityWindow = 366 * 24 * time.Hour
)

// Service serves report projections, caching the summary when a cache is set.
type Service struct {
	repo   Repository
	cache  Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a reporting [Service]. cache may be nil.
func NewService(repo Repository, cache Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the wall clock used for as-of times and default ranges.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

/*
Summary returns the collection summary, from cache when fresh.

Cache failures are logged and bypassed; the report is then computed from
PostgreSQL directly.
*/
func (service *Service) Summary(context context.Context) (*Summary, error) {
	if service.cache != nil {
		cached, err := service.cache.GetSummary(context)
		if err != nil {
			service.logger.Warn("report_cache_read_failed", slog.String("error", err.Error()))
		} else if cached != nil {
			return cached, nil
		}
	}

	summary, err := service.repo.Summary(context, service.now().UTC())
	if err != nil {
		return nil, err
	}

	if service.cache != nil {
		if err := service.cache.SetSummary(context, summary); err != nil {
			service.logger.Warn("report_cache_write_failed", slog.String("error", err.Error()))
		}
	}

	return summary, nil
}

/*
Activity reports ledger movement in [from, to).

A zero to means now; a zero from means thirty days before to.

Returns:
  - *Activity: counts and fines for the range
  - error: VALIDATION_ERROR for an empty, inverted or oversized range
*/
func (service *Service) Activity(context context.Context, from, to time.Time) (*Activity, error) {
	if to.IsZero() {
		to = service.now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-DefaultActivityWindow)
	}

	validator := &validate.Validator{}
	validator.Custom("from", !from.Before(to), "Must be before 'to'")
	validator.Custom("to", to.Sub(from) > MaxActivityWindow, "Range must not exceed 366 days")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	return service.repo.Activity(context, from.UTC(), to.UTC())
}
