// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reporting

import (
	"context"
	"time"
)

// Repository computes report projections from the system of record.
type Repository interface {
	Summary(ctx context.Context, asOf time.Time) (*Summary, error)
	Activity(ctx context.Context, from, to time.Time) (*Activity, error)
}

// Cache holds recently computed summaries. A miss is (nil, nil).
type Cache interface {
	GetSummary(ctx context.Context) (*Summary, error)
	SetSummary(ctx context.Context, summary *Summary) error
}
