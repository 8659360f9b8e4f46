// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ledger

import (
	"context"
	"time"
)

// Repository covers the ledger reads and the one post-close mutation.
// Opening and closing loans happens inside circulation transactions.
type Repository interface {
	GetIssue(context context.Context, id string) (*Issue, error)
	FindOpenLoan(context context.Context, bookID string) (*Issue, error)
	ListOpen(context context.Context, patronID string) ([]*Issue, error)
	ListByPatron(context context.Context, patronID string, limit, offset int) ([]*Issue, int, error)
	ListOverdue(context context.Context, asOf time.Time) ([]*Issue, error)
	MarkFinePaid(context context.Context, id string) (*Issue, error)
}
