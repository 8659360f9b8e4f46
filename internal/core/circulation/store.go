// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package circulation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taibuivan/libris/internal/core/catalog"
	"github.com/taibuivan/libris/internal/core/ledger"
	"github.com/taibuivan/libris/internal/core/patron"
)

/*
Tx is the set of steps available inside one atomic circulation step.

Every read that a later write depends on goes through a Lock* method, which
holds a per-row exclusive lock until the step ends. Writes are guarded: a
counter or ledger update that finds the row in an unexpected state fails with
a CONFLICT error instead of applying.

Lock order is patron then book for issues, and issue then book for returns.
*/
type Tx interface {
	LockPatron(context context.Context, id string) (*patron.Patron, error)
	CountOpenLoans(context context.Context, patronID string) (int, error)

	LockBook(context context.Context, id string) (*catalog.Book, error)
	DecrementAvailable(context context.Context, bookID string) error
	IncrementAvailable(context context.Context, bookID string) error
	AdjustCopies(context context.Context, bookID string, delta int) error

	LockIssue(context context.Context, id string) (*ledger.Issue, error)
	OpenLoan(context context.Context, issue *ledger.Issue) error
	CloseLoan(context context.Context, id string, returnDate time.Time, fine decimal.Decimal) (*ledger.Issue, error)
}

// Store is the persistence boundary of the engine.
type Store interface {
	// Atomic runs fn as one indivisible unit. If fn returns an error, none of
	// its writes are visible afterwards.
	Atomic(context context.Context, fn func(tx Tx) error) error

	GetBook(context context.Context, id string) (*catalog.Book, error)
	GetPatron(context context.Context, id string) (*patron.Patron, error)
	GetIssue(context context.Context, id string) (*ledger.Issue, error)
	ListOpen(context context.Context, patronID string) ([]*ledger.Issue, error)
	ListOverdue(context context.Context, asOf time.Time) ([]*ledger.Issue, error)
}
