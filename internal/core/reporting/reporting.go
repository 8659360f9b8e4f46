// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package reporting exposes read-only projections over the catalog and the
// loan ledger for the librarian dashboard.
//
// Nothing here writes. Every Postgres read runs in a READ ONLY transaction, so
// a bug in this package cannot move inventory.
package reporting

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary is a point-in-time view of the collection.
type Summary struct {
	Titles          int             `json:"titles"`
	TotalCopies     int             `json:"total_copies"`
	AvailableCopies int             `json:"available_copies"`
	OpenLoans       int             `json:"open_loans"`
	OverdueLoans    int             `json:"overdue_loans"`
	ActivePatrons   int             `json:"active_patrons"`
	UnpaidFines     decimal.Decimal `json:"unpaid_fines"`
	AsOf            time.Time       `json:"as_of"`
}

// Activity counts ledger movement in the half-open range [From, To).
type Activity struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Opened        int             `json:"opened"`
	Closed        int             `json:"closed"`
	LateReturns   int             `json:"late_returns"`
	FinesAssessed decimal.Decimal `json:"fines_assessed"`
}
