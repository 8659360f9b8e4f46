// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ledger is the append-mostly log of loans.
//
// An issue is opened once and closed once. After closing, only the fine_paid
// flag may change; rows are never deleted.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/taibuivan/libris/pkg/pointer"
)

// Issue is one loan of one copy to one patron.
type Issue struct {
	ID         string          `json:"id"`
	BookID     string          `json:"book_id"`
	PatronID   string          `json:"patron_id"`
	IssuedBy   string          `json:"issued_by"`
	IssueDate  time.Time       `json:"issue_date"`
	DueDate    time.Time       `json:"due_date"`
	ReturnDate *time.Time      `json:"return_date"`
	FineAmount decimal.Decimal `json:"fine_amount"`
	FinePaid   bool            `json:"fine_paid"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// IsOpen reports whether the copy is still out.
func (i *Issue) IsOpen() bool {
	return i.ReturnDate == nil
}

// IsOverdue reports whether the loan is open and past its due date at now.
func (i *Issue) IsOverdue(now time.Time) bool {
	return i.IsOpen() && i.DueDate.Before(now)
}

// Clone returns a deep copy, so callers can hand out issues without sharing
// the ReturnDate pointer.
func (i *Issue) Clone() *Issue {
	clone := *i
	if i.ReturnDate != nil {
		clone.ReturnDate = pointer.To(*i.ReturnDate)
	}
	return &clone
}
