// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package patron owns borrower records and their loan limits.
//
// Patrons are deactivated, never deleted, so historical issues always resolve.
// The number of open loans is not stored here; it is counted from the ledger
// on every read.
package patron

import "time"

// DefaultMaxBooks applies when a patron is registered without an explicit limit.
const DefaultMaxBooks = 3

// Patron is a registered borrower.
type Patron struct {
	ID              string    `json:"id"`
	PatronCode      string    `json:"patron_code"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Address         string    `json:"address"`
	MaxBooksAllowed int       `json:"max_books_allowed"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Filter holds the parameters for a paginated patron search.
type Filter struct {
	Query  string // ILIKE match against name, code and email
	Active *bool
}

// Global field names for validation
const (
	FieldPatronCode      = "patron_code"
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldAddress         = "address"
	FieldMaxBooksAllowed = "max_books_allowed"
)
