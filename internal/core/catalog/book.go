// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package catalog owns book records and their copy inventory.
//
// Metadata (title, author, category, hold status) is edited here. The copy
// counters are not: available_copies moves only inside a circulation
// transaction, through the tx-scoped methods on [PostgresRepository].
package catalog

import "time"

// Status is the circulation state shown for a title.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBorrowed  Status = "borrowed"
	StatusReserved  Status = "reserved"
	StatusLost      Status = "lost"
	StatusDamaged   Status = "damaged"
)

// HoldStatus is a librarian-set marker that explains why no copy is on the shelf.
type HoldStatus string

const (
	HoldReserved HoldStatus = "reserved"
	HoldLost     HoldStatus = "lost"
	HoldDamaged  HoldStatus = "damaged"
)

// Valid reports whether h is one of the known hold markers.
func (h HoldStatus) Valid() bool {
	switch h {
	case HoldReserved, HoldLost, HoldDamaged:
		return true
	}
	return false
}

// Book is one cataloged title together with its copy inventory.
type Book struct {
	ID              string      `json:"id"`
	AccessionNumber string      `json:"accession_number"`
	Title           string      `json:"title"`
	Author          string      `json:"author"`
	Category        string      `json:"category"`
	CategorySlug    string      `json:"category_slug"`
	Condition       string      `json:"condition"`
	TotalCopies     int         `json:"total_copies"`
	AvailableCopies int         `json:"available_copies"`
	HoldStatus      *HoldStatus `json:"hold_status"`
	Status          Status      `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// DeriveStatus computes the displayed status from the counters and hold marker.
//
// A title with a copy on the shelf is always available. Otherwise the hold
// marker wins, and an unmarked title with no copies left is borrowed.
func (b *Book) DeriveStatus() Status {
	if b.AvailableCopies > 0 {
		return StatusAvailable
	}
	if b.HoldStatus != nil {
		return Status(*b.HoldStatus)
	}
	return StatusBorrowed
}

// Availability is the projection returned by the circulation book endpoint.
type Availability struct {
	BookID          string `json:"book_id"`
	AvailableCopies int    `json:"available_copies"`
	TotalCopies     int    `json:"total_copies"`
	Status          Status `json:"status"`
}

// Availability projects b onto its inventory view.
func (b *Book) Availability() Availability {
	return Availability{
		BookID:          b.ID,
		AvailableCopies: b.AvailableCopies,
		TotalCopies:     b.TotalCopies,
		Status:          b.DeriveStatus(),
	}
}

// Filter holds the parameters for a paginated catalog search.
type Filter struct {
	Query         string   // ILIKE match against title, author and accession number
	CategorySlugs []string // any-of match on the category slug
	AvailableOnly bool
}

// Global field names for validation
const (
	FieldAccessionNumber = "accession_number"
	FieldTitle           = "title"
	FieldAuthor          = "author"
	FieldCategory        = "category"
	FieldCondition       = "condition"
	FieldTotalCopies     = "total_copies"
	FieldHoldStatus      = "hold_status"
)
