// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CirculationBookTable represents the 'circulation.book' table
type CirculationBookTable struct {
	Table           string
	ID              string
	AccessionNumber string
	Title           string
	Author          string
	Category        string
	CategorySlug    string
	Condition       string
	TotalCopies     string
	AvailableCopies string
	HoldStatus      string
	CreatedAt       string
	UpdatedAt       string
}

// CirculationBook is the schema definition for circulation.book
var CirculationBook = CirculationBookTable{
	Table:           "circulation.book",
	ID:              "id",
	AccessionNumber: "accessionnumber",
	Title:           "title",
	Author:          "author",
	Category:        "category",
	CategorySlug:    "categoryslug",
	Condition:       "condition",
	TotalCopies:     "totalcopies",
	AvailableCopies: "availablecopies",
	HoldStatus:      "holdstatus",
	CreatedAt:       "createdat",
	UpdatedAt:       "updatedat",
}

func (t CirculationBookTable) Columns() []string {
	return []string{
		t.ID, t.AccessionNumber, t.Title, t.Author, t.Category, t.CategorySlug, t.Condition,
		t.TotalCopies, t.AvailableCopies, t.HoldStatus, t.CreatedAt, t.UpdatedAt,
	}
}
