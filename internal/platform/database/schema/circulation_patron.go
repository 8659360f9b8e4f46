// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CirculationPatronTable represents the 'circulation.patron' table
type CirculationPatronTable struct {
	Table           string
	ID              string
	PatronCode      string
	Name            string
	Email           string
	Phone           string
	Address         string
	MaxBooksAllowed string
	IsActive        string
	CreatedAt       string
	UpdatedAt       string
}

// CirculationPatron is the schema definition for circulation.patron
var CirculationPatron = CirculationPatronTable{
	Table:           "circulation.patron",
	ID:              "id",
	PatronCode:      "patroncode",
	Name:            "name",
	Email:           "email",
	Phone:           "phone",
	Address:         "address",
	MaxBooksAllowed: "maxbooksallowed",
	IsActive:        "isactive",
	CreatedAt:       "createdat",
	UpdatedAt:       "updatedat",
}

func (t CirculationPatronTable) Columns() []string {
	return []string{
		t.ID, t.PatronCode, t.Name, t.Email, t.Phone, t.Address,
		t.MaxBooksAllowed, t.IsActive, t.CreatedAt, t.UpdatedAt,
	}
}
