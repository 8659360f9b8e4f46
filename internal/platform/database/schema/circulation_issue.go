// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CirculationIssueTable represents the 'circulation.issue' table
type CirculationIssueTable struct {
	Table      string
	ID         string
	BookID     string
	PatronID   string
	IssuedBy   string
	IssueDate  string
	DueDate    string
	ReturnDate string
	FineAmount string
	FinePaid   string
	CreatedAt  string
	UpdatedAt  string
}

// CirculationIssue is the schema definition for circulation.issue
var CirculationIssue = CirculationIssueTable{
	Table:      "circulation.issue",
	ID:         "id",
	BookID:     "bookid",
	PatronID:   "patronid",
	IssuedBy:   "issuedby",
	IssueDate:  "issuedate",
	DueDate:    "duedate",
	ReturnDate: "returndate",
	FineAmount: "fineamount",
	FinePaid:   "finepaid",
	CreatedAt:  "createdat",
	UpdatedAt:  "updatedat",
}

func (t CirculationIssueTable) Columns() []string {
	return []string{
		t.ID, t.BookID, t.PatronID, t.IssuedBy, t.IssueDate, t.DueDate,
		t.ReturnDate, t.FineAmount, t.FinePaid, t.CreatedAt, t.UpdatedAt,
	}
}
