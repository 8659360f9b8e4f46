// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package patron

import "context"

type Repository interface {
	ListPatrons(context context.Context, filter Filter, limit, offset int) ([]*Patron, int, error)
	GetPatron(context context.Context, id string) (*Patron, error)
	CreatePatron(context context.Context, patron *Patron) error
	UpdatePatron(context context.Context, patron *Patron) error
	SetActive(context context.Context, id string, active bool) (*Patron, error)
	CountOpenLoans(context context.Context, patronID string) (int, error)
}
