// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import "context"

// Repository is the metadata-side persistence contract used by [Service].
type Repository interface {
	ListBooks(context context.Context, filter Filter, limit, offset int) ([]*Book, int, error)
	GetBook(context context.Context, id string) (*Book, error)
	CreateBook(context context.Context, book *Book) error
	UpdateBook(context context.Context, book *Book) error
	SetHoldStatus(context context.Context, id string, hold *HoldStatus) (*Book, error)
}
