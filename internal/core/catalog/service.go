// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/libris/internal/platform/validate"
	"github.com/taibuivan/libris/pkg/slice"
	"github.com/taibuivan/libris/pkg/slug"
	"github.com/taibuivan/libris/pkg/uuid"
)

// # Service Layer

// Service orchestrates catalog metadata rules.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a new catalog [Service].
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (service *Service) ListBooks(context context.Context, filter Filter, limit, offset int) ([]*Book, int, error) {
	filter.CategorySlugs = slice.Map(filter.CategorySlugs, slug.From)
	return service.repo.ListBooks(context, filter, limit, offset)
}

/*
GetBook retrieves a single title with its derived status.

Returns:
  - *Book: the book
  - error: ErrBookNotFound when the id is unknown or malformed
*/
func (service *Service) GetBook(context context.Context, id string) (*Book, error) {
	if !uuid.Valid(id) {
		return nil, ErrBookNotFound
	}
	return service.repo.GetBook(context, id)
}

/*
CreateBook registers a new title. Every initial copy starts on the shelf.

Parameters:
  - context: context.Context
  - book: *Book (ID, slug and counters are assigned here)

Returns:
  - error: Validation or persistence failures
*/
func (service *Service) CreateBook(context context.Context, book *Book) error {
	normalizeBook(book)

	validator := &validate.Validator{}
	validateMetadata(validator, book)
	validator.Min(FieldTotalCopies, book.TotalCopies, 0)
	if book.HoldStatus != nil {
		validator.Custom(FieldHoldStatus, !book.HoldStatus.Valid(), "Must be one of reserved, lost, damaged")
	}

	if err := validator.Err(); err != nil {
		return err
	}

	book.ID = uuid.New()
	book.AvailableCopies = book.TotalCopies

	if err := service.repo.CreateBook(context, book); err != nil {
		return err
	}

	service.logger.Info("book_created",
		slog.String("book_id", book.ID),
		slog.String("accession_number", book.AccessionNumber),
		slog.Int("total_copies", book.TotalCopies),
	)
	return nil
}

// UpdateBook rewrites descriptive metadata. Copy counts change only through
// the circulation engine.
func (service *Service) UpdateBook(context context.Context, id string, book *Book) error {
	if !uuid.Valid(id) {
		return ErrBookNotFound
	}

	book.ID = id
	normalizeBook(book)

	validator := &validate.Validator{}
	validateMetadata(validator, book)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.repo.UpdateBook(context, book); err != nil {
		return err
	}

	service.logger.Info("book_updated", slog.String("book_id", book.ID))
	return nil
}

// SetHoldStatus marks (or clears, with nil) the librarian hold on a title.
func (service *Service) SetHoldStatus(context context.Context, id string, hold *HoldStatus) (*Book, error) {
	if !uuid.Valid(id) {
		return nil, ErrBookNotFound
	}

	if hold != nil && !hold.Valid() {
		return nil, validate.RequiredError(FieldHoldStatus, "Must be one of reserved, lost, damaged")
	}

	book, err := service.repo.SetHoldStatus(context, id, hold)
	if err != nil {
		return nil, err
	}

	service.logger.Info("book_hold_changed",
		slog.String("book_id", id),
		slog.String("hold_status", holdLabel(hold)),
	)
	return book, nil
}

func normalizeBook(book *Book) {
	book.AccessionNumber = strings.TrimSpace(book.AccessionNumber)
	book.Title = strings.TrimSpace(book.Title)
	book.Author = strings.TrimSpace(book.Author)
	book.Category = strings.TrimSpace(book.Category)
	book.CategorySlug = slug.From(book.Category)
	if book.Condition = strings.TrimSpace(book.Condition); book.Condition == "" {
		book.Condition = "good"
	}
}

func validateMetadata(validator *validate.Validator, book *Book) {
	validator.Required(FieldAccessionNumber, book.AccessionNumber).MaxLen(FieldAccessionNumber, book.AccessionNumber, 64)
	validator.Required(FieldTitle, book.Title).MaxLen(FieldTitle, book.Title, 300)
	validator.MaxLen(FieldAuthor, book.Author, 200)
	validator.MaxLen(FieldCategory, book.Category, 100)
	validator.MaxLen(FieldCondition, book.Condition, 50)
}

func holdLabel(hold *HoldStatus) string {
	if hold == nil {
		return "none"
	}
	return string(*hold)
}
