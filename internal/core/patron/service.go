// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package patron

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/libris/internal/platform/validate"
	"github.com/taibuivan/libris/pkg/uuid"
)

// Standing is a patron together with the live loan count.
type Standing struct {
	*Patron
	OpenLoans int `json:"open_loans"`
	Remaining int `json:"remaining_allowance"`
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (service *Service) ListPatrons(context context.Context, filter Filter, limit, offset int) ([]*Patron, int, error) {
	return service.repo.ListPatrons(context, filter, limit, offset)
}

func (service *Service) GetPatron(context context.Context, id string) (*Patron, error) {
	if !uuid.Valid(id) {
		return nil, ErrPatronNotFound
	}
	return service.repo.GetPatron(context, id)
}

// GetStanding reports how many more books the patron may borrow right now.
func (service *Service) GetStanding(context context.Context, id string) (*Standing, error) {
	patron, err := service.GetPatron(context, id)
	if err != nil {
		return nil, err
	}

	open, err := service.repo.CountOpenLoans(context, id)
	if err != nil {
		return nil, err
	}

	remaining := patron.MaxBooksAllowed - open
	if remaining < 0 || !patron.IsActive {
		remaining = 0
	}

	return &Standing{Patron: patron, OpenLoans: open, Remaining: remaining}, nil
}

/*
RegisterPatron validates and stores a new borrower.

Parameters:
  - context: context.Context
  - patron: *Patron (ID and IsActive are assigned here)

Returns:
  - error: Validation or persistence failures (duplicate patron code is a CONFLICT)
*/
func (service *Service) RegisterPatron(context context.Context, patron *Patron) error {
	normalizePatron(patron)
	if patron.MaxBooksAllowed == 0 {
		patron.MaxBooksAllowed = DefaultMaxBooks
	}

	validator := &validate.Validator{}
	validator.Required(FieldPatronCode, patron.PatronCode).MaxLen(FieldPatronCode, patron.PatronCode, 32)
	validateContact(validator, patron)

	if err := validator.Err(); err != nil {
		return err
	}

	patron.ID = uuid.New()
	patron.IsActive = true

	if err := service.repo.CreatePatron(context, patron); err != nil {
		return err
	}

	service.logger.Info("patron_registered",
		slog.String("patron_id", patron.ID),
		slog.String("patron_code", patron.PatronCode),
	)
	return nil
}

func (service *Service) UpdatePatron(context context.Context, id string, patron *Patron) error {
	if !uuid.Valid(id) {
		return ErrPatronNotFound
	}

	patron.ID = id
	normalizePatron(patron)

	validator := &validate.Validator{}
	validateContact(validator, patron)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.repo.UpdatePatron(context, patron); err != nil {
		return err
	}

	service.logger.Info("patron_updated", slog.String("patron_id", id))
	return nil
}

// Deactivate blocks further issues. Open loans stay open and can be returned.
func (service *Service) Deactivate(context context.Context, id string) (*Patron, error) {
	return service.setActive(context, id, false)
}

func (service *Service) Reactivate(context context.Context, id string) (*Patron, error) {
	return service.setActive(context, id, true)
}

func (service *Service) setActive(context context.Context, id string, active bool) (*Patron, error) {
	if !uuid.Valid(id) {
		return nil, ErrPatronNotFound
	}

	patron, err := service.repo.SetActive(context, id, active)
	if err != nil {
		return nil, err
	}

	if active {
		service.logger.Info("patron_reactivated", slog.String("patron_id", id))
	} else {
		service.logger.Warn("patron_deactivated", slog.String("patron_id", id))
	}
	return patron, nil
}

func normalizePatron(patron *Patron) {
	patron.PatronCode = strings.ToUpper(strings.TrimSpace(patron.PatronCode))
	patron.Name = strings.TrimSpace(patron.Name)
	patron.Email = strings.ToLower(strings.TrimSpace(patron.Email))
	patron.Phone = strings.TrimSpace(patron.Phone)
	patron.Address = strings.TrimSpace(patron.Address)
}

func validateContact(validator *validate.Validator, patron *Patron) {
	validator.Required(FieldName, patron.Name).MaxLen(FieldName, patron.Name, 200)
	validator.Email(FieldEmail, patron.Email).MaxLen(FieldEmail, patron.Email, 254)
	validator.MaxLen(FieldPhone, patron.Phone, 32)
	validator.MaxLen(FieldAddress, patron.Address, 500)
	validator.Range(FieldMaxBooksAllowed, patron.MaxBooksAllowed, 1, 50)
}
