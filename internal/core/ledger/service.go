// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ledger

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/libris/internal/platform/apperr"
	"github.com/taibuivan/libris/pkg/uuid"
)

var (
	ErrLoanStillOpen   = apperr.New("LOAN_OPEN", http.StatusUnprocessableEntity, "Loan is still open")
	ErrNoFineDue       = apperr.New("NO_FINE_DUE", http.StatusUnprocessableEntity, "Issue has no fine to settle")
	ErrFineAlreadyPaid = apperr.New("FINE_ALREADY_PAID", http.StatusConflict, "Fine is already settled")
)

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

func (service *Service) GetIssue(context context.Context, id string) (*Issue, error) {
	if !uuid.Valid(id) {
		return nil, ErrIssueNotFound
	}
	return service.repo.GetIssue(context, id)
}

// FindOpenLoan returns the oldest open loan of a title, or nil when none is out.
func (service *Service) FindOpenLoan(context context.Context, bookID string) (*Issue, error) {
	if !uuid.Valid(bookID) {
		return nil, nil
	}
	return service.repo.FindOpenLoan(context, bookID)
}

func (service *Service) ListHistory(context context.Context, patronID string, limit, offset int) ([]*Issue, int, error) {
	if !uuid.Valid(patronID) {
		return []*Issue{}, 0, nil
	}
	return service.repo.ListByPatron(context, patronID, limit, offset)
}

/*
MarkFinePaid records that the fine of a closed issue was settled elsewhere.
Nothing else about the issue changes.

Returns:
  - *Issue: the updated issue
  - error: ErrIssueNotFound, ErrLoanStillOpen, ErrNoFineDue, ErrFineAlreadyPaid
*/
func (service *Service) MarkFinePaid(context context.Context, id string) (*Issue, error) {
	issue, err := service.GetIssue(context, id)
	if err != nil {
		return nil, err
	}

	switch {
	case issue.IsOpen():
		return nil, ErrLoanStillOpen
	case !issue.FineAmount.IsPositive():
		return nil, ErrNoFineDue
	case issue.FinePaid:
		return nil, ErrFineAlreadyPaid
	}

	settled, err := service.repo.MarkFinePaid(context, id)
	if err != nil {
		return nil, err
	}

	service.logger.Info("fine_settled",
		slog.String("issue_id", id),
		slog.String("fine_amount", settled.FineAmount.StringFixed(2)),
	)
	return settled, nil
}
