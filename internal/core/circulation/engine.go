// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package circulation moves copies between the shelf and patrons.

The [Engine] is the only writer of available_copies and of the loan ledger's
open/closed state. Each Issue or Return is a single atomic step on a [Store]:
the availability counter and the ledger row change together or not at all.

Concurrency:

  - Issues to the same patron serialize on the patron row; issues of the same
    title serialize on the book row. Nothing else is shared, so unrelated
    books and patrons proceed in parallel.
  - Lost races surface as CONFLICT from the store and are retried a bounded
    number of times. Every retry re-reads state from scratch.
*/
package circulation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/taibuivan/libris/internal/core/catalog"
	"github.com/taibuivan/libris/internal/core/ledger"
	"github.com/taibuivan/libris/internal/platform/apperr"
	"github.com/taibuivan/libris/internal/platform/dberr"
	"github.com/taibuivan/libris/internal/platform/validate"
	"github.com/taibuivan/libris/pkg/uuid"
)

// IssueRequest is the input of [Engine.Issue].
type IssueRequest struct {
	BookID   string
	PatronID string
	StaffID  string
	DueDate  *time.Time // nil applies the loan period
}

// ReturnRequest is the input of [Engine.Return].
type ReturnRequest struct {
	IssueID    string
	ReturnDate *time.Time // nil means now
}

// Engine implements the circulation operations.
type Engine struct {
	store  Store
	policy Policy
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes an [Engine].
type Option func(*Engine)

// WithClock replaces the wall clock, e.g. to pin the issue date in tests.
func WithClock(now func() time.Time) Option {
	return func(engine *Engine) {
		engine.now = now
	}
}

func NewEngine(store Store, policy Policy, logger *slog.Logger, options ...Option) *Engine {
	engine := &Engine{
		store:  store,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// Policy returns the lending policy in effect.
func (engine *Engine) Policy() Policy {
	return engine.policy
}

// # Effectful operations

/*
Issue lends one copy of a book to a patron.

Checks, in order: the patron exists and is active, the patron is below their
limit, the book exists and has a copy on the shelf. The counter decrement and
the new ledger row commit together.

Returns:
  - *ledger.Issue: the new open loan
  - error: ErrPatronInactive, ErrLimitExceeded, ErrNoCopiesAvailable,
    ErrNotFound, ErrInvalidDate, ErrConflict, ErrUnavailable
*/
func (engine *Engine) Issue(context context.Context, request IssueRequest) (*ledger.Issue, error) {
	if err := validateIssue(request); err != nil {
		return nil, err
	}

	issueDate := engine.now().UTC()
	dueDate := issueDate.Add(engine.policy.LoanPeriod)
	if request.DueDate != nil {
		if calendarDay(*request.DueDate).Before(calendarDay(issueDate)) {
			return nil, ErrInvalidDate
		}
		dueDate = request.DueDate.UTC()

		// A due time earlier on the issue day would open the loan overdue.
		if dueDate.Before(issueDate) {
			dueDate = EndOfDay(dueDate)
		}
	}

	var opened *ledger.Issue

	err := engine.atomic(context, "issue", func(tx Tx) error {
		patron, err := tx.LockPatron(context, request.PatronID)
		if err != nil {
			return err
		}
		if !patron.IsActive {
			return ErrPatronInactive
		}

		open, err := tx.CountOpenLoans(context, patron.ID)
		if err != nil {
			return err
		}
		if open >= patron.MaxBooksAllowed {
			return ErrLimitExceeded
		}

		book, err := tx.LockBook(context, request.BookID)
		if err != nil {
			return err
		}
		if book.AvailableCopies <= 0 {
			return ErrNoCopiesAvailable
		}

		if err := tx.DecrementAvailable(context, book.ID); err != nil {
			return err
		}

		issue := &ledger.Issue{
			ID:        uuid.New(),
			BookID:    book.ID,
			PatronID:  patron.ID,
			IssuedBy:  request.StaffID,
			IssueDate: issueDate,
			DueDate:   dueDate,
		}
		if err := tx.OpenLoan(context, issue); err != nil {
			return err
		}

		opened = issue
		return nil
	})
	err = checkedDates(err)
	if err != nil {
		engine.logger.Info("loan_issue_rejected",
			slog.String("book_id", request.BookID),
			slog.String("patron_id", request.PatronID),
			slog.String("reason", reason(err)),
		)
		return nil, err
	}

	engine.logger.Info("loan_issued",
		slog.String("issue_id", opened.ID),
		slog.String("book_id", opened.BookID),
		slog.String("patron_id", opened.PatronID),
		slog.String("staff_id", opened.IssuedBy),
		slog.Time("due_date", opened.DueDate),
	)
	return opened, nil
}

/*
Return closes an open loan and puts the copy back on the shelf.

The fine is computed from the due date and the return date before the step
commits; the ledger close and the counter increment commit together.

Returns:
  - *ledger.Issue: the closed loan with its fine, unpaid
  - error: ErrNotFound, ErrAlreadyReturned, ErrInvalidDate, ErrConflict, ErrUnavailable
*/
func (engine *Engine) Return(context context.Context, request ReturnRequest) (*ledger.Issue, error) {
	if !uuid.Valid(request.IssueID) {
		return nil, ErrNotFound
	}

	returnDate := engine.now().UTC()
	if request.ReturnDate != nil {
		returnDate = request.ReturnDate.UTC()
	}

	var closed *ledger.Issue

	err := engine.atomic(context, "return", func(tx Tx) error {
		issue, err := tx.LockIssue(context, request.IssueID)
		if err != nil {
			return err
		}
		if !issue.IsOpen() {
			return ErrAlreadyReturned
		}
		if calendarDay(returnDate).Before(calendarDay(issue.IssueDate)) {
			return ErrInvalidDate
		}

		fine := Fine(issue.DueDate, returnDate, engine.policy.FineDailyRate, engine.policy.FineCap)

		result, err := tx.CloseLoan(context, issue.ID, returnDate, fine)
		if err != nil {
			return err
		}
		if err := tx.IncrementAvailable(context, issue.BookID); err != nil {
			return err
		}

		closed = result
		return nil
	})
	err = checkedDates(err)
	if err != nil {
		engine.logger.Info("loan_return_rejected",
			slog.String("issue_id", request.IssueID),
			slog.String("reason", reason(err)),
		)
		return nil, err
	}

	engine.logger.Info("loan_returned",
		slog.String("issue_id", closed.ID),
		slog.String("book_id", closed.BookID),
		slog.Int("days_late", DaysLate(closed.DueDate, returnDate)),
		slog.String("fine_amount", closed.FineAmount.StringFixed(2)),
	)
	return closed, nil
}

// AddCopies registers newly acquired copies of a title, all on the shelf.
func (engine *Engine) AddCopies(context context.Context, bookID string, count int) (*catalog.Availability, error) {
	if count < 1 || count > maxCopyAdjustment {
		return nil, ErrInvalidQuantity
	}
	return engine.adjustCopies(context, bookID, count)
}

// WithdrawCopies removes copies from circulation. Only copies on the shelf can
// be withdrawn; loaned copies must be returned first.
func (engine *Engine) WithdrawCopies(context context.Context, bookID string, count int) (*catalog.Availability, error) {
	if count < 1 || count > maxCopyAdjustment {
		return nil, ErrInvalidQuantity
	}
	return engine.adjustCopies(context, bookID, -count)
}

func (engine *Engine) adjustCopies(context context.Context, bookID string, delta int) (*catalog.Availability, error) {
	if !uuid.Valid(bookID) {
		return nil, ErrNotFound
	}

	var availability catalog.Availability

	err := engine.atomic(context, "adjust_copies", func(tx Tx) error {
		book, err := tx.LockBook(context, bookID)
		if err != nil {
			return err
		}
		if book.AvailableCopies+delta < 0 {
			return ErrInsufficientCopies
		}

		if err := tx.AdjustCopies(context, book.ID, delta); err != nil {
			return err
		}

		book.TotalCopies += delta
		book.AvailableCopies += delta
		availability = book.Availability()
		return nil
	})
	if err != nil {
		return nil, err
	}

	engine.logger.Info("copies_adjusted",
		slog.String("book_id", bookID),
		slog.Int("delta", delta),
		slog.Int("total_copies", availability.TotalCopies),
	)
	return &availability, nil
}

// # Read queries

// BookAvailability reports the copy counters and derived status of a title.
func (engine *Engine) BookAvailability(context context.Context, bookID string) (*catalog.Availability, error) {
	if !uuid.Valid(bookID) {
		return nil, ErrNotFound
	}

	book, err := engine.store.GetBook(context, bookID)
	if err != nil {
		return nil, err
	}

	availability := book.Availability()
	return &availability, nil
}

// PatronLoans lists a patron's open loans, earliest due first.
func (engine *Engine) PatronLoans(context context.Context, patronID string) ([]*ledger.Issue, error) {
	if !uuid.Valid(patronID) {
		return nil, ErrNotFound
	}

	if _, err := engine.store.GetPatron(context, patronID); err != nil {
		return nil, err
	}
	return engine.store.ListOpen(context, patronID)
}

// Overdue lists open loans whose due date has passed.
func (engine *Engine) Overdue(context context.Context) ([]*ledger.Issue, error) {
	return engine.store.ListOverdue(context, engine.now().UTC())
}

// # Internals

const maxCopyAdjustment = 1000

// atomic runs one step through the store with the policy's retry budget.
func (engine *Engine) atomic(ctx context.Context, operation string, fn func(tx Tx) error) error {
	attempts := engine.policy.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	return RetryOnConflict(ctx,
		func(ctx context.Context) error {
			return engine.store.Atomic(ctx, fn)
		},
		WithMaxAttempts(attempts),
		WithBaseDelay(engine.policy.RetryBaseDelay),
		WithOnRetry(func(attempt int, err error) {
			engine.logger.Warn("circulation_conflict_retry",
				slog.String("operation", operation),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
		}),
	)
}

func validateIssue(request IssueRequest) error {
	validator := &validate.Validator{}
	validator.UUID("book_id", request.BookID)
	validator.UUID("patron_id", request.PatronID)
	validator.Required("staff_id", request.StaffID).MaxLen("staff_id", request.StaffID, 64)
	return validator.Err()
}

// checkedDates reports a CHECK rejection of a loan row as ErrInvalidDate. The
// issue table's CHECKs guard its dates and a non-negative fine, and Fine never
// goes below zero.
func checkedDates(err error) error {
	if errors.Is(err, dberr.ErrCheckViolation) {
		return ErrInvalidDate.WithCause(err)
	}
	return err
}

// reason extracts the machine code of an engine failure for logs.
func reason(err error) string {
	if appError := apperr.As(err); appError != nil {
		return appError.Code
	}
	return err.Error()
}
