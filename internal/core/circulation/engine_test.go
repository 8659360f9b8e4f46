// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package circulation_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/libris/internal/core/catalog"
	"github.com/taibuivan/libris/internal/core/circulation"
	"github.com/taibuivan/libris/internal/core/circulation/memory"
	"github.com/taibuivan/libris/internal/core/ledger"
	"github.com/taibuivan/libris/internal/core/patron"
	"github.com/taibuivan/libris/internal/platform/apperr"
	"github.com/taibuivan/libris/internal/platform/dberr"
	"github.com/taibuivan/libris/pkg/uuid"
)

// # Fixture

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (clock *testClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *testClock) Set(now time.Time) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = now
}

type fixture struct {
	store  *memory.Store
	engine *circulation.Engine
	clock  *testClock
}

func newFixture(t *testing.T, tune ...func(*circulation.Policy)) *fixture {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}

	policy := circulation.DefaultPolicy()
	policy.RetryBaseDelay = time.Millisecond
	for _, apply := range tune {
		apply(&policy)
	}

	store := memory.NewStore(memory.WithClock(clock.Now))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		store:  store,
		engine: circulation.NewEngine(store, policy, logger, circulation.WithClock(clock.Now)),
		clock:  clock,
	}
}

func (f *fixture) addBook(copies int) string {
	id := uuid.New()
	f.store.PutBook(catalog.Book{
		ID:              id,
		AccessionNumber: "ACC-" + id[len(id)-8:],
		Title:           "The Dispossessed",
		Author:          "Ursula K. Le Guin",
		Category:        "Fiction",
		CategorySlug:    "fiction",
		Condition:       "good",
		TotalCopies:     copies,
		AvailableCopies: copies,
	})
	return id
}

func (f *fixture) addPatron(maxBooks int, active bool) string {
	id := uuid.New()
	f.store.PutPatron(patron.Patron{
		ID:              id,
		PatronCode:      "P-" + id[len(id)-6:],
		Name:            "Shevek",
		Email:           "shevek@anarres.example",
		MaxBooksAllowed: maxBooks,
		IsActive:        active,
	})
	return id
}

func (f *fixture) issue(t *testing.T, bookID, patronID string) *ledger.Issue {
	t.Helper()
	issue, err := f.engine.Issue(context.Background(), circulation.IssueRequest{
		BookID: bookID, PatronID: patronID, StaffID: "staff-1",
	})
	require.NoError(t, err)
	return issue
}

// assertConserved checks available + open loans == total for every book.
func assertConserved(t *testing.T, snapshot memory.Snapshot) {
	t.Helper()

	open := make(map[string]int)
	for _, issue := range snapshot.Issues {
		if issue.IsOpen() {
			open[issue.BookID]++
		}
	}
	for id, book := range snapshot.Books {
		assert.GreaterOrEqual(t, book.AvailableCopies, 0)
		assert.LessOrEqual(t, book.AvailableCopies, book.TotalCopies)
		assert.Equal(t, book.TotalCopies, book.AvailableCopies+open[id], "book %s", id)
	}
}

// # Issue

/*
TestEngine_Issue_DefaultDueDate verifies the happy path: one copy leaves the
shelf, one open loan appears, and the loan period sets the due date.
*/
func TestEngine_Issue_DefaultDueDate(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(2)
	patronID := f.addPatron(3, true)

	issue := f.issue(t, bookID, patronID)

	assert.True(t, uuid.Valid(issue.ID))
	assert.Equal(t, bookID, issue.BookID)
	assert.Equal(t, patronID, issue.PatronID)
	assert.Equal(t, "staff-1", issue.IssuedBy)
	assert.Equal(t, f.clock.Now(), issue.IssueDate)
	assert.Equal(t, f.clock.Now().Add(14*24*time.Hour), issue.DueDate)
	assert.True(t, issue.IsOpen())
	assert.True(t, issue.FineAmount.IsZero())

	snapshot := f.store.Snapshot()
	assert.Equal(t, 1, snapshot.Books[bookID].AvailableCopies)
	assert.Len(t, snapshot.Issues, 1)
	assertConserved(t, snapshot)
}

/*
TestEngine_Issue_ExplicitDueDate verifies that a supplied due date wins and
that one earlier than the issue day is rejected without side effects.
*/
func TestEngine_Issue_ExplicitDueDate(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(1)
	patronID := f.addPatron(3, true)

	t.Run("before issue day", func(t *testing.T) {
		before := f.store.Snapshot()
		due := date(2023, 12, 31)

		_, err := f.engine.Issue(context.Background(), circulation.IssueRequest{
			BookID: bookID, PatronID: patronID, StaffID: "staff-1", DueDate: &due,
		})

		assert.ErrorIs(t, err, circulation.ErrInvalidDate)
		assert.Equal(t, before, f.store.Snapshot())
	})

	t.Run("same day, before the issue time", func(t *testing.T) {
		due := date(2024, 1, 1)

		issue, err := f.engine.Issue(context.Background(), circulation.IssueRequest{
			BookID: bookID, PatronID: patronID, StaffID: "staff-1", DueDate: &due,
		})

		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC), issue.DueDate)
		assert.False(t, issue.IsOverdue(f.clock.Now()))

		overdue, err := f.engine.Overdue(context.Background())
		require.NoError(t, err)
		assert.Empty(t, overdue)

		_, err = f.engine.Return(context.Background(), circulation.ReturnRequest{IssueID: issue.ID})
		require.NoError(t, err)
	})

	t.Run("same day, after the issue time", func(t *testing.T) {
		due := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)

		issue, err := f.engine.Issue(context.Background(), circulation.IssueRequest{
			BookID: bookID, PatronID: patronID, StaffID: "staff-1", DueDate: &due,
		})

		require.NoError(t, err)
		assert.Equal(t, due, issue.DueDate)
	})
}

/*
TestEngine_Issue_Rejections covers the deterministic policy failures. Each one
must leave the stores exactly as they were.
*/
func TestEngine_Issue_Rejections(t *testing.T) {
	f := newFixture(t)
	shelf := f.addBook(5)
	empty := f.addBook(0)
	inactive := f.addPatron(3, false)
	active := f.addPatron(3, true)

	tests := []struct {
		name     string
		request  circulation.IssueRequest
		expected error
	}{
		{"inactive patron", circulation.IssueRequest{BookID: shelf, PatronID: inactive, StaffID: "s"}, circulation.ErrPatronInactive},
		{"no copies", circulation.IssueRequest{BookID: empty, PatronID: active, StaffID: "s"}, circulation.ErrNoCopiesAvailable},
		{"unknown book", circulation.IssueRequest{BookID: uuid.New(), PatronID: active, StaffID: "s"}, circulation.ErrNotFound},
		{"unknown patron", circulation.IssueRequest{BookID: shelf, PatronID: uuid.New(), StaffID: "s"}, circulation.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.store.Snapshot()

			issue, err := f.engine.Issue(context.Background(), tt.request)

			assert.Nil(t, issue)
			assert.ErrorIs(t, err, tt.expected)
			assert.Equal(t, before, f.store.Snapshot())
		})
	}
}

/*
TestEngine_Issue_MalformedInput verifies that bad identifiers and a missing
staff id are rejected before any store access.
*/
func TestEngine_Issue_MalformedInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Issue(context.Background(), circulation.IssueRequest{
		BookID: "not-a-uuid", PatronID: uuid.New(),
	})

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, apperr.CodeValidation, appError.Code)

	fields := make([]string, 0, len(appError.Details))
	for _, detail := range appError.Details {
		fields = append(fields, detail.Field)
	}
	assert.ElementsMatch(t, []string{"book_id", "staff_id"}, fields)
}

/*
TestEngine_Issue_LimitExceeded is the borrowing-limit scenario: a patron at
max_books_allowed is refused and nothing changes.
*/
func TestEngine_Issue_LimitExceeded(t *testing.T) {
	f := newFixture(t)
	patronID := f.addPatron(2, true)
	first, second, third := f.addBook(1), f.addBook(1), f.addBook(1)

	f.issue(t, first, patronID)
	f.issue(t, second, patronID)
	before := f.store.Snapshot()

	_, err := f.engine.Issue(context.Background(), circulation.IssueRequest{
		BookID: third, PatronID: patronID, StaffID: "staff-1",
	})

	assert.ErrorIs(t, err, circulation.ErrLimitExceeded)
	assert.Equal(t, before, f.store.Snapshot())
	assert.Equal(t, 1, before.Books[third].AvailableCopies)
}

/*
TestEngine_Issue_LastCopyRace is the last-copy scenario: many patrons race for
a single copy and exactly one wins. Every loser sees NO_COPIES_AVAILABLE.
*/
func TestEngine_Issue_LastCopyRace(t *testing.T) {
	const contenders = 12

	f := newFixture(t)
	bookID := f.addBook(1)

	patrons := make([]string, contenders)
	for i := range patrons {
		patrons[i] = f.addPatron(3, true)
	}

	errs := make([]error, contenders)
	start := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			<-start
			_, errs[index] = f.engine.Issue(context.Background(), circulation.IssueRequest{
				BookID: bookID, PatronID: patrons[index], StaffID: "staff-1",
			})
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, circulation.ErrNoCopiesAvailable)
	}
	assert.Equal(t, 1, winners)

	snapshot := f.store.Snapshot()
	assert.Equal(t, 0, snapshot.Books[bookID].AvailableCopies)
	assert.Len(t, snapshot.Issues, 1)
	assertConserved(t, snapshot)
}

/*
TestEngine_Issue_ConcurrentLimit verifies that concurrent issues to the same
patron never push them past their limit.
*/
func TestEngine_Issue_ConcurrentLimit(t *testing.T) {
	const attempts = 6

	f := newFixture(t)
	patronID := f.addPatron(2, true)

	books := make([]string, attempts)
	for i := range books {
		books[i] = f.addBook(1)
	}

	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			_, errs[index] = f.engine.Issue(context.Background(), circulation.IssueRequest{
				BookID: books[index], PatronID: patronID, StaffID: "staff-1",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, circulation.ErrLimitExceeded)
	}
	assert.Equal(t, 2, succeeded)

	loans, err := f.engine.PatronLoans(context.Background(), patronID)
	require.NoError(t, err)
	assert.Len(t, loans, 2)
	assertConserved(t, f.store.Snapshot())
}

// # Return

/*
TestEngine_Return_RoundTrip verifies that returning on time charges nothing and
restores the counter.
*/
func TestEngine_Return_RoundTrip(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(3)
	patronID := f.addPatron(3, true)

	issue := f.issue(t, bookID, patronID)

	closed, err := f.engine.Return(context.Background(), circulation.ReturnRequest{IssueID: issue.ID})
	require.NoError(t, err)

	assert.Equal(t, issue.ID, closed.ID)
	require.NotNil(t, closed.ReturnDate)
	assert.Equal(t, f.clock.Now(), *closed.ReturnDate)
	assert.True(t, closed.FineAmount.IsZero())
	assert.False(t, closed.FinePaid)

	snapshot := f.store.Snapshot()
	assert.Equal(t, 3, snapshot.Books[bookID].AvailableCopies)
	stored := snapshot.Issues[issue.ID]
	assert.False(t, stored.IsOpen())
	assertConserved(t, snapshot)
}

/*
TestEngine_Return_LateFine is the fine scenario: due 2024-01-15, returned
2024-01-20 at the default rate gives 25.
*/
func TestEngine_Return_LateFine(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(1)
	patronID := f.addPatron(3, true)

	due := date(2024, 1, 15)
	issue, err := f.engine.Issue(context.Background(), circulation.IssueRequest{
		BookID: bookID, PatronID: patronID, StaffID: "staff-1", DueDate: &due,
	})
	require.NoError(t, err)

	f.clock.Set(date(2024, 1, 20).Add(9 * time.Hour))

	closed, err := f.engine.Return(context.Background(), circulation.ReturnRequest{IssueID: issue.ID})
	require.NoError(t, err)

	assert.True(t, closed.FineAmount.Equal(decimal.NewFromInt(25)), "got %s", closed.FineAmount)
	assert.True(t, f.store.Snapshot().Issues[issue.ID].FineAmount.Equal(decimal.NewFromInt(25)))
}

/*
TestEngine_Return_FineCap verifies that the policy cap bounds a very late fine.
*/
func TestEngine_Return_FineCap(t *testing.T) {
	limit := decimal.NewFromInt(20)
	f := newFixture(t, func(policy *circulation.Policy) { policy.FineCap = &limit })
	bookID := f.addBook(1)
	patronID := f.addPatron(3, true)

	issue := f.issue(t, bookID, patronID)
	returned := date(2024, 3, 1)

	closed, err := f.engine.Return(context.Background(), circulation.ReturnRequest{
		IssueID: issue.ID, ReturnDate: &returned,
	})
	require.NoError(t, err)
	assert.True(t, closed.FineAmount.Equal(limit))
}

/*
TestEngine_Return_Twice is the double-return scenario: the second return is
rejected and the counter moves only once.
*/
func TestEngine_Return_Twice(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(2)
	patronID := f.addPatron(3, true)

	issue := f.issue(t, bookID, patronID)
	_, err := f.engine.Return(context.Background(), circulation.ReturnRequest{IssueID: issue.ID})
	require.NoError(t, err)
	before := f.store.Snapshot()

	_, err = f.engine.Return(context.Background(), circulation.ReturnRequest{IssueID: issue.ID})

	assert.ErrorIs(t, err, circulation.ErrAlreadyReturned)
	assert.Equal(t, before, f.store.Snapshot())
	assert.Equal(t, 2, before.Books[bookID].AvailableCopies)
}

/*
TestEngine_Return_ConcurrentDuplicates verifies that racing returns of the same
issue close it exactly once.
*/
func TestEngine_Return_ConcurrentDuplicates(t *testing.T) {
	const racers = 8

	f := newFixture(t)
	bookID := f.addBook(1)
	issue := f.issue(t, bookID, f.addPatron(3, true))

	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			_, errs[index] = f.engine.Return(context.Background(), circulation.ReturnRequest{IssueID: issue.ID})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, circulation.ErrAlreadyReturned)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.store.Snapshot().Books[bookID].AvailableCopies)
}

/*
TestEngine_Return_Rejections covers unknown issues and return dates before the
issue day.
*/
func TestEngine_Return_Rejections(t *testing.T) {
	f := newFixture(t)
	issue := f.issue(t, f.addBook(1), f.addPatron(3, true))
	before := f.store.Snapshot()

	_, err := f.engine.Return(context.Background(), circulation.ReturnRequest{IssueID: uuid.New()})
	assert.ErrorIs(t, err, circulation.ErrNotFound)

	_, err = f.engine.Return(context.Background(), circulation.ReturnRequest{IssueID: "garbage"})
	assert.ErrorIs(t, err, circulation.ErrNotFound)

	early := date(2023, 12, 31)
	_, err = f.engine.Return(context.Background(), circulation.ReturnRequest{IssueID: issue.ID, ReturnDate: &early})
	assert.ErrorIs(t, err, circulation.ErrInvalidDate)

	assert.Equal(t, before, f.store.Snapshot())

	// Earlier the same day is still the issue day.
	sameDay := date(2024, 1, 1).Add(8 * time.Hour)
	_, err = f.engine.Return(context.Background(), circulation.ReturnRequest{IssueID: issue.ID, ReturnDate: &sameDay})
	assert.NoError(t, err)
}

/*
TestEngine_ConcurrentTraffic runs interleaved issues and returns across a few
copies and checks conservation at the end.
*/
func TestEngine_ConcurrentTraffic(t *testing.T) {
	const (
		workers = 6
		rounds  = 15
	)

	f := newFixture(t)
	bookID := f.addBook(3)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		patronID := f.addPatron(1, true)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for round := 0; round < rounds; round++ {
				issue, err := f.engine.Issue(context.Background(), circulation.IssueRequest{
					BookID: bookID, PatronID: patronID, StaffID: "staff-1",
				})
				if err != nil {
					assert.ErrorIs(t, err, circulation.ErrNoCopiesAvailable)
					continue
				}
				_, err = f.engine.Return(context.Background(), circulation.ReturnRequest{IssueID: issue.ID})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	snapshot := f.store.Snapshot()
	assert.Equal(t, 3, snapshot.Books[bookID].AvailableCopies)
	for _, issue := range snapshot.Issues {
		assert.False(t, issue.IsOpen())
	}
	assertConserved(t, snapshot)
}

// # Retry

/*
TestEngine_RetriesCommitConflicts verifies that a transient conflict is retried
and the step lands exactly once.
*/
func TestEngine_RetriesCommitConflicts(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(2)
	patronID := f.addPatron(3, true)

	f.store.InjectCommitFailures(circulation.ErrConflict, circulation.ErrConflict)

	issue := f.issue(t, bookID, patronID)

	snapshot := f.store.Snapshot()
	assert.Len(t, snapshot.Issues, 1)
	assert.Contains(t, snapshot.Issues, issue.ID)
	assert.Equal(t, 1, snapshot.Books[bookID].AvailableCopies)
}

/*
TestEngine_ConflictBudgetExhausted verifies that persistent contention surfaces
as CONFLICT with no partial effect.
*/
func TestEngine_ConflictBudgetExhausted(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(2)
	patronID := f.addPatron(3, true)
	before := f.store.Snapshot()

	f.store.InjectCommitFailures(circulation.ErrConflict, circulation.ErrConflict, circulation.ErrConflict)

	_, err := f.engine.Issue(context.Background(), circulation.IssueRequest{
		BookID: bookID, PatronID: patronID, StaffID: "staff-1",
	})

	assert.ErrorIs(t, err, circulation.ErrConflict)
	assert.Equal(t, before, f.store.Snapshot())
}

/*
TestEngine_UnavailableIsNotRetried verifies that a storage outage fails the
call immediately. The second queued fault is still pending afterwards, which
proves only one attempt ran.
*/
func TestEngine_UnavailableIsNotRetried(t *testing.T) {
	f := newFixture(t, func(policy *circulation.Policy) { policy.RetryAttempts = 2 })
	bookID := f.addBook(2)
	patronID := f.addPatron(3, true)
	before := f.store.Snapshot()

	f.store.InjectCommitFailures(apperr.Unavailable(errors.New("connection refused")), circulation.ErrConflict)

	_, err := f.engine.Issue(context.Background(), circulation.IssueRequest{
		BookID: bookID, PatronID: patronID, StaffID: "staff-1",
	})
	assert.ErrorIs(t, err, circulation.ErrUnavailable)
	assert.Equal(t, before, f.store.Snapshot())

	// The pending conflict is consumed by the first attempt of the next call.
	f.issue(t, bookID, patronID)
	assert.Len(t, f.store.Snapshot().Issues, 1)
}

/*
TestEngine_Return_DateRuleFromStorage verifies that a date CHECK rejected by
storage reaches the caller as INVALID_DATE and leaves the loan open.
*/
func TestEngine_Return_DateRuleFromStorage(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(1)
	patronID := f.addPatron(3, true)
	issue := f.issue(t, bookID, patronID)
	before := f.store.Snapshot()

	rejected := &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "issue_returndate_check"}
	f.store.InjectCommitFailures(dberr.Wrap(rejected, "close_loan"))

	_, err := f.engine.Return(context.Background(), circulation.ReturnRequest{IssueID: issue.ID})

	assert.ErrorIs(t, err, circulation.ErrInvalidDate)
	assert.Equal(t, before, f.store.Snapshot())

	_, err = f.engine.Return(context.Background(), circulation.ReturnRequest{IssueID: issue.ID})
	require.NoError(t, err)
}

// # Inventory

/*
TestEngine_AdjustCopies verifies acquisitions and withdrawals keep the counters
consistent and never strand a loaned copy.
*/
func TestEngine_AdjustCopies(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(2)
	issue := f.issue(t, bookID, f.addPatron(3, true))

	_, err := f.engine.WithdrawCopies(context.Background(), bookID, 2)
	assert.ErrorIs(t, err, circulation.ErrInsufficientCopies)

	availability, err := f.engine.WithdrawCopies(context.Background(), bookID, 1)
	require.NoError(t, err)
	assert.Equal(t, catalog.Availability{BookID: bookID, AvailableCopies: 0, TotalCopies: 1, Status: catalog.StatusBorrowed}, *availability)

	availability, err = f.engine.AddCopies(context.Background(), bookID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, availability.AvailableCopies)
	assert.Equal(t, 4, availability.TotalCopies)
	assert.Equal(t, catalog.StatusAvailable, availability.Status)

	_, err = f.engine.Return(context.Background(), circulation.ReturnRequest{IssueID: issue.ID})
	require.NoError(t, err)
	assertConserved(t, f.store.Snapshot())

	_, err = f.engine.AddCopies(context.Background(), bookID, 0)
	assert.ErrorIs(t, err, circulation.ErrInvalidQuantity)

	_, err = f.engine.AddCopies(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, circulation.ErrNotFound)
}

// # Reads

/*
TestEngine_BookAvailability verifies the derived status, including hold markers
on titles with nothing on the shelf.
*/
func TestEngine_BookAvailability(t *testing.T) {
	f := newFixture(t)

	lost := catalog.HoldLost
	lostID := uuid.New()
	f.store.PutBook(catalog.Book{ID: lostID, TotalCopies: 1, AvailableCopies: 0, HoldStatus: &lost})

	availability, err := f.engine.BookAvailability(context.Background(), lostID)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusLost, availability.Status)

	_, err = f.engine.BookAvailability(context.Background(), "garbage")
	assert.ErrorIs(t, err, circulation.ErrNotFound)
}

/*
TestEngine_PatronLoansAndOverdue verifies open-loan listings are ordered by due
date and the overdue query ignores returned and not-yet-due loans.
*/
func TestEngine_PatronLoansAndOverdue(t *testing.T) {
	f := newFixture(t)
	patronID := f.addPatron(5, true)

	issueWithDue := func(due time.Time) *ledger.Issue {
		issue, err := f.engine.Issue(context.Background(), circulation.IssueRequest{
			BookID: f.addBook(1), PatronID: patronID, StaffID: "staff-1", DueDate: &due,
		})
		require.NoError(t, err)
		return issue
	}

	late := issueWithDue(date(2024, 1, 20))
	early := issueWithDue(date(2024, 1, 5))
	returned := issueWithDue(date(2024, 1, 3))
	_, err := f.engine.Return(context.Background(), circulation.ReturnRequest{IssueID: returned.ID})
	require.NoError(t, err)

	loans, err := f.engine.PatronLoans(context.Background(), patronID)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, early.ID, loans[0].ID)
	assert.Equal(t, late.ID, loans[1].ID)

	f.clock.Set(date(2024, 1, 10))

	overdue, err := f.engine.Overdue(context.Background())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, early.ID, overdue[0].ID)

	_, err = f.engine.PatronLoans(context.Background(), uuid.New())
	assert.ErrorIs(t, err, circulation.ErrNotFound)
}
