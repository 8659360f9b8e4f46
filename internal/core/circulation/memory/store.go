// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package memory provides an in-process [circulation.Store] for tests and
single-node demos.

Each atomic step takes per-key exclusive locks (patron, book, issue) in the
order it touches them and stages its writes. The staged writes are applied in
one critical section on success and dropped on failure, so a failed step
leaves no trace. A lock that cannot be acquired within the lock timeout fails
the step with CONFLICT, which the engine retries.
*/
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taibuivan/libris/internal/core/catalog"
	"github.com/taibuivan/libris/internal/core/circulation"
	"github.com/taibuivan/libris/internal/core/ledger"
	"github.com/taibuivan/libris/internal/core/patron"
	"github.com/taibuivan/libris/pkg/pointer"
)

var _ circulation.Store = (*Store)(nil)

const defaultLockTimeout = 2 * time.Second

// Snapshot is a deep copy of the committed state.
type Snapshot struct {
	Books   map[string]catalog.Book
	Patrons map[string]patron.Patron
	Issues  map[string]ledger.Issue
}

// Store holds books, patrons and issues in maps guarded by a single RWMutex.
// Row-level exclusion for atomic steps comes from the lock table.
type Store struct {
	mu      sync.RWMutex
	books   map[string]catalog.Book
	patrons map[string]patron.Patron
	issues  map[string]ledger.Issue

	locks       *lockTable
	lockTimeout time.Duration
	now         func() time.Time

	faultMu sync.Mutex
	faults  []error
}

// Option customizes a [Store].
type Option func(*Store)

func WithLockTimeout(timeout time.Duration) Option {
	return func(store *Store) {
		store.lockTimeout = timeout
	}
}

func WithClock(now func() time.Time) Option {
	return func(store *Store) {
		store.now = now
	}
}

func NewStore(options ...Option) *Store {
	store := &Store{
		books:       make(map[string]catalog.Book),
		patrons:     make(map[string]patron.Patron),
		issues:      make(map[string]ledger.Issue),
		locks:       newLockTable(),
		lockTimeout: defaultLockTimeout,
		now:         time.Now,
	}
	for _, option := range options {
		option(store)
	}
	return store
}

// # Seeding

// PutBook inserts or replaces a book outside any atomic step.
func (store *Store) PutBook(book catalog.Book) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.books[book.ID] = cloneBook(book)
}

// PutPatron inserts or replaces a patron outside any atomic step.
func (store *Store) PutPatron(p patron.Patron) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.patrons[p.ID] = p
}

// InjectCommitFailures makes the next atomic steps fail at commit with the
// given errors, in order, after fn has run. Staged writes are discarded.
func (store *Store) InjectCommitFailures(errs ...error) {
	store.faultMu.Lock()
	defer store.faultMu.Unlock()
	store.faults = append(store.faults, errs...)
}

func (store *Store) nextFault() error {
	store.faultMu.Lock()
	defer store.faultMu.Unlock()
	if len(store.faults) == 0 {
		return nil
	}
	fault := store.faults[0]
	store.faults = store.faults[1:]
	return fault
}

// LockSlots reports how many row locks are held or awaited right now.
func (store *Store) LockSlots() int {
	return store.locks.size()
}

// Snapshot deep-copies the committed state.
func (store *Store) Snapshot() Snapshot {
	store.mu.RLock()
	defer store.mu.RUnlock()

	snapshot := Snapshot{
		Books:   make(map[string]catalog.Book, len(store.books)),
		Patrons: make(map[string]patron.Patron, len(store.patrons)),
		Issues:  make(map[string]ledger.Issue, len(store.issues)),
	}
	for id, book := range store.books {
		snapshot.Books[id] = cloneBook(book)
	}
	for id, p := range store.patrons {
		snapshot.Patrons[id] = p
	}
	for id, issue := range store.issues {
		snapshot.Issues[id] = *issue.Clone()
	}
	return snapshot
}

// # circulation.Store

func (store *Store) Atomic(ctx context.Context, fn func(tx circulation.Tx) error) error {
	tx := &memoryTx{
		store:  store,
		ctx:    ctx,
		held:   make(map[string]struct{}),
		books:  make(map[string]catalog.Book),
		issues: make(map[string]ledger.Issue),
	}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	if err := store.nextFault(); err != nil {
		return err
	}

	tx.commit()
	return nil
}

func (store *Store) GetBook(_ context.Context, id string) (*catalog.Book, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	book, ok := store.books[id]
	if !ok {
		return nil, catalog.ErrBookNotFound
	}
	return present(book), nil
}

func (store *Store) GetPatron(_ context.Context, id string) (*patron.Patron, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	p, ok := store.patrons[id]
	if !ok {
		return nil, patron.ErrPatronNotFound
	}
	return &p, nil
}

func (store *Store) GetIssue(_ context.Context, id string) (*ledger.Issue, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	issue, ok := store.issues[id]
	if !ok {
		return nil, ledger.ErrIssueNotFound
	}
	return issue.Clone(), nil
}

func (store *Store) ListOpen(_ context.Context, patronID string) ([]*ledger.Issue, error) {
	return store.filterIssues(func(issue ledger.Issue) bool {
		return issue.PatronID == patronID && issue.IsOpen()
	}), nil
}

func (store *Store) ListOverdue(_ context.Context, asOf time.Time) ([]*ledger.Issue, error) {
	return store.filterIssues(func(issue ledger.Issue) bool {
		return issue.IsOverdue(asOf)
	}), nil
}

// filterIssues returns matching issues ordered by due date, then id.
func (store *Store) filterIssues(match func(ledger.Issue) bool) []*ledger.Issue {
	store.mu.RLock()
	defer store.mu.RUnlock()

	result := make([]*ledger.Issue, 0)
	for _, issue := range store.issues {
		if match(issue) {
			result = append(result, issue.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].DueDate.Equal(result[j].DueDate) {
			return result[i].DueDate.Before(result[j].DueDate)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// # Transaction

type memoryTx struct {
	store *Store
	ctx   context.Context
	held  map[string]struct{}

	books  map[string]catalog.Book
	issues map[string]ledger.Issue
}

var _ circulation.Tx = (*memoryTx)(nil)

// lock acquires key once per transaction; re-entry is a no-op.
func (tx *memoryTx) lock(key string) error {
	if _, ok := tx.held[key]; ok {
		return nil
	}
	if err := tx.store.locks.acquire(tx.ctx, key, tx.store.lockTimeout); err != nil {
		return err
	}
	tx.held[key] = struct{}{}
	return nil
}

func (tx *memoryTx) release() {
	for key := range tx.held {
		tx.store.locks.release(key)
	}
	tx.held = nil
}

func (tx *memoryTx) commit() {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	now := tx.store.now().UTC()
	for id, book := range tx.books {
		book.UpdatedAt = now
		tx.store.books[id] = book
	}
	for id, issue := range tx.issues {
		issue.UpdatedAt = now
		tx.store.issues[id] = issue
	}
}

// currentBook reads the staged version first, then the committed one.
func (tx *memoryTx) currentBook(id string) (catalog.Book, bool) {
	if book, ok := tx.books[id]; ok {
		return book, true
	}
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	book, ok := tx.store.books[id]
	return cloneBook(book), ok
}

func (tx *memoryTx) currentIssue(id string) (ledger.Issue, bool) {
	if issue, ok := tx.issues[id]; ok {
		return issue, true
	}
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	issue, ok := tx.store.issues[id]
	if !ok {
		return ledger.Issue{}, false
	}
	return *issue.Clone(), true
}

func (tx *memoryTx) LockPatron(_ context.Context, id string) (*patron.Patron, error) {
	if err := tx.lock("patron:" + id); err != nil {
		return nil, err
	}

	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()

	p, ok := tx.store.patrons[id]
	if !ok {
		return nil, patron.ErrPatronNotFound
	}
	return &p, nil
}

func (tx *memoryTx) CountOpenLoans(_ context.Context, patronID string) (int, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()

	count := 0
	for id, issue := range tx.store.issues {
		if staged, ok := tx.issues[id]; ok {
			issue = staged
		}
		if issue.PatronID == patronID && issue.IsOpen() {
			count++
		}
	}
	for id, issue := range tx.issues {
		if _, committed := tx.store.issues[id]; committed {
			continue
		}
		if issue.PatronID == patronID && issue.IsOpen() {
			count++
		}
	}
	return count, nil
}

func (tx *memoryTx) LockBook(_ context.Context, id string) (*catalog.Book, error) {
	if err := tx.lock("book:" + id); err != nil {
		return nil, err
	}

	book, ok := tx.currentBook(id)
	if !ok {
		return nil, catalog.ErrBookNotFound
	}
	return present(book), nil
}

func (tx *memoryTx) DecrementAvailable(_ context.Context, bookID string) error {
	return tx.updateBook(bookID, func(book *catalog.Book) bool {
		if book.AvailableCopies <= 0 {
			return false
		}
		book.AvailableCopies--
		return true
	})
}

func (tx *memoryTx) IncrementAvailable(_ context.Context, bookID string) error {
	return tx.updateBook(bookID, func(book *catalog.Book) bool {
		if book.AvailableCopies >= book.TotalCopies {
			return false
		}
		book.AvailableCopies++
		return true
	})
}

func (tx *memoryTx) AdjustCopies(_ context.Context, bookID string, delta int) error {
	return tx.updateBook(bookID, func(book *catalog.Book) bool {
		if book.AvailableCopies+delta < 0 {
			return false
		}
		book.TotalCopies += delta
		book.AvailableCopies += delta
		return true
	})
}

// updateBook applies a guarded mutation to the staged copy of a book.
func (tx *memoryTx) updateBook(id string, mutate func(*catalog.Book) bool) error {
	if err := tx.lock("book:" + id); err != nil {
		return err
	}

	book, ok := tx.currentBook(id)
	if !ok || !mutate(&book) {
		return catalog.ErrInventoryGuard
	}

	tx.books[id] = book
	return nil
}

func (tx *memoryTx) LockIssue(_ context.Context, id string) (*ledger.Issue, error) {
	if err := tx.lock("issue:" + id); err != nil {
		return nil, err
	}

	issue, ok := tx.currentIssue(id)
	if !ok {
		return nil, ledger.ErrIssueNotFound
	}
	return issue.Clone(), nil
}

func (tx *memoryTx) OpenLoan(_ context.Context, issue *ledger.Issue) error {
	if err := tx.lock("issue:" + issue.ID); err != nil {
		return err
	}

	now := tx.store.now().UTC()
	issue.FineAmount = decimal.Zero
	issue.FinePaid = false
	issue.ReturnDate = nil
	issue.CreatedAt = now
	issue.UpdatedAt = now

	tx.issues[issue.ID] = *issue.Clone()
	return nil
}

func (tx *memoryTx) CloseLoan(_ context.Context, id string, returnDate time.Time, fine decimal.Decimal) (*ledger.Issue, error) {
	if err := tx.lock("issue:" + id); err != nil {
		return nil, err
	}

	issue, ok := tx.currentIssue(id)
	if !ok || !issue.IsOpen() {
		return nil, ledger.ErrLedgerGuard
	}

	issue.ReturnDate = pointer.To(returnDate)
	issue.FineAmount = fine
	issue.FinePaid = false

	tx.issues[id] = issue
	return issue.Clone(), nil
}

// # Helpers

func cloneBook(book catalog.Book) catalog.Book {
	if book.HoldStatus != nil {
		book.HoldStatus = pointer.To(*book.HoldStatus)
	}
	return book
}

// present returns a detached copy with the derived status filled in.
func present(book catalog.Book) *catalog.Book {
	clone := cloneBook(book)
	clone.Status = clone.DeriveStatus()
	return &clone
}
