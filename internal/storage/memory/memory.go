// Package memory is an in-process implementation of the account and ledger
// tables with the same unit-of-work semantics as the Postgres backend: a
// conditional balance write takes a row lock that is held until the unit
// commits or rolls back, and nothing a unit writes is visible to others
// before commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

var ErrUnitDone = errors.New("memory: unit already committed or rolled back")

// Store holds the committed state.
type Store struct {
	mu                sync.Mutex
	accounts          map[int64]sqlconfig.Account
	ibans             map[string]int64
	reservedIBANs     map[string]struct{}
	ledger            []sqlconfig.Transaction
	nextAccountID     int64
	nextTransactionID int64
	rowLocks          map[int64]chan struct{}
	lastCommit        time.Time
	now               func() time.Time
}

func NewStore() *Store {
	return &Store{
		accounts:      make(map[int64]sqlconfig.Account),
		ibans:         make(map[string]int64),
		reservedIBANs: make(map[string]struct{}),
		rowLocks:      make(map[int64]chan struct{}),
		now:           time.Now,
	}
}

// Begin opens a unit of work.
func (s *Store) Begin(ctx context.Context) (*Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", sqlconfig.ErrUnavailable, err)
	}
	return &Unit{
		store:    s,
		locks:    make(map[int64]chan struct{}),
		accounts: make(map[int64]sqlconfig.Account),
		ibans:    make(map[string]struct{}),
	}, nil
}

// Accounts returns a table whose every call runs in its own unit.
func (s *Store) Accounts() sqlconfig.IAccountTable {
	return autoAccounts{store: s}
}

// Transactions returns a ledger table whose every call runs in its own unit.
func (s *Store) Transactions() sqlconfig.ITransactionTable {
	return autoTransactions{store: s}
}

func (s *Store) rowLock(id int64) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.rowLocks[id]
	if !ok {
		lock = make(chan struct{}, 1)
		s.rowLocks[id] = lock
	}
	return lock
}

// Unit is one atomic scope. It is not safe for concurrent use.
type Unit struct {
	store    *Store
	done     bool
	locks    map[int64]chan struct{}
	accounts map[int64]sqlconfig.Account // staged inserts and updates
	ibans    map[string]struct{}         // reserved by staged inserts
	appended []*sqlconfig.Transaction
}

func (u *Unit) Accounts() sqlconfig.IAccountTable {
	return unitAccounts{unit: u}
}

func (u *Unit) Transactions() sqlconfig.ITransactionTable {
	return unitTransactions{unit: u}
}

// Commit publishes every staged write and releases the unit's row locks.
// Ledger entries are stamped here, so created_at order is commit order.
func (u *Unit) Commit(_ context.Context) error {
	if u.done {
		return ErrUnitDone
	}
	u.done = true

	s := u.store
	s.mu.Lock()
	for id, account := range u.accounts {
		s.accounts[id] = account
		s.ibans[account.IBAN] = id
	}
	for iban := range u.ibans {
		delete(s.reservedIBANs, iban)
	}
	if len(u.appended) > 0 {
		committedAt := s.nextCommitTime()
		for _, entry := range u.appended {
			entry.CreatedAt = committedAt
			s.ledger = append(s.ledger, *entry)
		}
	}
	s.mu.Unlock()

	u.releaseLocks()
	return nil
}

// Rollback discards every staged write and releases the unit's row locks.
func (u *Unit) Rollback(_ context.Context) error {
	if u.done {
		return ErrUnitDone
	}
	u.done = true

	s := u.store
	s.mu.Lock()
	for iban := range u.ibans {
		delete(s.reservedIBANs, iban)
	}
	s.mu.Unlock()

	u.releaseLocks()
	return nil
}

// nextCommitTime returns a time strictly after every earlier commit.
// Callers hold s.mu.
func (s *Store) nextCommitTime() time.Time {
	t := s.now()
	if !t.After(s.lastCommit) {
		t = s.lastCommit.Add(time.Nanosecond)
	}
	s.lastCommit = t
	return t
}

func (u *Unit) releaseLocks() {
	for id, lock := range u.locks {
		<-lock
		delete(u.locks, id)
	}
}

func (u *Unit) checkOpen(ctx context.Context) error {
	if u.done {
		return ErrUnitDone
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", sqlconfig.ErrUnavailable, err)
	}
	return nil
}

// lockRow blocks until the unit holds the account's row lock.
func (u *Unit) lockRow(ctx context.Context, id int64) error {
	if _, held := u.locks[id]; held {
		return nil
	}
	lock := u.store.rowLock(id)
	select {
	case lock <- struct{}{}:
		u.locks[id] = lock
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", sqlconfig.ErrUnavailable, ctx.Err())
	}
}

func (u *Unit) findByID(ctx context.Context, id int64) (*sqlconfig.Account, error) {
	if err := u.checkOpen(ctx); err != nil {
		return nil, err
	}
	if account, ok := u.accounts[id]; ok {
		return &account, nil
	}
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, sqlconfig.ErrNotFound
	}
	return &account, nil
}

func (u *Unit) findByIBAN(ctx context.Context, iban string) (*sqlconfig.Account, error) {
	if err := u.checkOpen(ctx); err != nil {
		return nil, err
	}
	for _, account := range u.accounts {
		if account.IBAN == iban {
			found := account
			return &found, nil
		}
	}
	s := u.store
	s.mu.Lock()
	id, ok := s.ibans[iban]
	s.mu.Unlock()
	if !ok {
		return nil, sqlconfig.ErrNotFound
	}
	return u.findByID(ctx, id)
}

func (u *Unit) insert(ctx context.Context, create *sqlconfig.AccountCreate) (*sqlconfig.Account, error) {
	if err := u.checkOpen(ctx); err != nil {
		return nil, err
	}
	if create.Balance < 0 {
		return nil, fmt.Errorf("memory: balance must not be negative, got %d", create.Balance)
	}

	s := u.store
	s.mu.Lock()
	_, exists := s.ibans[create.IBAN]
	_, reserved := s.reservedIBANs[create.IBAN]
	if exists || reserved {
		s.mu.Unlock()
		return nil, sqlconfig.ErrDuplicateIBAN
	}
	s.reservedIBANs[create.IBAN] = struct{}{}
	s.nextAccountID++
	id := s.nextAccountID
	now := s.now()
	s.mu.Unlock()

	account := sqlconfig.Account{
		ID:        id,
		UserID:    create.UserID,
		IBAN:      create.IBAN,
		Balance:   create.Balance,
		CreatedAt: now,
		UpdatedAt: now,
	}
	u.ibans[create.IBAN] = struct{}{}
	u.accounts[id] = account
	return &account, nil
}

func (u *Unit) updateBalanceIfVersion(ctx context.Context, id int64, balance int64, expectedVersion int64) (int64, error) {
	if err := u.checkOpen(ctx); err != nil {
		return 0, err
	}
	if balance < 0 {
		return 0, fmt.Errorf("memory: balance must not be negative, got %d", balance)
	}
	if err := u.lockRow(ctx, id); err != nil {
		return 0, err
	}

	// Re-read after the lock is held so a concurrent commit is observed.
	current, err := u.findByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if current.Version != expectedVersion {
		return 0, sqlconfig.ErrVersionConflict
	}

	current.Balance = balance
	current.Version++
	current.UpdatedAt = u.store.now()
	u.accounts[id] = *current
	return current.Version, nil
}

// appendEntry stages a ledger entry. Its CreatedAt stays zero until commit.
func (u *Unit) appendEntry(ctx context.Context, create *sqlconfig.TransactionCreate) (*sqlconfig.Transaction, error) {
	if err := u.checkOpen(ctx); err != nil {
		return nil, err
	}
	if create.Amount <= 0 {
		return nil, fmt.Errorf("memory: amount must be positive, got %d", create.Amount)
	}

	s := u.store
	s.mu.Lock()
	s.nextTransactionID++
	entry := &sqlconfig.Transaction{
		ID:     s.nextTransactionID,
		IBAN:   create.IBAN,
		Type:   create.Type,
		Amount: create.Amount,
	}
	s.mu.Unlock()

	u.appended = append(u.appended, entry)
	return entry, nil
}

func (u *Unit) listAccounts(ctx context.Context, filter *sqlconfig.AccountFilter) ([]*sqlconfig.Account, error) {
	if err := u.checkOpen(ctx); err != nil {
		return nil, err
	}
	s := u.store
	s.mu.Lock()
	merged := make(map[int64]sqlconfig.Account, len(s.accounts)+len(u.accounts))
	for id, account := range s.accounts {
		merged[id] = account
	}
	s.mu.Unlock()
	for id, account := range u.accounts {
		merged[id] = account
	}

	rows := make([]*sqlconfig.Account, 0, len(merged))
	for _, account := range merged {
		rows = append(rows, &account)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	if filter == nil {
		return rows, nil
	}
	return page(rows, filter.Offset, filter.Limit), nil
}

func (u *Unit) listTransactions(ctx context.Context, filter *sqlconfig.TransactionFilter) ([]*sqlconfig.Transaction, error) {
	if err := u.checkOpen(ctx); err != nil {
		return nil, err
	}
	s := u.store
	s.mu.Lock()
	all := make([]sqlconfig.Transaction, 0, len(s.ledger)+len(u.appended))
	all = append(all, s.ledger...)
	s.mu.Unlock()
	for _, entry := range u.appended {
		all = append(all, *entry)
	}

	rows := make([]*sqlconfig.Transaction, 0, len(all))
	for _, entry := range all {
		if filter != nil {
			if iban, ok := filter.IBAN.Get(); ok && entry.IBAN != iban {
				continue
			}
			if maxCreationTime, ok := filter.MaxCreationTime.Get(); ok && entry.CreatedAt.After(maxCreationTime) {
				continue
			}
		}
		rows = append(rows, &entry)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID > rows[j].ID
	})

	if filter == nil {
		return rows, nil
	}
	return page(rows, filter.Offset, filter.Limit), nil
}

// page applies offset and fetches limit+1 rows, matching the SQL tables.
func page[T any](rows []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && len(rows) > limit+1 {
		rows = rows[:limit+1]
	}
	return rows
}
