package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/operator"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/retry"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

const (
	ibanA = "GB82WEST12345698765432"
	ibanB = "DE89370400440532013000"
)

// wrappingBeginner lets a test decorate the tables of every unit it opens.
type wrappingBeginner struct {
	inner storage.Beginner
	wrap  func(w *storage.Writer)
}

func (b wrappingBeginner) Begin(ctx context.Context) (*storage.Writer, error) {
	w, err := b.inner.Begin(ctx)
	if err != nil {
		return nil, err
	}
	b.wrap(w)
	return w, nil
}

// barrierAccounts holds every reader at FindByID until all parties have read.
type barrierAccounts struct {
	sqlconfig.IAccountTable
	barrier *sync.WaitGroup
}

func (b barrierAccounts) FindByID(ctx context.Context, id int64) (*sqlconfig.Account, error) {
	account, err := b.IAccountTable.FindByID(ctx, id)
	b.barrier.Done()
	b.barrier.Wait()
	return account, err
}

// failingLedger fails appends of one entry type.
type failingLedger struct {
	sqlconfig.ITransactionTable
	failType sqlconfig.TransactionType
}

func (f failingLedger) Append(ctx context.Context, create *sqlconfig.TransactionCreate) (*sqlconfig.Transaction, error) {
	if create.Type == f.failType {
		return nil, errors.New("disk full")
	}
	return f.ITransactionTable.Append(ctx, create)
}

// lateCommitTx applies the inner commit and then reports a deadline, the way
// a driver does when COMMIT reached the server but the reply did not.
type lateCommitTx struct {
	inner *storage.Writer
}

func (l lateCommitTx) Commit(ctx context.Context) error {
	if err := l.inner.Commit(ctx); err != nil {
		return err
	}
	return context.DeadlineExceeded
}

func (l lateCommitTx) Rollback(ctx context.Context) error {
	return l.inner.Rollback(ctx)
}

type lateCommitBeginner struct {
	inner storage.Beginner
}

func (b lateCommitBeginner) Begin(ctx context.Context) (*storage.Writer, error) {
	w, err := b.inner.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return storage.NewWriter(lateCommitTx{inner: w}, w.Accounts, w.Transactions), nil
}

func newServiceWithBeginner(store *storage.Storage, beginner storage.Beginner) *Service {
	op := operator.NewOperator(beginner, nil, 5*time.Second, logging.SetupLogging())
	return NewService(store, op)
}

func newTestService(t *testing.T) (*Service, *storage.Storage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	return newServiceWithBeginner(store, store.Beginner), store
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openFunded(t *testing.T, svc *Service, iban string, balance string) *Account {
	t.Helper()
	account, err := svc.Account.CreateAccount(context.Background(), AccountCreate{UserID: 1, IBAN: iban})
	require.NoError(t, err)
	if amount(balance).IsPositive() {
		account, err = svc.Transaction.TopUp(context.Background(), account.ID, amount(balance))
		require.NoError(t, err)
	}
	return account
}

func ledgerFor(t *testing.T, store *storage.Storage, iban string) []*sqlconfig.Transaction {
	t.Helper()
	entries, err := store.Transactions.List(context.Background(), &sqlconfig.TransactionFilter{})
	require.NoError(t, err)
	var out []*sqlconfig.Transaction
	for _, entry := range entries {
		if entry.IBAN == iban {
			out = append(out, entry)
		}
	}
	return out
}

func TestTransfer_Succeeds(t *testing.T) {
	svc, store := newTestService(t)
	a := openFunded(t, svc, ibanA, "100.00")
	b := openFunded(t, svc, ibanB, "0")

	result, err := svc.Transaction.Transfer(context.Background(), a.ID, b.ID, amount("25.00"))
	require.NoError(t, err)
	assert.Equal(t, &TransferResult{SenderBalance: 7500, ReceiverBalance: 2500}, result)

	aEntries := ledgerFor(t, store, ibanA)
	require.Len(t, aEntries, 2)
	assert.Equal(t, sqlconfig.TransactionTypeTransfer, aEntries[0].Type)
	assert.Equal(t, int64(2500), aEntries[0].Amount)

	bEntries := ledgerFor(t, store, ibanB)
	require.Len(t, bEntries, 1)
	assert.Equal(t, sqlconfig.TransactionTypeReceive, bEntries[0].Type)
	assert.Equal(t, int64(2500), bEntries[0].Amount)
}

func TestTopUp_LateCommitFailureAppliesOnce(t *testing.T) {
	svc, store := newTestService(t)
	account := openFunded(t, svc, ibanA, "0")
	lateSvc := newServiceWithBeginner(store, lateCommitBeginner{inner: store.Beginner})
	policy := retry.Policy{MaxAttempts: 3, Retryable: actions.IsTransient}

	attempts := 0
	_, err := retry.Do(context.Background(), policy, func(ctx context.Context) (*Account, error) {
		attempts++
		return lateSvc.Transaction.TopUp(ctx, account.ID, amount("10.00"))
	})

	assert.ErrorIs(t, err, actions.ErrCommitOutcomeUnknown)
	assert.ErrorIs(t, err, actions.ErrStoreUnavailable)
	assert.Equal(t, 1, attempts)

	stored, err := store.Accounts.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.Balance)
	assert.Len(t, ledgerFor(t, store, ibanA), 1)
}

func TestTransfer_LateCommitFailureAppliesOnce(t *testing.T) {
	svc, store := newTestService(t)
	a := openFunded(t, svc, ibanA, "100.00")
	b := openFunded(t, svc, ibanB, "0")
	lateSvc := newServiceWithBeginner(store, lateCommitBeginner{inner: store.Beginner})
	policy := retry.Policy{MaxAttempts: 3, Retryable: actions.IsTransient}

	attempts := 0
	_, err := retry.Do(context.Background(), policy, func(ctx context.Context) (*TransferResult, error) {
		attempts++
		return lateSvc.Transaction.Transfer(ctx, a.ID, b.ID, amount("25.00"))
	})

	assert.ErrorIs(t, err, actions.ErrCommitOutcomeUnknown)
	assert.Equal(t, 1, attempts)

	sender, err := store.Accounts.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	receiver, err := store.Accounts.FindByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7500), sender.Balance)
	assert.Equal(t, int64(2500), receiver.Balance)
	assert.Len(t, ledgerFor(t, store, ibanB), 1)
}

func TestTransfer_SelfTransferNoStoreAccess(t *testing.T) {
	store := storage.NewMemoryStorage()
	began := 0
	beginner := wrappingBeginner{inner: store.Beginner, wrap: func(*storage.Writer) { began++ }}
	svc := newServiceWithBeginner(store, beginner)

	_, err := svc.Transaction.Transfer(context.Background(), 1, 1, amount("10.00"))

	assert.ErrorIs(t, err, actions.ErrInvalidTransfer)
	assert.Equal(t, 0, began)
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	svc, store := newTestService(t)
	a := openFunded(t, svc, ibanA, "50.00")

	_, err := svc.Transaction.Withdraw(context.Background(), a.ID, amount("100.00"))
	assert.ErrorIs(t, err, actions.ErrInsufficientFunds)

	got, err := svc.Account.GetAccount(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.Balance)
	assert.Len(t, ledgerFor(t, store, ibanA), 1)
}

func TestTopUp_RoundsOnceToMinorUnits(t *testing.T) {
	svc, _ := newTestService(t)
	a := openFunded(t, svc, ibanA, "0")

	got, err := svc.Transaction.TopUp(context.Background(), a.ID, amount("10.005"))
	require.NoError(t, err)
	assert.Equal(t, int64(1001), got.Balance)

	_, err = svc.Transaction.TopUp(context.Background(), a.ID, amount("0.004"))
	assert.ErrorIs(t, err, actions.ErrInvalidAmount)
}

func TestWithdraw_ConcurrentRace(t *testing.T) {
	store := storage.NewMemoryStorage()
	plain := newServiceWithBeginner(store, store.Beginner)
	a := openFunded(t, plain, ibanA, "60.00")

	barrier := &sync.WaitGroup{}
	barrier.Add(2)
	racing := newServiceWithBeginner(store, wrappingBeginner{
		inner: store.Beginner,
		wrap: func(w *storage.Writer) {
			w.Accounts = barrierAccounts{IAccountTable: w.Accounts, barrier: barrier}
		},
	})

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = racing.Transaction.Withdraw(context.Background(), a.ID, amount("60.00"))
		}(i)
	}
	wg.Wait()

	var committed, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			committed++
		case errors.Is(err, actions.ErrConcurrentModification):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, committed)
	assert.Equal(t, 1, conflicted)

	got, err := plain.Account.GetAccount(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Balance)

	withdrawals := 0
	for _, entry := range ledgerFor(t, store, ibanA) {
		if entry.Type == sqlconfig.TransactionTypeWithdrawal {
			withdrawals++
		}
	}
	assert.Equal(t, 1, withdrawals)

	_, err = plain.Transaction.Withdraw(context.Background(), a.ID, amount("60.00"))
	assert.ErrorIs(t, err, actions.ErrInsufficientFunds)
}

func TestTransfer_RollsBackWhenCreditFails(t *testing.T) {
	t.Run("receiver missing", func(t *testing.T) {
		svc, store := newTestService(t)
		a := openFunded(t, svc, ibanA, "100.00")

		_, err := svc.Transaction.Transfer(context.Background(), a.ID, 999, amount("25.00"))
		assert.ErrorIs(t, err, actions.ErrAccountNotFound)

		got, err := svc.Account.GetAccount(context.Background(), a.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10000), got.Balance)
		assert.Len(t, ledgerFor(t, store, ibanA), 1)
	})

	t.Run("credit ledger append fails", func(t *testing.T) {
		store := storage.NewMemoryStorage()
		plain := newServiceWithBeginner(store, store.Beginner)
		a := openFunded(t, plain, ibanA, "100.00")
		b := openFunded(t, plain, ibanB, "0")

		failing := newServiceWithBeginner(store, wrappingBeginner{
			inner: store.Beginner,
			wrap: func(w *storage.Writer) {
				w.Transactions = failingLedger{ITransactionTable: w.Transactions, failType: sqlconfig.TransactionTypeReceive}
			},
		})
		_, err := failing.Transaction.Transfer(context.Background(), a.ID, b.ID, amount("25.00"))
		require.Error(t, err)

		gotA, err := plain.Account.GetAccount(context.Background(), a.ID)
		require.NoError(t, err)
		gotB, err := plain.Account.GetAccount(context.Background(), b.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10000), gotA.Balance)
		assert.Equal(t, int64(0), gotB.Balance)
		assert.Len(t, ledgerFor(t, store, ibanA), 1)
		assert.Empty(t, ledgerFor(t, store, ibanB))
	})
}

func TestOppositeTransfers_NoDeadlock(t *testing.T) {
	svc, _ := newTestService(t)
	a := openFunded(t, svc, ibanA, "1000.00")
	b := openFunded(t, svc, ibanB, "1000.00")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.Transaction.Transfer(context.Background(), a.ID, b.ID, amount("1.00"))
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.Transaction.Transfer(context.Background(), b.ID, a.ID, amount("1.00"))
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("opposite transfers did not finish")
	}

	gotA, err := svc.Account.GetAccount(context.Background(), a.ID)
	require.NoError(t, err)
	gotB, err := svc.Account.GetAccount(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200000), gotA.Balance+gotB.Balance)
}

func TestLedger_Conservation(t *testing.T) {
	svc, store := newTestService(t)
	a := openFunded(t, svc, ibanA, "0")
	b := openFunded(t, svc, ibanB, "0")
	ids := []int64{a.ID, b.ID}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		value := decimal.New(int64(rng.Intn(5000)+1), -2)
		id := ids[rng.Intn(2)]
		switch rng.Intn(3) {
		case 0:
			_, _ = svc.Transaction.TopUp(context.Background(), id, value)
		case 1:
			_, _ = svc.Transaction.Withdraw(context.Background(), id, value)
		default:
			_, _ = svc.Transaction.Transfer(context.Background(), id, ids[1-indexOf(ids, id)], value)
		}
	}

	for _, account := range []*Account{a, b} {
		got, err := svc.Account.GetAccount(context.Background(), account.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Balance, int64(0))

		var sum int64
		for _, entry := range ledgerFor(t, store, account.IBAN) {
			switch entry.Type {
			case sqlconfig.TransactionTypeTopUp, sqlconfig.TransactionTypeReceive:
				sum += entry.Amount
			case sqlconfig.TransactionTypeWithdrawal, sqlconfig.TransactionTypeTransfer:
				sum -= entry.Amount
			}
		}
		assert.Equal(t, sum, got.Balance, account.IBAN)
	}
}

func indexOf(ids []int64, id int64) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func TestLedger_EntriesCannotBeAltered(t *testing.T) {
	svc, store := newTestService(t)
	openFunded(t, svc, ibanA, "10.00")

	entries := ledgerFor(t, store, ibanA)
	require.Len(t, entries, 1)
	entries[0].Amount = 1
	entries[0].Type = sqlconfig.TransactionTypeWithdrawal
	entries[0].IBAN = ibanB

	again := ledgerFor(t, store, ibanA)
	require.Len(t, again, 1)
	assert.Equal(t, int64(1000), again[0].Amount)
	assert.Equal(t, sqlconfig.TransactionTypeTopUp, again[0].Type)
}
