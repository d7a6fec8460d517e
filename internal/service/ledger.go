// Package service implements the balance-mutation core: deposits,
// withdrawals, and atomic transfers over the account store.
//
// Mutual exclusion is per account. Single-account operations take that
// account's lock; a transfer takes both locks, always in ascending id
// order. Because every transfer in the process uses the same order, no
// cycle of waiting goroutines can form and the ledger is deadlock-free.
package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/khazhoyan/money-transfer/internal/repository"
)

// Snapshot is an immutable view of one account at some committed point.
type Snapshot struct {
	ID      int64           `json:"id"`
	Balance decimal.Decimal `json:"balance"`
}

// Ledger coordinates all balance mutations. It keeps no state of its own;
// accounts are resolved through the store on every call.
type Ledger struct {
	store *repository.AccountStore
}

func NewLedger(store *repository.AccountStore) *Ledger {
	return &Ledger{store: store}
}

// CreateAccount allocates a new account with a zero balance.
func (l *Ledger) CreateAccount() Snapshot {
	return snapshotOf(l.store.Create())
}

// GetAccount returns a snapshot of the account's committed balance.
func (l *Ledger) GetAccount(id int64) (Snapshot, error) {
	a, ok := l.store.Find(id)
	if !ok {
		return Snapshot{}, notFound(id)
	}
	return snapshotOf(a), nil
}

// ListAccounts returns a snapshot of every account, ordered by id.
func (l *Ledger) ListAccounts() []Snapshot {
	n := int64(l.store.Len())
	out := make([]Snapshot, 0, n)
	for id := int64(0); id < n; id++ {
		if a, ok := l.store.Find(id); ok {
			out = append(out, snapshotOf(a))
		}
	}
	return out
}

// Deposit adds amount to the account's balance.
func (l *Ledger) Deposit(id int64, amount decimal.Decimal) (Snapshot, error) {
	if !amount.IsPositive() {
		return Snapshot{}, notPositive(amount)
	}
	a, ok := l.store.Find(id)
	if !ok {
		return Snapshot{}, notFound(id)
	}
	a.Lock()
	defer a.Unlock()
	credit(a, amount)
	return snapshotOf(a), nil
}

// Withdraw subtracts amount from the account's balance. It fails with
// ErrInsufficientBalance rather than let the balance go negative.
func (l *Ledger) Withdraw(id int64, amount decimal.Decimal) (Snapshot, error) {
	if !amount.IsPositive() {
		return Snapshot{}, notPositive(amount)
	}
	a, ok := l.store.Find(id)
	if !ok {
		return Snapshot{}, notFound(id)
	}
	a.Lock()
	defer a.Unlock()
	if err := debit(a, amount); err != nil {
		return Snapshot{}, err
	}
	return snapshotOf(a), nil
}

// Transfer moves amount between two accounts as one atomic step. Both
// account locks are held for the whole debit+credit, so no observer ever
// sees the source debited without the destination credited. Locks are
// acquired in ascending id order regardless of transfer direction.
func (l *Ledger) Transfer(fromID, toID int64, amount decimal.Decimal) error {
	if fromID == toID {
		return fmt.Errorf("%w: account %d", ErrSameAccount, fromID)
	}
	if !amount.IsPositive() {
		return notPositive(amount)
	}
	from, ok := l.store.Find(fromID)
	if !ok {
		return notFound(fromID)
	}
	to, ok := l.store.Find(toID)
	if !ok {
		return notFound(toID)
	}

	first, second := from, to
	if toID < fromID {
		first, second = to, from
	}

	first.Lock()
	defer first.Unlock()
	second.Lock()
	defer second.Unlock()

	if err := debit(from, amount); err != nil {
		return err
	}
	// debit succeeded, credit cannot fail: the pair commits together.
	credit(to, amount)
	return nil
}

func credit(a *repository.Account, amount decimal.Decimal) {
	a.SetBalance(a.Balance().Add(amount))
}

func debit(a *repository.Account, amount decimal.Decimal) error {
	balance := a.Balance()
	if balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientBalance, balance, amount)
	}
	a.SetBalance(balance.Sub(amount))
	return nil
}

func snapshotOf(a *repository.Account) Snapshot {
	return Snapshot{ID: a.ID(), Balance: a.Balance()}
}

func notFound(id int64) error {
	return fmt.Errorf("%w: id %d", ErrAccountNotFound, id)
}

func notPositive(amount decimal.Decimal) error {
	return fmt.Errorf("%w: got %s", ErrAmountNotPositive, amount)
}
