// Package repository owns account records and their identity. The store is
// the single authority for which accounts exist: the same id always resolves
// to the same *Account, and therefore to the same mutex.
package repository

import (
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// Account is a single ledger account. The id is assigned by the store and
// never changes. The committed balance is published through an atomic
// pointer, so readers taking a snapshot never observe a half-applied
// update; mutating it additionally requires holding the account mutex.
type Account struct {
	id      int64
	mu      sync.Mutex
	balance atomic.Pointer[decimal.Decimal]
}

func newAccount(id int64) *Account {
	a := &Account{id: id}
	zero := decimal.Zero
	a.balance.Store(&zero)
	return a
}

func (a *Account) ID() int64 { return a.id }

// Balance returns the most recently committed balance without taking the
// account mutex.
func (a *Account) Balance() decimal.Decimal { return *a.balance.Load() }

// SetBalance publishes a new committed balance. The caller must hold the
// account mutex.
func (a *Account) SetBalance(balance decimal.Decimal) { a.balance.Store(&balance) }

// Lock acquires the account's exclusive mutation lock.
func (a *Account) Lock() { a.mu.Lock() }

// Unlock releases the account's mutation lock.
func (a *Account) Unlock() { a.mu.Unlock() }

// AccountStore holds every account for the lifetime of the process.
// Accounts are never deleted and ids are never reused.
type AccountStore struct {
	accounts sync.Map // int64 -> *Account
	nextID   atomic.Int64
}

func NewAccountStore() *AccountStore {
	return &AccountStore{}
}

// Create allocates the next sequential id and publishes a fresh account
// with a zero balance. Ids are dense: after N calls, in any order and from
// any number of goroutines, the store holds exactly ids 0..N-1.
func (s *AccountStore) Create() *Account {
	id := s.nextID.Add(1) - 1
	a := newAccount(id)
	s.accounts.Store(id, a)
	return a
}

// Find returns the account with the given id, if it exists. It never
// blocks on mutation locks held by other operations.
func (s *AccountStore) Find(id int64) (*Account, bool) {
	v, ok := s.accounts.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Account), true
}

// Len returns the number of ids handed out so far.
func (s *AccountStore) Len() int {
	return int(s.nextID.Load())
}
