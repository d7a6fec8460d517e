package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runInParallel starts every task on its own goroutine and fails the test
// if they do not all finish within the deadline (a hang here means a
// deadlock in the locking protocol).
func runInParallel(t *testing.T, tasks []func()) {
	t.Helper()
	done := make(chan struct{})
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task func()) {
			defer wg.Done()
			task()
		}(task)
	}
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("operations did not complete, likely deadlocked")
	}
}

func TestConcurrentCreateAccounts(t *testing.T) {
	l := newTestLedger()
	const n = 100

	tasks := make([]func(), n)
	for i := range tasks {
		tasks[i] = func() { l.CreateAccount() }
	}
	runInParallel(t, tasks)

	// Exactly ids 0..n-1 must exist, each with a zero balance.
	for id := int64(0); id < n; id++ {
		snap, err := l.GetAccount(id)
		require.NoError(t, err)
		assert.True(t, snap.Balance.IsZero())
	}
	_, err := l.GetAccount(n)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestConcurrentDepositsAndWithdrawals(t *testing.T) {
	l := newTestLedger()
	id := l.CreateAccount().ID
	const n = 100
	_, err := l.Deposit(id, decimal.NewFromInt(n))
	require.NoError(t, err)

	one := decimal.NewFromInt(1)
	var tasks []func()
	for i := 0; i < n; i++ {
		tasks = append(tasks,
			func() {
				_, err := l.Deposit(id, one)
				assert.NoError(t, err)
			},
			func() {
				_, err := l.Withdraw(id, one)
				assert.NoError(t, err)
			},
		)
	}
	runInParallel(t, tasks)

	assert.True(t, balanceOf(t, l, id).Equal(decimal.NewFromInt(n)))
}

func TestConcurrentTransfersOneDirection(t *testing.T) {
	l := newTestLedger()
	fromID := l.CreateAccount().ID
	toID := l.CreateAccount().ID
	const n = 100
	_, err := l.Deposit(fromID, decimal.NewFromInt(n))
	require.NoError(t, err)

	one := decimal.NewFromInt(1)
	tasks := make([]func(), n)
	for i := range tasks {
		tasks[i] = func() {
			assert.NoError(t, l.Transfer(fromID, toID, one))
		}
	}
	runInParallel(t, tasks)

	assert.True(t, balanceOf(t, l, fromID).IsZero())
	assert.True(t, balanceOf(t, l, toID).Equal(decimal.NewFromInt(n)))
}

// Opposite-direction transfers over the same pair of accounts are the
// classic deadlock shape; the ascending-id lock order must let all of
// them finish with the total conserved.
func TestConcurrentTransfersBothDirections(t *testing.T) {
	l := newTestLedger()
	aID := l.CreateAccount().ID
	bID := l.CreateAccount().ID
	const n = 100
	_, err := l.Deposit(aID, decimal.NewFromInt(n))
	require.NoError(t, err)
	_, err = l.Deposit(bID, decimal.NewFromInt(n))
	require.NoError(t, err)

	one := decimal.NewFromInt(1)
	var tasks []func()
	for i := 0; i < n; i++ {
		tasks = append(tasks,
			func() {
				if err := l.Transfer(aID, bID, one); err != nil {
					assert.ErrorIs(t, err, ErrInsufficientBalance)
				}
			},
			func() {
				if err := l.Transfer(bID, aID, one); err != nil {
					assert.ErrorIs(t, err, ErrInsufficientBalance)
				}
			},
		)
	}
	runInParallel(t, tasks)

	balanceA := balanceOf(t, l, aID)
	balanceB := balanceOf(t, l, bID)
	assert.True(t, balanceA.Add(balanceB).Equal(decimal.NewFromInt(2*n)), "conservation: got %s + %s", balanceA, balanceB)
	assert.False(t, balanceA.IsNegative())
	assert.False(t, balanceB.IsNegative())
}

// Balances must never be observable below zero, even while withdrawals
// race against reads.
func TestBalanceNeverObservedNegative(t *testing.T) {
	l := newTestLedger()
	id := l.CreateAccount().ID
	const n = 50
	_, err := l.Deposit(id, decimal.NewFromInt(n))
	require.NoError(t, err)

	one := decimal.NewFromInt(1)
	stop := make(chan struct{})
	var negative bool
	var readerWg sync.WaitGroup
	readerWg.Add(1)
	go func() {
		defer readerWg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap, err := l.GetAccount(id)
			if err == nil && snap.Balance.IsNegative() {
				negative = true
				return
			}
		}
	}()

	tasks := make([]func(), 2*n)
	for i := range tasks {
		tasks[i] = func() {
			if _, err := l.Withdraw(id, one); err != nil {
				assert.True(t, errors.Is(err, ErrInsufficientBalance))
			}
		}
	}
	runInParallel(t, tasks)
	close(stop)
	readerWg.Wait()

	assert.False(t, negative, "a reader observed a negative balance")
	assert.True(t, balanceOf(t, l, id).IsZero())
}
