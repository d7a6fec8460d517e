package service

import "errors"

// Sentinel errors for every expected failure. All of them are recoverable
// by the caller; the ledger never retries or swallows them, and a failed
// operation leaves every balance unchanged.
var (
	ErrAccountNotFound     = errors.New("ledger: account not found")
	ErrAmountNotPositive   = errors.New("ledger: amount must be positive")
	ErrSameAccount         = errors.New("ledger: transfer source and destination are the same")
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
)
