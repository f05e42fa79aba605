// Package escrow keeps per-loan bookkeeping of bidder funds held by the
// protocol. It never moves value itself; callers pair every ledger change
// with a transfer after the ledger reflects the new committed amount.
package escrow

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	ErrAlreadyFunded = errors.New("escrow: loan already holds funds")
	ErrZeroAmount    = errors.New("escrow: amount must be positive")
)

// Ledger is not safe for concurrent use; the owning engine serializes access.
type Ledger struct {
	held map[uint64]*uint256.Int
}

func NewLedger() *Ledger {
	return &Ledger{held: make(map[uint64]*uint256.Int)}
}

// Deposit records amount for a loan that currently holds nothing.
func (l *Ledger) Deposit(loanID uint64, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrZeroAmount
	}
	if cur, ok := l.held[loanID]; ok && !cur.IsZero() {
		return ErrAlreadyFunded
	}
	l.held[loanID] = new(uint256.Int).Set(amount)
	return nil
}

// Replace swaps the held amount and returns what was held before (zero when
// nothing was).
func (l *Ledger) Replace(loanID uint64, amount *uint256.Int) (*uint256.Int, error) {
	if amount == nil || amount.IsZero() {
		return nil, ErrZeroAmount
	}
	old := l.Escrowed(loanID)
	l.held[loanID] = new(uint256.Int).Set(amount)
	return old, nil
}

// Clear zeroes the loan's entry and returns what was held.
func (l *Ledger) Clear(loanID uint64) *uint256.Int {
	old := l.Escrowed(loanID)
	delete(l.held, loanID)
	return old
}

// Escrowed returns a copy of the amount held for loanID.
func (l *Ledger) Escrowed(loanID uint64) *uint256.Int {
	if cur, ok := l.held[loanID]; ok {
		return new(uint256.Int).Set(cur)
	}
	return new(uint256.Int)
}

// Total sums every held amount. It saturates rather than wrapping.
func (l *Ledger) Total() *uint256.Int {
	sum := new(uint256.Int)
	for _, v := range l.held {
		if _, overflow := sum.AddOverflow(sum, v); overflow {
			return new(uint256.Int).SetAllOne()
		}
	}
	return sum
}

// Len is the number of loans with a non-zero balance.
func (l *Ledger) Len() int { return len(l.held) }
