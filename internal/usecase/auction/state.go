package auction

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"nftloan-backend/internal/domain/escrow"
	"nftloan-backend/internal/domain/loan"
)

// GetLoan returns a copy of the loan. Repaid and defaulted loans stay
// queryable; delisted loans do not.
func (e *Engine) GetLoan(loanID uint64) (*loan.Loan, error) {
	l, err := e.lookup(loanID)
	if err != nil {
		return nil, err
	}
	return l.Clone(), nil
}

// GetActiveLoans returns a snapshot of the active index in no particular order.
func (e *Engine) GetActiveLoans() []uint64 { return e.active.snapshot() }

// EscrowedFunds is the value currently held for the loan's outstanding bid.
func (e *Engine) EscrowedFunds(loanID uint64) *uint256.Int { return e.escrow.Escrowed(loanID) }

// TotalEscrowed sums every outstanding bid.
func (e *Engine) TotalEscrowed() *uint256.Int { return e.escrow.Total() }

func (e *Engine) ProtocolFees() *uint256.Int { return new(uint256.Int).Set(e.protocolFees) }

// NextLoanID is the id the next List call will assign.
func (e *Engine) NextLoanID() uint64 { return e.nextID }

// ProtocolFeeBps is the fee rate applied to new quotes.
func (e *Engine) ProtocolFeeBps() uint64 { return e.feeBps() }

// State is a persisted image of the engine used to rebuild it at boot.
type State struct {
	// Loans that have not reached a terminal state.
	Loans        []*loan.Loan
	ProtocolFees *uint256.Int
	// NextID must exceed every id ever assigned, including delisted ones.
	NextID uint64
}

// Restore replaces the engine's state. Escrow is derived from the loans: a
// listed loan with a lender holds exactly its amount.
func (e *Engine) Restore(s State) error {
	if !e.busy.CompareAndSwap(false, true) {
		return loan.ErrReentrantCall
	}
	defer e.busy.Store(false)

	loans := make(map[uint64]*loan.Loan, len(s.Loans))
	ledger := escrow.NewLedger()
	active := newActiveIndex()
	next := s.NextID
	if next == 0 {
		next = 1
	}

	ordered := make([]*loan.Loan, 0, len(s.Loans))
	for _, l := range s.Loans {
		if l != nil {
			ordered = append(ordered, l)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	for _, in := range ordered {
		if in.State.Terminal() {
			return fmt.Errorf("restore loan %d: terminal state %s", in.ID, in.State)
		}
		if _, dup := loans[in.ID]; dup {
			return fmt.Errorf("restore loan %d: duplicate id", in.ID)
		}
		l := in.Clone()
		loans[l.ID] = l
		active.add(l.ID)
		if l.State == loan.StateListed && l.HasBid() {
			if err := ledger.Deposit(l.ID, l.Amount); err != nil {
				return fmt.Errorf("restore loan %d: %w", l.ID, err)
			}
		}
		if l.ID >= next {
			next = l.ID + 1
		}
	}

	fees := new(uint256.Int)
	if s.ProtocolFees != nil {
		fees.Set(s.ProtocolFees)
	}

	pLoans, pLedger, pActive, pFees, pNext := e.loans, e.escrow, e.active, e.protocolFees, e.nextID
	e.loans, e.escrow, e.active, e.protocolFees, e.nextID = loans, ledger, active, fees, next
	if err := e.checkInvariants(); err != nil {
		e.loans, e.escrow, e.active, e.protocolFees, e.nextID = pLoans, pLedger, pActive, pFees, pNext
		return err
	}
	return nil
}

// CheckInvariants verifies the bid, escrow, rate and index invariants over
// every live loan.
func (e *Engine) CheckInvariants() error { return e.checkInvariants() }

func (e *Engine) checkInvariants() error {
	for id, l := range e.loans {
		if l.InterestRate > l.MaxInterestRate {
			return fmt.Errorf("loan %d: rate %d above ceiling %d", id, l.InterestRate, l.MaxInterestRate)
		}
		held := e.escrow.Escrowed(id)
		if l.Accepted {
			if l.StartTime == 0 || !l.HasBid() {
				return fmt.Errorf("loan %d: accepted without start time or lender", id)
			}
			if !held.IsZero() {
				return fmt.Errorf("loan %d: accepted loan still holds escrow %s", id, held.Dec())
			}
		} else {
			hasEscrow := !held.IsZero()
			atCeiling := l.InterestRate == l.MaxInterestRate
			if l.HasBid() != hasEscrow || l.HasBid() == atCeiling {
				return fmt.Errorf("loan %d: bid, escrow and rate disagree", id)
			}
			if hasEscrow && !held.Eq(l.Amount) {
				return fmt.Errorf("loan %d: escrow %s differs from amount %s", id, held.Dec(), l.Amount.Dec())
			}
		}
		if e.active.contains(id) == l.State.Terminal() {
			return fmt.Errorf("loan %d: active index disagrees with state %s", id, l.State)
		}
	}
	if e.active.len() > len(e.loans) {
		return fmt.Errorf("active index holds %d ids for %d loans", e.active.len(), len(e.loans))
	}
	return nil
}
