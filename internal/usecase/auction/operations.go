package auction

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"nftloan-backend/internal/domain/loan"
)

// ListInput carries the borrower's terms for a new loan.
type ListInput struct {
	Borrower        common.Address
	Collateral      loan.CollateralRef
	Amount          *uint256.Int
	MaxInterestRate uint64
	Duration        uint64
}

func (e *Engine) feeBps() uint64 {
	if e.fees == nil {
		return 0
	}
	if r := e.fees.ProtocolFeeBps(); r <= loan.MaxProtocolFeeBps {
		return r
	}
	return loan.MaxProtocolFeeBps
}

// lookup returns the live record for loanID. Delisted loans are gone.
func (e *Engine) lookup(loanID uint64) (*loan.Loan, error) {
	l, ok := e.loans[loanID]
	if !ok {
		return nil, loan.ErrLoanNotFound
	}
	return l, nil
}

// List escrows the collateral and opens a loan with no bid.
func (e *Engine) List(ctx context.Context, in ListInput) (*loan.Loan, error) {
	var out *loan.Loan
	err := e.exec(ctx, OpList, func(tx *txn) error {
		if in.Borrower == (common.Address{}) {
			return loan.ErrInvalidAccount
		}
		if in.Amount == nil || in.Amount.IsZero() || in.Duration == 0 || in.Collateral.TokenID == nil {
			return loan.ErrInvalidLoanTerms
		}
		if e.allow == nil || !e.allow.IsAllowed(in.Collateral.Contract) {
			return loan.ErrAssetNotAllowed
		}
		holder, err := e.custody.OwnerOf(ctx, in.Collateral)
		if err != nil {
			return loan.External("owner of", err)
		}
		if holder != in.Borrower {
			return loan.ErrNotOwner
		}

		l := &loan.Loan{
			ID:              e.nextID,
			Borrower:        in.Borrower,
			Collateral:      in.Collateral.Clone(),
			Amount:          new(uint256.Int).Set(in.Amount),
			MaxInterestRate: in.MaxInterestRate,
			InterestRate:    in.MaxInterestRate,
			Duration:        in.Duration,
			State:           loan.StateListed,
		}
		e.nextID++
		e.loans[l.ID] = l
		e.active.add(l.ID)
		tx.onUndo(func() {
			e.active.remove(l.ID)
			delete(e.loans, l.ID)
			e.nextID--
		})

		if err := tx.moveAsset(l.Collateral, in.Borrower, e.cfg.Vault); err != nil {
			return err
		}
		tx.record(l, loan.EventListed, common.Address{})
		out = l.Clone()
		return nil
	})
	return out, err
}

// PlaceBid escrows value from bidder at a strictly better rate and refunds
// the bid it supersedes.
func (e *Engine) PlaceBid(ctx context.Context, loanID uint64, bidder common.Address, rateBps uint64, value *uint256.Int) (*loan.Loan, error) {
	var out *loan.Loan
	err := e.exec(ctx, OpPlaceBid, func(tx *txn) error {
		l, err := e.lookup(loanID)
		if err != nil {
			return err
		}
		if bidder == (common.Address{}) {
			return loan.ErrInvalidAccount
		}
		if l.Accepted {
			return loan.ErrLoanAlreadyAccepted
		}
		if rateBps > l.MaxInterestRate {
			return loan.ErrRateAboveCeiling
		}
		if rateBps >= l.InterestRate {
			return loan.ErrRateNotImproved
		}
		if value == nil || !value.Eq(l.Amount) {
			return loan.ErrIncorrectValue
		}

		if err := tx.receive(bidder, value); err != nil {
			return err
		}

		tx.saveLoan(l)
		refund, err := tx.setEscrow(l.ID, value)
		if err != nil {
			return err
		}
		prev := l.Lender
		l.Lender = bidder
		l.InterestRate = rateBps

		if prev != (common.Address{}) {
			if err := tx.pay(prev, refund); err != nil {
				return err
			}
		}
		tx.record(l, loan.EventBidPlaced, prev)
		out = l.Clone()
		return nil
	})
	return out, err
}

// AcceptLoan starts the loan and releases the escrowed principal to the
// borrower.
func (e *Engine) AcceptLoan(ctx context.Context, loanID uint64, caller common.Address) (*loan.Loan, error) {
	var out *loan.Loan
	err := e.exec(ctx, OpAccept, func(tx *txn) error {
		l, err := e.lookup(loanID)
		if err != nil {
			return err
		}
		if caller != l.Borrower {
			return loan.ErrNotBorrower
		}
		if l.Accepted {
			return loan.ErrLoanAlreadyAccepted
		}
		if !l.HasBid() {
			return loan.ErrNoBidYet
		}

		tx.saveLoan(l)
		principal, err := tx.setEscrow(l.ID, nil)
		if err != nil {
			return err
		}
		l.Accepted = true
		l.StartTime = e.now()
		l.State = loan.StateActive

		if err := tx.pay(l.Borrower, principal); err != nil {
			return err
		}
		tx.record(l, loan.EventAccepted, common.Address{})
		out = l.Clone()
		return nil
	})
	return out, err
}

// CancelBid withdraws the caller's outstanding bid and resets the rate to the
// borrower's ceiling.
func (e *Engine) CancelBid(ctx context.Context, loanID uint64, caller common.Address) (*loan.Loan, error) {
	var out *loan.Loan
	err := e.exec(ctx, OpCancelBid, func(tx *txn) error {
		l, err := e.lookup(loanID)
		if err != nil {
			return err
		}
		if !l.HasBid() || caller != l.Lender {
			return loan.ErrNotLender
		}
		if l.Accepted {
			return loan.ErrLoanAlreadyAccepted
		}

		tx.saveLoan(l)
		refund, err := tx.setEscrow(l.ID, nil)
		if err != nil {
			return err
		}
		prev := l.Lender
		l.Lender = common.Address{}
		l.InterestRate = l.MaxInterestRate

		if err := tx.pay(prev, refund); err != nil {
			return err
		}
		tx.record(l, loan.EventBidCancelled, prev)
		out = l.Clone()
		return nil
	})
	return out, err
}

// DelistLoan withdraws a loan that was never accepted: any bid is refunded,
// the collateral goes back to the borrower and the record is removed.
func (e *Engine) DelistLoan(ctx context.Context, loanID uint64, caller common.Address) (*loan.Loan, error) {
	var out *loan.Loan
	err := e.exec(ctx, OpDelist, func(tx *txn) error {
		l, err := e.lookup(loanID)
		if err != nil {
			return err
		}
		if caller != l.Borrower {
			return loan.ErrNotBorrower
		}
		if l.Accepted {
			return loan.ErrLoanAlreadyAccepted
		}

		tx.saveLoan(l)
		refund, err := tx.setEscrow(l.ID, nil)
		if err != nil {
			return err
		}
		lender := l.Lender
		l.State = loan.StateDelisted
		delete(e.loans, l.ID)
		tx.deactivate(l.ID)
		tx.onUndo(func() { e.loans[l.ID] = l })

		if lender != (common.Address{}) {
			if err := tx.pay(lender, refund); err != nil {
				return err
			}
		}
		if err := tx.moveAsset(l.Collateral, e.cfg.Vault, l.Borrower); err != nil {
			return err
		}
		tx.record(l, loan.EventDelisted, lender)
		out = l.Clone()
		return nil
	})
	return out, err
}

// GetRequiredRepayment is the exact value the borrower must supply to repay.
func (e *Engine) GetRequiredRepayment(loanID uint64) (*uint256.Int, error) {
	q, err := e.Quote(loanID)
	if err != nil {
		return nil, err
	}
	return q.Total, nil
}

// Quote returns the full settlement breakdown at the current fee rate.
func (e *Engine) Quote(loanID uint64) (Quote, error) {
	l, err := e.lookup(loanID)
	if err != nil {
		return Quote{}, err
	}
	if !l.Accepted {
		return Quote{}, loan.ErrNotAccepted
	}
	return quote(l.Amount, l.InterestRate, e.feeBps())
}

// RepayLoan settles an active loan before its deadline. value must equal
// GetRequiredRepayment exactly.
func (e *Engine) RepayLoan(ctx context.Context, loanID uint64, caller common.Address, value *uint256.Int) (*loan.Loan, error) {
	var out *loan.Loan
	err := e.exec(ctx, OpRepay, func(tx *txn) error {
		l, err := e.lookup(loanID)
		if err != nil {
			return err
		}
		if caller != l.Borrower {
			return loan.ErrNotBorrower
		}
		if !l.Accepted {
			return loan.ErrNotAccepted
		}
		if l.State.Terminal() {
			return loan.ErrLoanClosed
		}
		if l.Expired(e.now()) {
			return loan.ErrDurationExpired
		}
		q, err := quote(l.Amount, l.InterestRate, e.feeBps())
		if err != nil {
			return err
		}
		if value == nil || !value.Eq(q.Total) {
			return loan.ErrIncorrectValue
		}

		if err := tx.receive(caller, value); err != nil {
			return err
		}

		tx.saveLoan(l)
		if err := tx.addProtocolFees(q.ProtocolCut()); err != nil {
			return err
		}
		l.State = loan.StateRepaid
		tx.deactivate(l.ID)

		if err := tx.moveAsset(l.Collateral, e.cfg.Vault, l.Borrower); err != nil {
			return err
		}
		if err := tx.pay(l.Lender, q.LenderPayout); err != nil {
			return err
		}
		tx.record(l, loan.EventRepaid, common.Address{})
		out = l.Clone()
		return nil
	})
	return out, err
}

// ClaimDefaultedLoan hands the collateral of an expired loan to its lender.
// The caller supplies the lender fee, which must match exactly.
func (e *Engine) ClaimDefaultedLoan(ctx context.Context, loanID uint64, caller common.Address, value *uint256.Int) (*loan.Loan, error) {
	var out *loan.Loan
	err := e.exec(ctx, OpClaimDefault, func(tx *txn) error {
		l, err := e.lookup(loanID)
		if err != nil {
			return err
		}
		if !l.Accepted {
			return loan.ErrNotAccepted
		}
		if l.State.Terminal() {
			return loan.ErrLoanClosed
		}
		if !l.Expired(e.now()) {
			return loan.ErrNotExpired
		}
		q, err := quote(l.Amount, l.InterestRate, e.feeBps())
		if err != nil {
			return err
		}
		if value == nil || !value.Eq(q.LenderFee) {
			return loan.ErrIncorrectValue
		}

		if err := tx.receive(caller, value); err != nil {
			return err
		}

		tx.saveLoan(l)
		if err := tx.addProtocolFees(q.LenderFee); err != nil {
			return err
		}
		l.State = loan.StateDefaulted
		tx.deactivate(l.ID)

		if err := tx.moveAsset(l.Collateral, e.cfg.Vault, l.Lender); err != nil {
			return err
		}
		tx.record(l, loan.EventDefaulted, common.Address{})
		out = l.Clone()
		return nil
	})
	return out, err
}

// WithdrawProtocolFees pays the whole accumulated fee balance to `to`.
func (e *Engine) WithdrawProtocolFees(ctx context.Context, caller, to common.Address) (*uint256.Int, error) {
	var out *uint256.Int
	err := e.exec(ctx, OpWithdrawFees, func(tx *txn) error {
		if caller != e.cfg.Owner {
			return loan.ErrNotProtocolOwner
		}
		if to == (common.Address{}) {
			return loan.ErrInvalidAccount
		}
		if e.protocolFees.IsZero() {
			return loan.ErrNoProtocolFees
		}

		amount := e.protocolFees
		e.protocolFees = new(uint256.Int)
		tx.onUndo(func() { e.protocolFees = amount })

		if err := tx.pay(to, amount); err != nil {
			return err
		}
		tx.change = &Change{Op: OpWithdrawFees}
		out = new(uint256.Int).Set(amount)
		return nil
	})
	return out, err
}
