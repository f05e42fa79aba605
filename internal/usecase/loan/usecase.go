package loan

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nftloan-backend/internal/domain/bid"
	domain "nftloan-backend/internal/domain/loan"
	"nftloan-backend/internal/domain/uow"
	"nftloan-backend/internal/infrastructure/metrics"
	"nftloan-backend/internal/usecase/auction"
)

// Usecase is the application service in front of the auction engine. It
// serializes every caller, persists each committed transition in one
// database transaction and serves history for loans no longer in memory.
type Usecase struct {
	mu      sync.RWMutex
	engine  *auction.Engine
	uow     uow.UnitOfWork
	metrics *metrics.AuctionMetrics
	logger  *zap.Logger
}

var _ auction.Store = (*Usecase)(nil)

// NewUsecase installs itself as the engine's Store. m may be nil.
func NewUsecase(engine *auction.Engine, tx uow.UnitOfWork, m *metrics.AuctionMetrics, logger *zap.Logger) *Usecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	u := &Usecase{engine: engine, uow: tx, metrics: m, logger: logger.Named("loans")}
	engine.SetStore(u)
	return u
}

// Restore rebuilds the engine from the open loans and treasury balance.
func (u *Usecase) Restore(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	var st auction.State
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		open, err := r.Loans.ListOpen(ctx)
		if err != nil {
			return fmt.Errorf("list open loans: %w", err)
		}
		maxID, err := r.Loans.MaxID(ctx)
		if err != nil {
			return fmt.Errorf("max loan id: %w", err)
		}
		fees := new(uint256.Int)
		t, err := r.Treasury.Get(ctx)
		switch {
		case err == nil:
			if fees, err = uint256.FromDecimal(t.FeeBalance); err != nil {
				return fmt.Errorf("treasury fee balance %q: %w", t.FeeBalance, err)
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		st = auction.State{Loans: open, ProtocolFees: fees, NextID: maxID + 1}
		return nil
	})
	if err != nil {
		return err
	}
	if err := u.engine.Restore(st); err != nil {
		return err
	}
	u.observeBook()
	u.logger.Info("engine restored",
		zap.Int("open_loans", len(st.Loans)),
		zap.Uint64("next_id", u.engine.NextLoanID()),
		zap.String("protocol_fees", st.ProtocolFees.Dec()))
	return nil
}

// Commit persists one engine transition. A failure here unwinds the
// transition inside the engine.
func (u *Usecase) Commit(ctx context.Context, c auction.Change) error {
	if u.uow == nil {
		return errors.New("loans: nil unit of work")
	}
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := persistLoan(ctx, r, c); err != nil {
			return err
		}
		switch c.Op {
		case auction.OpRepay, auction.OpClaimDefault, auction.OpWithdrawFees:
			return r.Treasury.SetFeeBalance(ctx, c.ProtocolFees.Dec())
		}
		return nil
	})
}

func persistLoan(ctx context.Context, r uow.Repos, c auction.Change) error {
	if c.Loan == nil {
		return nil
	}
	l := c.Loan
	if err := r.Loans.Save(ctx, l); err != nil {
		return err
	}

	switch c.Op {
	case auction.OpPlaceBid:
		if c.PreviousLender != (common.Address{}) {
			if err := r.Bids.Close(ctx, l.ID, bid.StatusOutbid); err != nil {
				return err
			}
		}
		return r.Bids.Create(ctx, &bid.Bid{
			LoanID:  l.ID,
			Lender:  l.Lender.Hex(),
			RateBps: l.InterestRate,
			Amount:  l.Amount.Dec(),
			Status:  bid.StatusPlaced,
		})
	case auction.OpCancelBid:
		return r.Bids.Close(ctx, l.ID, bid.StatusCancelled)
	case auction.OpAccept:
		return r.Bids.Close(ctx, l.ID, bid.StatusAccepted)
	case auction.OpDelist:
		if c.PreviousLender != (common.Address{}) {
			if err := r.Bids.Close(ctx, l.ID, bid.StatusRefunded); err != nil {
				return err
			}
		}
		return r.Loans.Delete(ctx, l.ID)
	}
	return nil
}

// run serializes one mutating engine call and records its outcome.
func (u *Usecase) run(op auction.Op, fn func() error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	err := fn()
	if err != nil {
		kind := domain.KindOf(err)
		u.metrics.ObserveRejection(string(op), kind.String())
		if kind == domain.KindExternalFailure || kind == domain.KindUnknown {
			u.logger.Error("operation failed", zap.String("op", string(op)), zap.Error(err))
		} else {
			u.logger.Debug("operation rejected", zap.String("op", string(op)), zap.Error(err))
		}
		return err
	}
	u.metrics.ObserveOperation(string(op))
	u.observeBook()
	return nil
}

func (u *Usecase) observeBook() {
	if u.metrics == nil {
		return
	}
	u.metrics.SetBook(len(u.engine.GetActiveLoans()), u.engine.TotalEscrowed().Float64(), u.engine.ProtocolFees().Float64())
}

func (u *Usecase) dto(l *domain.Loan) *LoanDTO {
	return toDTO(l, u.engine.EscrowedFunds(l.ID))
}

func (u *Usecase) List(ctx context.Context, in ListLoanInput) (*LoanDTO, error) {
	var out *LoanDTO
	err := u.run(auction.OpList, func() error {
		l, err := u.engine.List(ctx, auction.ListInput{
			Borrower:        in.Borrower,
			Collateral:      domain.CollateralRef{Contract: in.Contract, TokenID: in.TokenID},
			Amount:          in.Amount,
			MaxInterestRate: in.MaxInterestRate,
			Duration:        in.Duration,
		})
		if err != nil {
			return err
		}
		out = u.dto(l)
		u.logger.Info("loan listed", zap.Uint64("loan_id", l.ID), zap.String("borrower", l.Borrower.Hex()),
			zap.String("collateral", l.Collateral.String()))
		return nil
	})
	return out, err
}

func (u *Usecase) PlaceBid(ctx context.Context, loanID uint64, bidder common.Address, rateBps uint64, value *uint256.Int) (*LoanDTO, error) {
	var out *LoanDTO
	err := u.run(auction.OpPlaceBid, func() error {
		l, err := u.engine.PlaceBid(ctx, loanID, bidder, rateBps, value)
		if err != nil {
			return err
		}
		out = u.dto(l)
		u.logger.Info("bid placed", zap.Uint64("loan_id", l.ID), zap.String("lender", l.Lender.Hex()), zap.Uint64("rate_bps", rateBps))
		return nil
	})
	return out, err
}

func (u *Usecase) AcceptLoan(ctx context.Context, loanID uint64, caller common.Address) (*LoanDTO, error) {
	return u.transition(auction.OpAccept, func() (*domain.Loan, error) {
		return u.engine.AcceptLoan(ctx, loanID, caller)
	})
}

func (u *Usecase) CancelBid(ctx context.Context, loanID uint64, caller common.Address) (*LoanDTO, error) {
	return u.transition(auction.OpCancelBid, func() (*domain.Loan, error) {
		return u.engine.CancelBid(ctx, loanID, caller)
	})
}

func (u *Usecase) DelistLoan(ctx context.Context, loanID uint64, caller common.Address) (*LoanDTO, error) {
	return u.transition(auction.OpDelist, func() (*domain.Loan, error) {
		return u.engine.DelistLoan(ctx, loanID, caller)
	})
}

func (u *Usecase) RepayLoan(ctx context.Context, loanID uint64, caller common.Address, value *uint256.Int) (*LoanDTO, error) {
	return u.transition(auction.OpRepay, func() (*domain.Loan, error) {
		return u.engine.RepayLoan(ctx, loanID, caller, value)
	})
}

func (u *Usecase) ClaimDefaultedLoan(ctx context.Context, loanID uint64, caller common.Address, value *uint256.Int) (*LoanDTO, error) {
	return u.transition(auction.OpClaimDefault, func() (*domain.Loan, error) {
		return u.engine.ClaimDefaultedLoan(ctx, loanID, caller, value)
	})
}

func (u *Usecase) transition(op auction.Op, fn func() (*domain.Loan, error)) (*LoanDTO, error) {
	var out *LoanDTO
	err := u.run(op, func() error {
		l, err := fn()
		if err != nil {
			return err
		}
		out = u.dto(l)
		u.logger.Info("loan "+string(op), zap.Uint64("loan_id", l.ID), zap.String("state", string(l.State)))
		return nil
	})
	return out, err
}

// WithdrawProtocolFees returns the withdrawn amount.
func (u *Usecase) WithdrawProtocolFees(ctx context.Context, caller, to common.Address) (*uint256.Int, error) {
	var out *uint256.Int
	err := u.run(auction.OpWithdrawFees, func() error {
		amount, err := u.engine.WithdrawProtocolFees(ctx, caller, to)
		if err != nil {
			return err
		}
		out = amount
		u.logger.Info("protocol fees withdrawn", zap.String("to", to.Hex()), zap.String("amount", amount.Dec()))
		return nil
	})
	return out, err
}

// GetLoan falls back to the repository for loans that are no longer held
// by the engine; delisted loans stay not found.
func (u *Usecase) GetLoan(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	u.mu.RLock()
	l, err := u.engine.GetLoan(loanID)
	if err == nil {
		dto := u.dto(l)
		u.mu.RUnlock()
		return dto, nil
	}
	u.mu.RUnlock()
	if !errors.Is(err, domain.ErrLoanNotFound) {
		return nil, err
	}

	var stored *domain.Loan
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var gerr error
		stored, gerr = r.Loans.GetByID(ctx, loanID)
		return gerr
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDTO(stored, nil), nil
}

func (u *Usecase) GetRequiredRepayment(loanID uint64) (*uint256.Int, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.engine.GetRequiredRepayment(loanID)
}

func (u *Usecase) Quote(loanID uint64) (*QuoteDTO, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	q, err := u.engine.Quote(loanID)
	if err != nil {
		return nil, err
	}
	return &QuoteDTO{
		LoanID:         loanID,
		ProtocolFeeBps: u.engine.ProtocolFeeBps(),
		Interest:       q.Interest.Dec(),
		Repayment:      q.Repayment.Dec(),
		BorrowerFee:    q.BorrowerFee.Dec(),
		LenderFee:      q.LenderFee.Dec(),
		Total:          q.Total.Dec(),
		LenderPayout:   q.LenderPayout.Dec(),
	}, nil
}

func (u *Usecase) GetActiveLoans() []uint64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.engine.GetActiveLoans()
}

func (u *Usecase) ListBids(ctx context.Context, loanID uint64) ([]*bid.Bid, error) {
	var out []*bid.Bid
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		out, err = r.Bids.ListByLoanID(ctx, loanID)
		return err
	})
	return out, err
}

func (u *Usecase) Stats() *StatsDTO {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return &StatsDTO{
		ActiveLoans:    len(u.engine.GetActiveLoans()),
		NextLoanID:     u.engine.NextLoanID(),
		TotalEscrowed:  u.engine.TotalEscrowed().Dec(),
		ProtocolFees:   u.engine.ProtocolFees().Dec(),
		ProtocolFeeBps: u.engine.ProtocolFeeBps(),
	}
}
