package loan

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type State string

const (
	StateListed    State = "listed"
	StateActive    State = "active"
	StateRepaid    State = "repaid"
	StateDefaulted State = "defaulted"
	StateDelisted  State = "delisted"
)

// Terminal reports whether no further transition can leave the state.
func (s State) Terminal() bool {
	return s == StateRepaid || s == StateDefaulted || s == StateDelisted
}

// BasisPoints is the denominator for every rate in the system.
const BasisPoints = 10_000

// CollateralRef points at a unique asset: the issuing contract plus its token id.
type CollateralRef struct {
	Contract common.Address
	TokenID  *uint256.Int
}

func (c CollateralRef) String() string {
	id := "0"
	if c.TokenID != nil {
		id = c.TokenID.Dec()
	}
	return c.Contract.Hex() + "/" + id
}

func (c CollateralRef) Clone() CollateralRef {
	out := CollateralRef{Contract: c.Contract, TokenID: new(uint256.Int)}
	if c.TokenID != nil {
		out.TokenID.Set(c.TokenID)
	}
	return out
}

// Loan is the authoritative record owned by the auction engine.
// A zero Lender means no bid is outstanding.
type Loan struct {
	ID              uint64
	Borrower        common.Address
	Lender          common.Address
	Collateral      CollateralRef
	Amount          *uint256.Int
	MaxInterestRate uint64
	InterestRate    uint64
	Duration        uint64
	StartTime       uint64
	Accepted        bool
	State           State
}

func (l *Loan) HasBid() bool { return l.Lender != (common.Address{}) }

// Deadline is the last second at which repayment is still accepted.
// Zero until the loan is accepted.
func (l *Loan) Deadline() uint64 {
	if !l.Accepted {
		return 0
	}
	return l.StartTime + l.Duration
}

// Expired reports whether an accepted loan is past its deadline at now.
func (l *Loan) Expired(now uint64) bool {
	return l.Accepted && now > l.Deadline()
}

// Clone returns a deep copy safe to hand outside the engine.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	out := *l
	out.Collateral = l.Collateral.Clone()
	out.Amount = new(uint256.Int)
	if l.Amount != nil {
		out.Amount.Set(l.Amount)
	}
	return &out
}
