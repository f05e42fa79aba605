package auction

import (
	"github.com/holiman/uint256"

	"nftloan-backend/internal/domain/loan"
)

var bps = uint256.NewInt(loan.BasisPoints)

// Quote breaks down what settling an accepted loan costs.
//
// The protocol rate is charged twice on the same pre-fee Repayment: once on
// top of what the borrower pays (BorrowerFee) and once out of what the lender
// receives (LenderFee).
type Quote struct {
	Interest    *uint256.Int
	Repayment   *uint256.Int
	BorrowerFee *uint256.Int
	LenderFee   *uint256.Int
	// Total is what the borrower must supply to repay.
	Total *uint256.Int
	// LenderPayout is what the lender receives on repayment.
	LenderPayout *uint256.Int
}

// ProtocolCut is what the protocol retains on repayment.
func (q Quote) ProtocolCut() *uint256.Int {
	return new(uint256.Int).Add(q.BorrowerFee, q.LenderFee)
}

func mulBps(x *uint256.Int, rate uint64) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulDivOverflow(x, uint256.NewInt(rate), bps)
	if overflow {
		return nil, loan.ErrMathOverflow
	}
	return z, nil
}

// quote computes settlement amounts with truncating integer division.
func quote(amount *uint256.Int, rateBps, feeBps uint64) (Quote, error) {
	interest, err := mulBps(amount, rateBps)
	if err != nil {
		return Quote{}, err
	}
	repayment, overflow := new(uint256.Int).AddOverflow(amount, interest)
	if overflow {
		return Quote{}, loan.ErrMathOverflow
	}
	fee, err := mulBps(repayment, feeBps)
	if err != nil {
		return Quote{}, err
	}
	total, overflow := new(uint256.Int).AddOverflow(repayment, fee)
	if overflow {
		return Quote{}, loan.ErrMathOverflow
	}
	return Quote{
		Interest:     interest,
		Repayment:    repayment,
		BorrowerFee:  fee,
		LenderFee:    new(uint256.Int).Set(fee),
		Total:        total,
		LenderPayout: new(uint256.Int).Sub(repayment, fee),
	}, nil
}
