package loan

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	domain "nftloan-backend/internal/domain/loan"
)

type ListLoanInput struct {
	Borrower        common.Address
	Contract        common.Address
	TokenID         *uint256.Int
	Amount          *uint256.Int
	MaxInterestRate uint64
	Duration        uint64
}

type LoanDTO struct {
	ID              uint64 `json:"id"`
	Borrower        string `json:"borrower"`
	Lender          string `json:"lender,omitempty"`
	Contract        string `json:"collateral_contract"`
	TokenID         string `json:"collateral_token_id"`
	Amount          string `json:"amount"`
	MaxInterestRate uint64 `json:"max_interest_rate_bps"`
	InterestRate    uint64 `json:"interest_rate_bps"`
	Duration        uint64 `json:"duration_seconds"`
	StartTime       uint64 `json:"start_time,omitempty"`
	Deadline        uint64 `json:"deadline,omitempty"`
	Accepted        bool   `json:"accepted"`
	State           string `json:"state"`
	Escrowed        string `json:"escrowed"`
}

type QuoteDTO struct {
	LoanID         uint64 `json:"loan_id"`
	ProtocolFeeBps uint64 `json:"protocol_fee_bps"`
	Interest       string `json:"interest"`
	Repayment      string `json:"repayment"`
	BorrowerFee    string `json:"borrower_fee"`
	LenderFee      string `json:"lender_fee"`
	Total          string `json:"total"`
	LenderPayout   string `json:"lender_payout"`
}

type StatsDTO struct {
	ActiveLoans    int    `json:"active_loans"`
	NextLoanID     uint64 `json:"next_loan_id"`
	TotalEscrowed  string `json:"total_escrowed"`
	ProtocolFees   string `json:"protocol_fees"`
	ProtocolFeeBps uint64 `json:"protocol_fee_bps"`
}

func toDTO(l *domain.Loan, escrowed *uint256.Int) *LoanDTO {
	dto := &LoanDTO{
		ID:              l.ID,
		Borrower:        l.Borrower.Hex(),
		Contract:        l.Collateral.Contract.Hex(),
		MaxInterestRate: l.MaxInterestRate,
		InterestRate:    l.InterestRate,
		Duration:        l.Duration,
		StartTime:       l.StartTime,
		Accepted:        l.Accepted,
		State:           string(l.State),
		Escrowed:        "0",
	}
	if l.HasBid() {
		dto.Lender = l.Lender.Hex()
	}
	if l.Collateral.TokenID != nil {
		dto.TokenID = l.Collateral.TokenID.Dec()
	}
	if l.Amount != nil {
		dto.Amount = l.Amount.Dec()
	}
	if l.Accepted {
		dto.Deadline = l.Deadline()
	}
	if escrowed != nil {
		dto.Escrowed = escrowed.Dec()
	}
	return dto
}
