package events

import (
	"encoding/json"

	domain "nftloan-backend/internal/domain/loan"
)

// Message is the JSON document published for every loan event.
type Message struct {
	EventID    string      `json:"event_id"`
	Event      string      `json:"event"`
	OccurredAt int64       `json:"occurred_at"`
	Loan       LoanPayload `json:"loan"`
}

type LoanPayload struct {
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
	Accepted        bool   `json:"accepted"`
	State           string `json:"state"`
}

func toMessage(ev domain.Event) Message {
	m := Message{
		EventID:    ev.ID,
		Event:      string(ev.Name),
		OccurredAt: ev.OccurredAt.Unix(),
	}
	l := ev.Loan
	if l == nil {
		return m
	}
	m.Loan = LoanPayload{
		ID:              l.ID,
		Borrower:        l.Borrower.Hex(),
		Contract:        l.Collateral.Contract.Hex(),
		TokenID:         "0",
		Amount:          "0",
		MaxInterestRate: l.MaxInterestRate,
		InterestRate:    l.InterestRate,
		Duration:        l.Duration,
		StartTime:       l.StartTime,
		Accepted:        l.Accepted,
		State:           string(l.State),
	}
	if l.HasBid() {
		m.Loan.Lender = l.Lender.Hex()
	}
	if l.Collateral.TokenID != nil {
		m.Loan.TokenID = l.Collateral.TokenID.Dec()
	}
	if l.Amount != nil {
		m.Loan.Amount = l.Amount.Dec()
	}
	return m
}

// Encode renders ev the way it is published on the wire.
func Encode(ev domain.Event) ([]byte, error) {
	return json.Marshal(toMessage(ev))
}
