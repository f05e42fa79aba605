package bidmock

import (
	"context"

	domain "nftloan-backend/internal/domain/bid"
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn       func(ctx context.Context, b *domain.Bid) error
	CloseFn        func(ctx context.Context, loanID uint64, status domain.Status) error
	ListByLoanIDFn func(ctx context.Context, loanID uint64) ([]*domain.Bid, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Create(ctx context.Context, b *domain.Bid) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, b)
	}
	return nil
}

func (m *Repo) Close(ctx context.Context, loanID uint64, status domain.Status) error {
	if m.CloseFn != nil {
		return m.CloseFn(ctx, loanID, status)
	}
	return nil
}

func (m *Repo) ListByLoanID(ctx context.Context, loanID uint64) ([]*domain.Bid, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, nil
}
