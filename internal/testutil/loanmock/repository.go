package loanmock

import (
	"context"

	domain "nftloan-backend/internal/domain/loan"
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	SaveFn     func(ctx context.Context, l *domain.Loan) error
	DeleteFn   func(ctx context.Context, id uint64) error
	GetByIDFn  func(ctx context.Context, id uint64) (*domain.Loan, error)
	ListOpenFn func(ctx context.Context) ([]*domain.Loan, error)
	MaxIDFn    func(ctx context.Context) (uint64, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) Delete(ctx context.Context, id uint64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) ListOpen(ctx context.Context) ([]*domain.Loan, error) {
	if m.ListOpenFn != nil {
		return m.ListOpenFn(ctx)
	}
	return nil, nil
}

func (m *Repo) MaxID(ctx context.Context) (uint64, error) {
	if m.MaxIDFn != nil {
		return m.MaxIDFn(ctx)
	}
	return 0, nil
}
