package treasurymock

import (
	"context"

	domain "nftloan-backend/internal/domain/treasury"

	"gorm.io/gorm"
)

// Repo is a function-backed mock that satisfies domain.Repository.
// Without GetFn it reports gorm.ErrRecordNotFound.
type Repo struct {
	GetFn           func(ctx context.Context) (*domain.Treasury, error)
	SetFeeRateFn    func(ctx context.Context, bps uint64) error
	SetFeeBalanceFn func(ctx context.Context, balance string) error
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Get(ctx context.Context) (*domain.Treasury, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *Repo) SetFeeRate(ctx context.Context, bps uint64) error {
	if m.SetFeeRateFn != nil {
		return m.SetFeeRateFn(ctx, bps)
	}
	return nil
}

func (m *Repo) SetFeeBalance(ctx context.Context, balance string) error {
	if m.SetFeeBalanceFn != nil {
		return m.SetFeeBalanceFn(ctx, balance)
	}
	return nil
}

// Memory keeps the singleton row in memory.
type Memory struct {
	Row *domain.Treasury
}

var _ domain.Repository = (*Memory)(nil)

func (m *Memory) Get(context.Context) (*domain.Treasury, error) {
	if m.Row == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.Row
	return &cp, nil
}

func (m *Memory) row() *domain.Treasury {
	if m.Row == nil {
		m.Row = &domain.Treasury{ID: domain.SingletonID, FeeBalance: "0"}
	}
	return m.Row
}

func (m *Memory) SetFeeRate(_ context.Context, bps uint64) error {
	m.row().FeeRateBps = bps
	return nil
}

func (m *Memory) SetFeeBalance(_ context.Context, balance string) error {
	m.row().FeeBalance = balance
	return nil
}
