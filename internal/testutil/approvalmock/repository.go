package approvalmock

import (
	"context"

	domain "nftloan-backend/internal/domain/approval"
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn        func(ctx context.Context, a *domain.Approval) error
	RevokeFn        func(ctx context.Context, contract, revokedBy string) error
	GetByContractFn func(ctx context.Context, contract string) (*domain.Approval, error)
	ListActiveFn    func(ctx context.Context) ([]*domain.Approval, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Create(ctx context.Context, a *domain.Approval) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) Revoke(ctx context.Context, contract, revokedBy string) error {
	if m.RevokeFn != nil {
		return m.RevokeFn(ctx, contract, revokedBy)
	}
	return nil
}

func (m *Repo) GetByContract(ctx context.Context, contract string) (*domain.Approval, error) {
	if m.GetByContractFn != nil {
		return m.GetByContractFn(ctx, contract)
	}
	return nil, context.Canceled
}

func (m *Repo) ListActive(ctx context.Context) ([]*domain.Approval, error) {
	if m.ListActiveFn != nil {
		return m.ListActiveFn(ctx)
	}
	return nil, nil
}
