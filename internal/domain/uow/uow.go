package uow

import (
	"context"

	"nftloan-backend/internal/domain/approval"
	"nftloan-backend/internal/domain/bid"
	"nftloan-backend/internal/domain/loan"
	"nftloan-backend/internal/domain/treasury"
)

type Repos struct {
	Loans     loan.Repository
	Bids      bid.Repository
	Approvals approval.Repository
	Treasury  treasury.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}
