package mysql

import (
	"context"

	bidDomain "nftloan-backend/internal/domain/bid"

	"gorm.io/gorm"
)

type BidRepository struct{ db *gorm.DB }

func NewBidRepository(db *gorm.DB) *BidRepository { return &BidRepository{db: db} }

var _ bidDomain.Repository = (*BidRepository)(nil)

func (r *BidRepository) Create(ctx context.Context, b *bidDomain.Bid) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BidRepository) Close(ctx context.Context, loanID uint64, status bidDomain.Status) error {
	return r.db.WithContext(ctx).
		Model(&bidDomain.Bid{}).
		Where("loan_id = ? AND status = ?", loanID, bidDomain.StatusPlaced).
		Update("status", status).Error
}

func (r *BidRepository) ListByLoanID(ctx context.Context, loanID uint64) ([]*bidDomain.Bid, error) {
	var out []*bidDomain.Bid
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
