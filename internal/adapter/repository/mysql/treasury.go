package mysql

import (
	"context"
	"time"

	treasuryDomain "nftloan-backend/internal/domain/treasury"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TreasuryRepository struct{ db *gorm.DB }

func NewTreasuryRepository(db *gorm.DB) *TreasuryRepository { return &TreasuryRepository{db: db} }

var _ treasuryDomain.Repository = (*TreasuryRepository)(nil)

func (r *TreasuryRepository) Get(ctx context.Context) (*treasuryDomain.Treasury, error) {
	var out treasuryDomain.Treasury
	if err := r.db.WithContext(ctx).First(&out, treasuryDomain.SingletonID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *TreasuryRepository) SetFeeRate(ctx context.Context, bps uint64) error {
	return r.upsert(ctx, &treasuryDomain.Treasury{FeeRateBps: bps, FeeBalance: "0"}, "fee_rate_bps")
}

func (r *TreasuryRepository) SetFeeBalance(ctx context.Context, balance string) error {
	return r.upsert(ctx, &treasuryDomain.Treasury{FeeBalance: balance}, "fee_balance")
}

// upsert writes only column on an existing row; a first write inserts row.
func (r *TreasuryRepository) upsert(ctx context.Context, row *treasuryDomain.Treasury, column string) error {
	row.ID = treasuryDomain.SingletonID
	row.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{column, "updated_at"}),
		}).
		Create(row).Error
}
