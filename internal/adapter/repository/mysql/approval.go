package mysql

import (
	"context"
	"time"

	approvalDomain "nftloan-backend/internal/domain/approval"

	"gorm.io/gorm"
)

type ApprovalRepository struct{ db *gorm.DB }

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository { return &ApprovalRepository{db: db} }

var _ approvalDomain.Repository = (*ApprovalRepository)(nil)

// Tx runs fn against a copy of the repository bound to one transaction.
func (r *ApprovalRepository) Tx(ctx context.Context, fn func(repo *ApprovalRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ApprovalRepository{db: tx})
	})
}

func (r *ApprovalRepository) Create(ctx context.Context, a *approvalDomain.Approval) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// Revoke returns approvalDomain.ErrNotFound when no live row matches.
func (r *ApprovalRepository) Revoke(ctx context.Context, contract, revokedBy string) error {
	res := r.db.WithContext(ctx).
		Model(&approvalDomain.Approval{}).
		Where("contract = ?", contract).
		Updates(map[string]any{
			"deleted_at": time.Now().UTC(),
			"deleted_by": revokedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return approvalDomain.ErrNotFound
	}
	return nil
}

func (r *ApprovalRepository) GetByContract(ctx context.Context, contract string) (*approvalDomain.Approval, error) {
	var out approvalDomain.Approval
	res := r.db.WithContext(ctx).
		Where("contract = ?", contract).
		First(&out)
	return &out, res.Error
}

func (r *ApprovalRepository) ListActive(ctx context.Context) ([]*approvalDomain.Approval, error) {
	var out []*approvalDomain.Approval
	err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}
