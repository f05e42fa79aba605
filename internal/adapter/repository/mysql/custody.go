package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	loanDomain "nftloan-backend/internal/domain/loan"
)

var (
	ErrUnknownAsset = errors.New("asset not registered")
	ErrNotHolder    = errors.New("sender does not hold asset")
)

// assetRow records the current holder of one token.
type assetRow struct {
	Contract  string    `gorm:"column:contract;type:char(42);primaryKey"`
	TokenID   string    `gorm:"column:token_id;type:varchar(78);primaryKey"`
	Holder    string    `gorm:"column:holder;type:char(42);not null;index"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (assetRow) TableName() string { return "asset_custody" }

// AssetRegistry is the custody ledger for collateral tokens.
type AssetRegistry struct{ db *gorm.DB }

func NewAssetRegistry(db *gorm.DB) *AssetRegistry { return &AssetRegistry{db: db} }

var _ loanDomain.AssetCustody = (*AssetRegistry)(nil)

// Register records holder for ref, replacing any previous holder.
func (r *AssetRegistry) Register(ctx context.Context, ref loanDomain.CollateralRef, holder common.Address) error {
	row := &assetRow{Contract: ref.Contract.Hex(), TokenID: ref.TokenID.Dec(), Holder: holder.Hex()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contract"}, {Name: "token_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"holder", "updated_at"}),
		}).
		Create(row).Error
}

func (r *AssetRegistry) OwnerOf(ctx context.Context, ref loanDomain.CollateralRef) (common.Address, error) {
	var row assetRow
	err := r.db.WithContext(ctx).
		Where("contract = ? AND token_id = ?", ref.Contract.Hex(), ref.TokenID.Dec()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.Address{}, ErrUnknownAsset
	}
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(row.Holder), nil
}

// Transfer moves ref only if from still holds it.
func (r *AssetRegistry) Transfer(ctx context.Context, ref loanDomain.CollateralRef, from, to common.Address) error {
	res := r.db.WithContext(ctx).
		Model(&assetRow{}).
		Where("contract = ? AND token_id = ? AND holder = ?", ref.Contract.Hex(), ref.TokenID.Dec(), from.Hex()).
		Updates(map[string]any{"holder": to.Hex(), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.OwnerOf(ctx, ref); err != nil {
			return err
		}
		return ErrNotHolder
	}
	return nil
}
