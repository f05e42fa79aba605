package approval

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("asset approval not found")
	ErrAlreadyApproved = errors.New("asset contract already approved")
)

// Table: asset_approvals. One live row per allow-listed collateral contract;
// revoking soft-deletes the row.
type Approval struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Checksummed 0x-prefixed contract address
	Contract   string         `gorm:"column:contract;type:char(42);not null;index"`
	ApprovedBy string         `gorm:"column:approved_by;type:char(42);not null"`
	ApprovedAt time.Time      `gorm:"column:approved_at;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"column:deleted_at;index"`
	DeletedBy  *string        `gorm:"column:deleted_by;type:char(42);"`
}

func (Approval) TableName() string { return "asset_approvals" }
