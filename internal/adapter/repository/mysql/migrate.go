package mysql

import (
	"nftloan-backend/internal/domain/approval"
	"nftloan-backend/internal/domain/bid"
	"nftloan-backend/internal/domain/treasury"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&loanRow{},
		&bid.Bid{},
		&approval.Approval{},
		&treasury.Treasury{},
		&assetRow{},
		&accountRow{},
	)
}
