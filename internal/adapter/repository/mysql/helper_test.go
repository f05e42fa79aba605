package mysql

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nftloan-backend/internal/domain/approval"
	"nftloan-backend/internal/domain/bid"
	loanDomain "nftloan-backend/internal/domain/loan"
	"nftloan-backend/internal/domain/treasury"
)

// --- SQLite-friendly schema only for tests (no ENUM) ---

type loanSQLite struct {
	ID                 uint64         `gorm:"primaryKey;autoIncrement:false;column:id"`
	Borrower           string         `gorm:"column:borrower"`
	Lender             *string        `gorm:"column:lender"`
	CollateralContract string         `gorm:"column:collateral_contract"`
	CollateralTokenID  string         `gorm:"column:collateral_token_id"`
	Amount             string         `gorm:"column:amount"`
	MaxInterestRate    uint64         `gorm:"column:max_interest_rate"`
	InterestRate       uint64         `gorm:"column:interest_rate"`
	Duration           uint64         `gorm:"column:duration"`
	StartTime          uint64         `gorm:"column:start_time"`
	Accepted           bool           `gorm:"column:accepted"`
	State              string         `gorm:"type:text;column:state"` // ← no enum
	CreatedAt          time.Time      `gorm:"column:created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"column:deleted_at"`
}

func (loanSQLite) TableName() string { return "loans" }

// openTestDB creates an in-memory sqlite DB with the sqlite-safe loan schema
// and every other table. One connection keeps all callers on the same
// in-memory database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	// IMPORTANT: migrate the sqlite-safe loan model, NOT loanRow.
	if err := db.AutoMigrate(
		&loanSQLite{},
		&bid.Bid{},
		&approval.Approval{},
		&treasury.Treasury{},
		&assetRow{},
		&accountRow{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

var (
	borrower = common.HexToAddress("0x1111111111111111111111111111111111111111")
	lender   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	nft      = common.HexToAddress("0x5555555555555555555555555555555555555555")
	vault    = common.HexToAddress("0x000000000000000000000000000000000000bEEF")
)

func makeLoan(id uint64) *loanDomain.Loan {
	return &loanDomain.Loan{
		ID:              id,
		Borrower:        borrower,
		Collateral:      loanDomain.CollateralRef{Contract: nft, TokenID: uint256.MustFromDecimal("115792089237316195423570985008687907853269984665640564039457584007913129639935")},
		Amount:          uint256.MustFromDecimal("10000000000000000000"),
		MaxInterestRate: 1000,
		InterestRate:    1000,
		Duration:        604800,
		State:           loanDomain.StateListed,
	}
}
