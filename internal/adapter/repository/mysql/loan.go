package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	loanDomain "nftloan-backend/internal/domain/loan"
)

// loanRow is the persisted snapshot of a loan. Amounts and token ids are
// decimal strings since they exceed every native SQL integer type.
type loanRow struct {
	ID                 uint64         `gorm:"column:id;primaryKey;autoIncrement:false"`
	Borrower           string         `gorm:"column:borrower;type:char(42);not null;index"`
	Lender             *string        `gorm:"column:lender;type:char(42);index"`
	CollateralContract string         `gorm:"column:collateral_contract;type:char(42);not null"`
	CollateralTokenID  string         `gorm:"column:collateral_token_id;type:varchar(78);not null"`
	Amount             string         `gorm:"column:amount;type:varchar(78);not null"`
	MaxInterestRate    uint64         `gorm:"column:max_interest_rate;not null"`
	InterestRate       uint64         `gorm:"column:interest_rate;not null"`
	Duration           uint64         `gorm:"column:duration;not null"`
	StartTime          uint64         `gorm:"column:start_time;not null;default:0"`
	Accepted           bool           `gorm:"column:accepted;not null;default:false"`
	State              string         `gorm:"column:state;type:enum('listed','active','repaid','defaulted','delisted');not null;index"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt          gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (loanRow) TableName() string { return "loans" }

var loanUpsertColumns = []string{
	"lender", "interest_rate", "start_time", "accepted", "state", "updated_at",
}

func toLoanRow(l *loanDomain.Loan) *loanRow {
	row := &loanRow{
		ID:                 l.ID,
		Borrower:           l.Borrower.Hex(),
		CollateralContract: l.Collateral.Contract.Hex(),
		CollateralTokenID:  l.Collateral.TokenID.Dec(),
		Amount:             l.Amount.Dec(),
		MaxInterestRate:    l.MaxInterestRate,
		InterestRate:       l.InterestRate,
		Duration:           l.Duration,
		StartTime:          l.StartTime,
		Accepted:           l.Accepted,
		State:              string(l.State),
	}
	if l.HasBid() {
		lender := l.Lender.Hex()
		row.Lender = &lender
	}
	return row
}

func (r *loanRow) toDomain() (*loanDomain.Loan, error) {
	tokenID, err := uint256.FromDecimal(r.CollateralTokenID)
	if err != nil {
		return nil, fmt.Errorf("loan %d token id %q: %w", r.ID, r.CollateralTokenID, err)
	}
	amount, err := uint256.FromDecimal(r.Amount)
	if err != nil {
		return nil, fmt.Errorf("loan %d amount %q: %w", r.ID, r.Amount, err)
	}
	l := &loanDomain.Loan{
		ID:              r.ID,
		Borrower:        common.HexToAddress(r.Borrower),
		Collateral:      loanDomain.CollateralRef{Contract: common.HexToAddress(r.CollateralContract), TokenID: tokenID},
		Amount:          amount,
		MaxInterestRate: r.MaxInterestRate,
		InterestRate:    r.InterestRate,
		Duration:        r.Duration,
		StartTime:       r.StartTime,
		Accepted:        r.Accepted,
		State:           loanDomain.State(r.State),
	}
	if r.Lender != nil {
		l.Lender = common.HexToAddress(*r.Lender)
	}
	return l, nil
}

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

var _ loanDomain.Repository = (*LoanRepository)(nil)

// Tx runs fn in a db transaction, passing a repo bound to the tx
func (r *LoanRepository) Tx(ctx context.Context, fn func(repo loanDomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LoanRepository{db: tx})
	})
}

// Save inserts the snapshot or updates its mutable columns.
func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(loanUpsertColumns),
		}).
		Create(toLoanRow(l)).Error
}

func (r *LoanRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&loanRow{}, id).Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var row loanRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r *LoanRepository) ListOpen(ctx context.Context) ([]*loanDomain.Loan, error) {
	var rows []loanRow
	err := r.db.WithContext(ctx).
		Where("state IN ?", []string{string(loanDomain.StateListed), string(loanDomain.StateActive)}).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*loanDomain.Loan, 0, len(rows))
	for i := range rows {
		l, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *LoanRepository) MaxID(ctx context.Context) (uint64, error) {
	var maxID uint64
	err := r.db.WithContext(ctx).Unscoped().
		Model(&loanRow{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&maxID).Error
	return maxID, err
}
