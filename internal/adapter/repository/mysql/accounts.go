package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/gorm"

	loanDomain "nftloan-backend/internal/domain/loan"
)

var (
	ErrRecipientRejects  = errors.New("recipient does not accept funds")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type accountRow struct {
	Account      string    `gorm:"column:account;type:char(42);primaryKey"`
	Balance      string    `gorm:"column:balance;type:varchar(78);not null"`
	AcceptsFunds bool      `gorm:"column:accepts_funds;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (accountRow) TableName() string { return "account_balances" }

// AccountBook moves value between account balances. The vault account holds
// escrowed bids and accumulated protocol fees.
type AccountBook struct {
	db    *gorm.DB
	vault common.Address
}

func NewAccountBook(db *gorm.DB, vault common.Address) *AccountBook {
	return &AccountBook{db: db, vault: vault}
}

var _ loanDomain.ValueTransfer = (*AccountBook)(nil)

func (b *AccountBook) Vault() common.Address { return b.vault }

// Pay moves amount from the vault to to.
func (b *AccountBook) Pay(ctx context.Context, to common.Address, amount *uint256.Int) error {
	return b.move(ctx, b.vault, to, amount)
}

// Receive moves amount from from into the vault.
func (b *AccountBook) Receive(ctx context.Context, from common.Address, amount *uint256.Int) error {
	return b.move(ctx, from, b.vault, amount)
}

// Deposit credits amount to account from outside the book.
func (b *AccountBook) Deposit(ctx context.Context, account common.Address, amount *uint256.Int) (*uint256.Int, error) {
	var out *uint256.Int
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := loadAccount(tx, account)
		if err != nil {
			return err
		}
		bal, err := row.balance()
		if err != nil {
			return err
		}
		sum, overflow := new(uint256.Int).AddOverflow(bal, amount)
		if overflow {
			return loanDomain.ErrMathOverflow
		}
		row.Balance = sum.Dec()
		out = sum
		return tx.Save(row).Error
	})
	return out, err
}

// SetAcceptsFunds flags whether Pay to account succeeds.
func (b *AccountBook) SetAcceptsFunds(ctx context.Context, account common.Address, accepts bool) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := loadAccount(tx, account)
		if err != nil {
			return err
		}
		row.AcceptsFunds = accepts
		return tx.Save(row).Error
	})
}

// Balance is zero for unknown accounts.
func (b *AccountBook) Balance(ctx context.Context, account common.Address) (*uint256.Int, error) {
	row, err := loadAccount(b.db.WithContext(ctx), account)
	if err != nil {
		return nil, err
	}
	return row.balance()
}

func (b *AccountBook) move(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	if from == to || amount.IsZero() {
		return nil
	}
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		src, err := loadAccount(tx, from)
		if err != nil {
			return err
		}
		dst, err := loadAccount(tx, to)
		if err != nil {
			return err
		}
		if !dst.AcceptsFunds {
			return ErrRecipientRejects
		}
		srcBal, err := src.balance()
		if err != nil {
			return err
		}
		if srcBal.Lt(amount) {
			return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, from.Hex(), srcBal.Dec(), amount.Dec())
		}
		dstBal, err := dst.balance()
		if err != nil {
			return err
		}
		sum, overflow := new(uint256.Int).AddOverflow(dstBal, amount)
		if overflow {
			return loanDomain.ErrMathOverflow
		}
		src.Balance = new(uint256.Int).Sub(srcBal, amount).Dec()
		dst.Balance = sum.Dec()
		if err := tx.Save(src).Error; err != nil {
			return err
		}
		return tx.Save(dst).Error
	})
}

// loadAccount returns a fresh zero row for unknown accounts.
func loadAccount(db *gorm.DB, account common.Address) (*accountRow, error) {
	var row accountRow
	err := db.Where("account = ?", account.Hex()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &accountRow{Account: account.Hex(), Balance: "0", AcceptsFunds: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *accountRow) balance() (*uint256.Int, error) {
	v, err := uint256.FromDecimal(r.Balance)
	if err != nil {
		return nil, fmt.Errorf("account %s balance %q: %w", r.Account, r.Balance, err)
	}
	return v, nil
}
