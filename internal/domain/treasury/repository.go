package treasury

import "context"

// Repository upserts the singleton row one column at a time so fee-rate
// administration and fee-balance commits never overwrite each other.
type Repository interface {
	// Get returns gorm.ErrRecordNotFound before the first write.
	Get(ctx context.Context) (*Treasury, error)
	SetFeeRate(ctx context.Context, bps uint64) error
	// SetFeeBalance stores the balance as a decimal string.
	SetFeeBalance(ctx context.Context, balance string) error
}
