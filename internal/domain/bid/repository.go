package bid

import "context"

type Repository interface {
	Create(ctx context.Context, b *Bid) error

	// Close moves the loan's placed bid, if any, to status.
	Close(ctx context.Context, loanID uint64, status Status) error

	ListByLoanID(ctx context.Context, loanID uint64) ([]*Bid, error)
}
