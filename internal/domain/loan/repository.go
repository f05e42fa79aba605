package loan

import "context"

// Repository persists loan snapshots after each committed transition.
type Repository interface {
	// Save inserts or updates the snapshot for l.ID.
	Save(ctx context.Context, l *Loan) error
	// Delete soft-deletes a delisted loan.
	Delete(ctx context.Context, id uint64) error
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	// ListOpen returns loans that have not reached a terminal state.
	ListOpen(ctx context.Context) ([]*Loan, error)
	// MaxID includes deleted rows so ids are never reused.
	MaxID(ctx context.Context) (uint64, error)
}
