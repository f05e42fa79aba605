package approval

import "context"

type Repository interface {
	Create(ctx context.Context, a *Approval) error

	// Revoke soft-deletes the live approval for contract.
	Revoke(ctx context.Context, contract, revokedBy string) error

	GetByContract(ctx context.Context, contract string) (*Approval, error)

	// ListActive returns every live approval.
	ListActive(ctx context.Context) ([]*Approval, error)
}
