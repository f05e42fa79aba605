package loan

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AssetCustody moves unique assets between holders.
type AssetCustody interface {
	OwnerOf(ctx context.Context, asset CollateralRef) (common.Address, error)
	// Transfer fails if from does not currently hold the asset.
	Transfer(ctx context.Context, asset CollateralRef, from, to common.Address) error
}

// ValueTransfer moves value between the protocol and accounts.
type ValueTransfer interface {
	// Pay sends amount from the protocol to the account. It fails when the
	// recipient cannot accept funds.
	Pay(ctx context.Context, to common.Address, amount *uint256.Int) error
	// Receive takes exactly amount from the account into the protocol.
	Receive(ctx context.Context, from common.Address, amount *uint256.Int) error
}

type AllowList interface {
	IsAllowed(contract common.Address) bool
}

type FeeSchedule interface {
	// ProtocolFeeBps is within [0, MaxProtocolFeeBps].
	ProtocolFeeBps() uint64
}

// MaxProtocolFeeBps caps the owner-adjustable protocol fee rate.
const MaxProtocolFeeBps = 1000
