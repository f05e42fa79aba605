package mysql

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	loanDomain "nftloan-backend/internal/domain/loan"
)

func TestAssetRegistry(t *testing.T) {
	reg := NewAssetRegistry(openTestDB(t))
	ctx := context.Background()
	ref := loanDomain.CollateralRef{Contract: nft, TokenID: uint256.NewInt(7)}

	if _, err := reg.OwnerOf(ctx, ref); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("unknown asset: %v", err)
	}
	if err := reg.Transfer(ctx, ref, borrower, vault); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("transfer unknown asset: %v", err)
	}

	if err := reg.Register(ctx, ref, borrower); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got, err := reg.OwnerOf(ctx, ref); err != nil || got != borrower {
		t.Fatalf("OwnerOf = %s, %v", got.Hex(), err)
	}

	if err := reg.Transfer(ctx, ref, lender, vault); !errors.Is(err, ErrNotHolder) {
		t.Fatalf("transfer by non-holder: %v", err)
	}
	if err := reg.Transfer(ctx, ref, borrower, vault); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got, _ := reg.OwnerOf(ctx, ref); got != vault {
		t.Fatalf("holder = %s, want vault", got.Hex())
	}

	// same contract, different token
	other := loanDomain.CollateralRef{Contract: nft, TokenID: uint256.NewInt(8)}
	if _, err := reg.OwnerOf(ctx, other); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("token 8: %v", err)
	}

	if err := reg.Register(ctx, ref, lender); err != nil {
		t.Fatalf("re-Register: %v", err)
	}
	if got, _ := reg.OwnerOf(ctx, ref); got != lender {
		t.Fatalf("holder after re-register = %s", got.Hex())
	}
}
