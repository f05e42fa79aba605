package mysql

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"
)

func TestTreasury_ColumnsWrittenIndependently(t *testing.T) {
	repo := NewTreasuryRepository(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.Get(ctx); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound before first write, got %v", err)
	}

	if err := repo.SetFeeBalance(ctx, "432000000000000000"); err != nil {
		t.Fatalf("SetFeeBalance: %v", err)
	}
	if err := repo.SetFeeRate(ctx, 250); err != nil {
		t.Fatalf("SetFeeRate: %v", err)
	}
	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FeeRateBps != 250 || got.FeeBalance != "432000000000000000" {
		t.Fatalf("row = %+v", got)
	}

	if err := repo.SetFeeBalance(ctx, "0"); err != nil {
		t.Fatalf("SetFeeBalance: %v", err)
	}
	got, _ = repo.Get(ctx)
	if got.FeeRateBps != 250 || got.FeeBalance != "0" {
		t.Fatalf("row after balance reset = %+v", got)
	}
}
