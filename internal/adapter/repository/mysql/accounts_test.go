package mysql

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestAccountBook_Flows(t *testing.T) {
	book := NewAccountBook(openTestDB(t), vault)
	ctx := context.Background()

	if bal, err := book.Balance(ctx, borrower); err != nil || !bal.IsZero() {
		t.Fatalf("unknown balance = %v, %v", bal, err)
	}
	if _, err := book.Deposit(ctx, lender, uint256.NewInt(100)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	if err := book.Receive(ctx, lender, uint256.NewInt(60)); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if err := book.Receive(ctx, lender, uint256.NewInt(41)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("overdraw: %v", err)
	}
	if err := book.Pay(ctx, borrower, uint256.NewInt(25)); err != nil {
		t.Fatalf("Pay: %v", err)
	}

	want := map[string]uint64{"lender": 40, "vault": 35, "borrower": 25}
	check := func(label string, got *uint256.Int, err error) {
		t.Helper()
		if err != nil || got.Uint64() != want[label] {
			t.Fatalf("%s balance = %v, %v; want %d", label, got, err, want[label])
		}
	}
	b, err := book.Balance(ctx, lender)
	check("lender", b, err)
	b, err = book.Balance(ctx, vault)
	check("vault", b, err)
	b, err = book.Balance(ctx, borrower)
	check("borrower", b, err)
}

func TestAccountBook_RejectingRecipient(t *testing.T) {
	book := NewAccountBook(openTestDB(t), vault)
	ctx := context.Background()

	if _, err := book.Deposit(ctx, vault, uint256.NewInt(10)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if err := book.SetAcceptsFunds(ctx, lender, false); err != nil {
		t.Fatalf("SetAcceptsFunds: %v", err)
	}
	if err := book.Pay(ctx, lender, uint256.NewInt(5)); !errors.Is(err, ErrRecipientRejects) {
		t.Fatalf("Pay to rejecting account: %v", err)
	}
	if bal, _ := book.Balance(ctx, vault); bal.Uint64() != 10 {
		t.Fatalf("vault debited on rejected payment: %s", bal.Dec())
	}

	if err := book.SetAcceptsFunds(ctx, lender, true); err != nil {
		t.Fatalf("SetAcceptsFunds: %v", err)
	}
	if err := book.Pay(ctx, lender, uint256.NewInt(5)); err != nil {
		t.Fatalf("Pay after re-enabling: %v", err)
	}
}

func TestAccountBook_ZeroAndSelfTransfersAreNoops(t *testing.T) {
	book := NewAccountBook(openTestDB(t), vault)
	ctx := context.Background()
	if err := book.Pay(ctx, lender, new(uint256.Int)); err != nil {
		t.Fatalf("zero pay: %v", err)
	}
	if err := book.Receive(ctx, vault, uint256.NewInt(1)); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
}
