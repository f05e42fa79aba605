package auction

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"nftloan-backend/internal/domain/loan"
	"nftloan-backend/internal/testutil/vaultfake"
)

var (
	vaultAddr = common.HexToAddress("0x000000000000000000000000000000000000bEEF")
	ownerAddr = common.HexToAddress("0x00000000000000000000000000000000000000aA")
	borrower  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	lenderA   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	lenderB   = common.HexToAddress("0x3333333333333333333333333333333333333333")
	stranger  = common.HexToAddress("0x4444444444444444444444444444444444444444")
	nftAddr   = common.HexToAddress("0x5555555555555555555555555555555555555555")
)

const (
	week      = 604800
	startTime = 1_700_000_000
)

func wei(s string) *uint256.Int { return uint256.MustFromDecimal(s) }

func ether(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1_000_000_000_000_000_000))
}

type fixture struct {
	e       *Engine
	custody *vaultfake.Custody
	bank    *vaultfake.Bank
	events  *vaultfake.Recorder
	now     uint64
}

func newFixture(t *testing.T, feeBps uint64) *fixture {
	t.Helper()
	f := &fixture{
		custody: vaultfake.NewCustody(),
		bank:    vaultfake.NewBank(vaultAddr),
		events:  &vaultfake.Recorder{},
		now:     startTime,
	}
	f.e = NewEngine(f.custody, f.bank, vaultfake.AllowList{nftAddr: true}, vaultfake.FeeRate(feeBps),
		Config{Vault: vaultAddr, Owner: ownerAddr})
	f.e.SetNowFunc(func() uint64 { return f.now })
	f.e.SetEmitter(f.events)

	for _, a := range []common.Address{borrower, lenderA, lenderB, stranger} {
		f.bank.Credit(a, ether(100))
	}
	return f
}

func token(n uint64) loan.CollateralRef {
	return loan.CollateralRef{Contract: nftAddr, TokenID: uint256.NewInt(n)}
}

// list mints token n to the borrower and lists 10 ether at 1000 bps for a week.
func (f *fixture) list(t *testing.T, n uint64) *loan.Loan {
	t.Helper()
	f.custody.Mint(token(n), borrower)
	l, err := f.e.List(context.Background(), ListInput{
		Borrower:        borrower,
		Collateral:      token(n),
		Amount:          ether(10),
		MaxInterestRate: 1000,
		Duration:        week,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return l
}

func (f *fixture) bid(t *testing.T, id uint64, who common.Address, rate uint64) {
	t.Helper()
	if _, err := f.e.PlaceBid(context.Background(), id, who, rate, ether(10)); err != nil {
		t.Fatalf("PlaceBid(%d, %s, %d): %v", id, who.Hex(), rate, err)
	}
}

func (f *fixture) accept(t *testing.T, id uint64) {
	t.Helper()
	if _, err := f.e.AcceptLoan(context.Background(), id, borrower); err != nil {
		t.Fatalf("AcceptLoan(%d): %v", id, err)
	}
}

func (f *fixture) mustInvariants(t *testing.T) {
	t.Helper()
	if err := f.e.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func assertKind(t *testing.T, err error, want loan.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := loan.KindOf(err); got != want {
		t.Fatalf("kind = %s, want %s (err=%v)", got, want, err)
	}
}
