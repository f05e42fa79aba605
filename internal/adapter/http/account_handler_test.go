package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	domainLoan "nftloan-backend/internal/domain/loan"
)

type failingFunds struct{}

func (failingFunds) Deposit(context.Context, common.Address, *uint256.Int) (*uint256.Int, error) {
	return nil, errors.New("db down")
}
func (failingFunds) SetAcceptsFunds(context.Context, common.Address, bool) error {
	return errors.New("db down")
}
func (failingFunds) Balance(context.Context, common.Address) (*uint256.Int, error) {
	return nil, errors.New("db down")
}

type failingAssets struct{}

func (failingAssets) Register(context.Context, domainLoan.CollateralRef, common.Address) error {
	return errors.New("db down")
}
func (failingAssets) OwnerOf(context.Context, domainLoan.CollateralRef) (common.Address, error) {
	return common.Address{}, errors.New("asset not registered")
}

func TestAccountRoutes_DepositAndBalance(t *testing.T) {
	s := newServer(t)

	for i, want := range []string{"5", "12"} {
		amount := []string{"5", "7"}[i]
		got := decode[balanceResp](t, s.mustDo(t, stdhttp.MethodPost, "/admin/accounts/"+lenderA.Hex()+"/deposit", owner,
			map[string]any{"amount": amount}, stdhttp.StatusOK))
		if got.Balance != want || got.Account != lenderA.Hex() {
			t.Fatalf("deposit %d = %+v", i, got)
		}
	}
	got := decode[balanceResp](t, s.mustDo(t, stdhttp.MethodGet, "/accounts/"+lenderA.Hex()+"/balance", common.Address{}, nil, stdhttp.StatusOK))
	if got.Balance != "12" {
		t.Fatalf("balance = %+v", got)
	}

	rec := s.mustDo(t, stdhttp.MethodPost, "/admin/accounts/"+lenderA.Hex()+"/deposit", owner, map[string]any{"amount": "0"}, stdhttp.StatusUnprocessableEntity)
	if er := decode[ErrorResponse](t, rec); !hasFieldDetail(er.Details, "amount", "positive") {
		t.Fatalf("zero deposit = %+v", er)
	}
	s.mustDo(t, stdhttp.MethodGet, "/accounts/0xabc/balance", common.Address{}, nil, stdhttp.StatusBadRequest)
}

func TestAccountRoutes_AcceptsFunds(t *testing.T) {
	s := newServer(t)
	s.mustDo(t, stdhttp.MethodPut, "/admin/accounts/"+lenderA.Hex()+"/accepts-funds", owner, map[string]any{}, stdhttp.StatusUnprocessableEntity)

	out := decode[map[string]any](t, s.mustDo(t, stdhttp.MethodPut, "/admin/accounts/"+lenderA.Hex()+"/accepts-funds", owner,
		map[string]any{"accepts": false}, stdhttp.StatusOK))
	if out["accepts"] != false {
		t.Fatalf("accepts = %v", out)
	}
}

func TestAccountRoutes_RegisterAsset(t *testing.T) {
	s := newServer(t)
	big := "115792089237316195423570985008687907853269984665640564039457584007913129639935"

	out := decode[map[string]string](t, s.mustDo(t, stdhttp.MethodPost, "/admin/custody", owner,
		map[string]any{"contract": nft.Hex(), "token_id": big, "holder": borrower.Hex()}, stdhttp.StatusCreated))
	if out["token_id"] != big || out["holder"] != borrower.Hex() {
		t.Fatalf("register = %v", out)
	}
	s.mustDo(t, stdhttp.MethodGet, "/assets/"+nft.Hex()+"/"+big, common.Address{}, nil, stdhttp.StatusOK)
	s.mustDo(t, stdhttp.MethodGet, "/assets/"+nft.Hex()+"/2", common.Address{}, nil, stdhttp.StatusNotFound)
	s.mustDo(t, stdhttp.MethodGet, "/assets/"+nft.Hex()+"/x", common.Address{}, nil, stdhttp.StatusBadRequest)

	rec := s.mustDo(t, stdhttp.MethodPost, "/admin/custody", owner,
		map[string]any{"contract": nft.Hex(), "token_id": big + "0", "holder": borrower.Hex()}, stdhttp.StatusUnprocessableEntity)
	if er := decode[ErrorResponse](t, rec); !hasFieldDetail(er.Details, "token_id", "2^256") {
		t.Fatalf("overflowing token id = %+v", er)
	}
}

func TestAccountRoutes_BackendFailures(t *testing.T) {
	e := newEchoWithValidator()
	h := NewAccountHandler(owner, failingAssets{}, failingFunds{})
	e.POST("/admin/custody", h.RegisterAsset)
	e.POST("/admin/accounts/:address/deposit", h.Deposit)
	e.GET("/accounts/:address/balance", h.Balance)
	s := &server{e: e}

	tests := []struct {
		method string
		path   string
		caller common.Address
		body   any
	}{
		{stdhttp.MethodPost, "/admin/custody", owner, map[string]any{"contract": nft.Hex(), "token_id": "1", "holder": borrower.Hex()}},
		{stdhttp.MethodPost, "/admin/accounts/" + lenderA.Hex() + "/deposit", owner, map[string]any{"amount": "1"}},
		{stdhttp.MethodGet, "/accounts/" + lenderA.Hex() + "/balance", common.Address{}, nil},
	}
	for _, tt := range tests {
		rec := s.mustDo(t, tt.method, tt.path, tt.caller, tt.body, stdhttp.StatusBadGateway)
		if er := decode[ErrorResponse](t, rec); er.Kind != "external_failure" {
			t.Fatalf("%s kind = %q", tt.path, er.Kind)
		}
	}
}
