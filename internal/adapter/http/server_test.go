package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"nftloan-backend/internal/adapter/middleware"
	domainApproval "nftloan-backend/internal/domain/approval"
	"nftloan-backend/internal/domain/bid"
	domainLoan "nftloan-backend/internal/domain/loan"
	"nftloan-backend/internal/domain/uow"
	"nftloan-backend/internal/infrastructure/metrics"
	"nftloan-backend/internal/testutil/approvalmock"
	"nftloan-backend/internal/testutil/bidmock"
	"nftloan-backend/internal/testutil/loanmock"
	"nftloan-backend/internal/testutil/treasurymock"
	"nftloan-backend/internal/testutil/uowmock"
	"nftloan-backend/internal/testutil/vaultfake"
	"nftloan-backend/internal/usecase/approval"
	"nftloan-backend/internal/usecase/auction"
	"nftloan-backend/internal/usecase/loan"
)

var (
	vault    = common.HexToAddress("0x000000000000000000000000000000000000bEEF")
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000aA")
	borrower = common.HexToAddress("0x1111111111111111111111111111111111111111")
	lenderA  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	lenderB  = common.HexToAddress("0x3333333333333333333333333333333333333333")
	stranger = common.HexToAddress("0x4444444444444444444444444444444444444444")
	nft      = common.HexToAddress("0x5555555555555555555555555555555555555555")
)

const (
	week     = 604800
	tenEther = "10000000000000000000"
)

func newEchoWithValidator() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func mustJSON(v any) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func hasFieldDetail(details []FieldError, field, contains string) bool {
	for _, d := range details {
		if d.Field == field && strings.Contains(d.Message, contains) {
			return true
		}
	}
	return false
}

// memoryApprovals keeps approval rows in a map behind the function-field mock.
type memoryApprovals struct {
	mu   sync.Mutex
	rows map[string]*domainApproval.Approval
}

func (m *memoryApprovals) repo() *approvalmock.Repo {
	m.rows = map[string]*domainApproval.Approval{}
	return &approvalmock.Repo{
		CreateFn: func(_ context.Context, a *domainApproval.Approval) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.rows[a.Contract] = a
			return nil
		},
		RevokeFn: func(_ context.Context, contract, _ string) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.rows[contract]; !ok {
				return domainApproval.ErrNotFound
			}
			delete(m.rows, contract)
			return nil
		},
		GetByContractFn: func(_ context.Context, contract string) (*domainApproval.Approval, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if a, ok := m.rows[contract]; ok {
				return a, nil
			}
			return nil, domainApproval.ErrNotFound
		},
	}
}

type registrar struct{ custody *vaultfake.Custody }

func (r registrar) Register(_ context.Context, ref domainLoan.CollateralRef, holder common.Address) error {
	r.custody.Mint(ref, holder)
	return nil
}

func (r registrar) OwnerOf(ctx context.Context, ref domainLoan.CollateralRef) (common.Address, error) {
	return r.custody.OwnerOf(ctx, ref)
}

type funds struct{ bank *vaultfake.Bank }

func (f funds) Deposit(_ context.Context, account common.Address, amount *uint256.Int) (*uint256.Int, error) {
	f.bank.Credit(account, amount)
	return f.bank.Balance(account), nil
}

func (f funds) SetAcceptsFunds(_ context.Context, account common.Address, accepts bool) error {
	f.bank.Reject(account, !accepts)
	return nil
}

func (f funds) Balance(_ context.Context, account common.Address) (*uint256.Int, error) {
	return f.bank.Balance(account), nil
}

type server struct {
	e       *echo.Echo
	engine  *auction.Engine
	custody *vaultfake.Custody
	bank    *vaultfake.Bank
	policy  *approval.Policy
	now     uint64
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := &server{
		custody: vaultfake.NewCustody(),
		bank:    vaultfake.NewBank(vault),
		now:     1_700_000_000,
	}
	approvals := &memoryApprovals{}
	repos := uow.Repos{
		Loans: &loanmock.Repo{
			GetByIDFn: func(context.Context, uint64) (*domainLoan.Loan, error) {
				return nil, gorm.ErrRecordNotFound
			},
		},
		Bids: &bidmock.Repo{
			ListByLoanIDFn: func(_ context.Context, loanID uint64) ([]*bid.Bid, error) {
				return []*bid.Bid{{LoanID: loanID, Lender: lenderA.Hex(), RateBps: 900, Amount: tenEther, Status: bid.StatusPlaced}}, nil
			},
		},
		Approvals: approvals.repo(),
		Treasury:  &treasurymock.Memory{},
	}
	tx := uowmock.Passthrough(repos)

	s.policy = approval.NewPolicy(owner, tx, 200, nil)
	if _, err := s.policy.Approve(context.Background(), owner, nft); err != nil {
		t.Fatalf("approve: %v", err)
	}
	s.engine = auction.NewEngine(s.custody, s.bank, s.policy, s.policy, auction.Config{Vault: vault, Owner: owner})
	s.engine.SetNowFunc(func() uint64 { return s.now })
	uc := loan.NewUsecase(s.engine, tx, metrics.NewAuctionMetrics(prometheus.NewRegistry()), nil)

	s.e = newEchoWithValidator()
	RegisterRoutes(s.e, Handlers{
		Health:   NewHandler(),
		Loans:    NewLoanHandler(uc),
		Admin:    NewApprovalHandler(s.policy, uc),
		Accounts: NewAccountHandler(owner, registrar{s.custody}, funds{s.bank}),
	})
	return s
}

func (s *server) do(t *testing.T, method, path string, caller common.Address, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = mustJSON(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if caller != (common.Address{}) {
		req.Header.Set(middleware.HeaderCaller, caller.Hex())
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *server) mustDo(t *testing.T, method, path string, caller common.Address, body any, want int) *httptest.ResponseRecorder {
	t.Helper()
	rec := s.do(t, method, path, caller, body)
	if rec.Code != want {
		t.Fatalf("%s %s => status %d, want %d; body=%s", method, path, rec.Code, want, rec.Body.String())
	}
	return rec
}

// listLoan registers token 1 to the borrower, funds both lenders and lists loan 1.
func (s *server) listLoan(t *testing.T) {
	t.Helper()
	s.mustDo(t, stdhttp.MethodPost, "/admin/custody", owner, map[string]any{
		"contract": nft.Hex(), "token_id": "1", "holder": borrower.Hex(),
	}, stdhttp.StatusCreated)
	for _, a := range []common.Address{borrower, lenderA, lenderB} {
		s.mustDo(t, stdhttp.MethodPost, "/admin/accounts/"+a.Hex()+"/deposit", owner,
			map[string]any{"amount": "100000000000000000000"}, stdhttp.StatusOK)
	}
	s.mustDo(t, stdhttp.MethodPost, "/loans", borrower, map[string]any{
		"collateral_contract":   nft.Hex(),
		"collateral_token_id":   "1",
		"amount":                tenEther,
		"max_interest_rate_bps": 1000,
		"duration_seconds":      week,
	}, stdhttp.StatusCreated)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
	return v
}
