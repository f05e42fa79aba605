package http

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/labstack/echo/v4"

	"nftloan-backend/internal/usecase/loan"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type listLoanReq struct {
	Contract        string `json:"collateral_contract" validate:"required,eth_addr"`
	TokenID         string `json:"collateral_token_id" validate:"required,uint256"`
	Amount          string `json:"amount"              validate:"required,nonzero256"`
	MaxInterestRate uint64 `json:"max_interest_rate_bps"`
	Duration        uint64 `json:"duration_seconds"    validate:"gt=0"`
}

type placeBidReq struct {
	RateBps uint64 `json:"rate_bps"`
	Value   string `json:"value" validate:"required,uint256"`
}

type valueReq struct {
	Value string `json:"value" validate:"required,uint256"`
}

type amountResp struct {
	LoanID uint64 `json:"loan_id"`
	Amount string `json:"amount"`
}

func (h *LoanHandler) ListLoan(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req listLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	// parse errors are unreachable once the validator passed
	tokenID, _ := parseAmount(req.TokenID)
	amount, _ := parseAmount(req.Amount)

	dto, err := h.uc.List(c.Request().Context(), loan.ListLoanInput{
		Borrower:        caller,
		Contract:        common.HexToAddress(req.Contract),
		TokenID:         tokenID,
		Amount:          amount,
		MaxInterestRate: req.MaxInterestRate,
		Duration:        req.Duration,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) PlaceBid(c echo.Context) error {
	id, caller, err := h.target(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req placeBidReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	value, _ := parseAmount(req.Value)
	dto, err := h.uc.PlaceBid(c.Request().Context(), id, caller, req.RateBps, value)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) AcceptLoan(c echo.Context) error {
	return h.callerOnly(c, h.uc.AcceptLoan)
}

func (h *LoanHandler) CancelBid(c echo.Context) error {
	return h.callerOnly(c, h.uc.CancelBid)
}

func (h *LoanHandler) DelistLoan(c echo.Context) error {
	return h.callerOnly(c, h.uc.DelistLoan)
}

func (h *LoanHandler) RepayLoan(c echo.Context) error {
	return h.withValue(c, h.uc.RepayLoan)
}

func (h *LoanHandler) ClaimDefaultedLoan(c echo.Context) error {
	return h.withValue(c, h.uc.ClaimDefaultedLoan)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, err := loanIDParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	dto, err := h.uc.GetLoan(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) GetRequiredRepayment(c echo.Context) error {
	id, err := loanIDParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	amount, err := h.uc.GetRequiredRepayment(id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, amountResp{LoanID: id, Amount: amount.Dec()})
}

func (h *LoanHandler) Quote(c echo.Context) error {
	id, err := loanIDParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	q, err := h.uc.Quote(id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *LoanHandler) ActiveLoans(c echo.Context) error {
	ids := h.uc.GetActiveLoans()
	if ids == nil {
		ids = []uint64{}
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_ids": ids})
}

func (h *LoanHandler) ListBids(c echo.Context) error {
	id, err := loanIDParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	bids, err := h.uc.ListBids(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": id, "bids": bids})
}

func (h *LoanHandler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.uc.Stats())
}

func (h *LoanHandler) target(c echo.Context) (uint64, common.Address, error) {
	id, err := loanIDParam(c)
	if err != nil {
		return 0, common.Address{}, err
	}
	caller, err := callerFrom(c)
	if err != nil {
		return 0, common.Address{}, err
	}
	return id, caller, nil
}

type callerOp func(ctx context.Context, loanID uint64, caller common.Address) (*loan.LoanDTO, error)

type valueOp func(ctx context.Context, loanID uint64, caller common.Address, value *uint256.Int) (*loan.LoanDTO, error)

func (h *LoanHandler) callerOnly(c echo.Context, op callerOp) error {
	id, caller, err := h.target(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	dto, err := op(c.Request().Context(), id, caller)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) withValue(c echo.Context, op valueOp) error {
	id, caller, err := h.target(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req valueReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	value, _ := parseAmount(req.Value)
	dto, err := op(c.Request().Context(), id, caller, value)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
