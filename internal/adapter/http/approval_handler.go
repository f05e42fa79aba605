package http

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"

	"nftloan-backend/internal/usecase/approval"
	"nftloan-backend/internal/usecase/loan"
)

// ApprovalHandler serves the owner-gated protocol administration routes.
type ApprovalHandler struct {
	policy *approval.Policy
	loans  *loan.Usecase
}

func NewApprovalHandler(policy *approval.Policy, loans *loan.Usecase) *ApprovalHandler {
	return &ApprovalHandler{policy: policy, loans: loans}
}

type approveAssetReq struct {
	Contract string `json:"contract" validate:"required,eth_addr"`
}

type feeRateReq struct {
	FeeBps uint64 `json:"protocol_fee_bps" validate:"lte=10000"`
}

type withdrawReq struct {
	To string `json:"to" validate:"required,eth_addr"`
}

func (h *ApprovalHandler) ApproveAsset(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req approveAssetReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.policy.Approve(c.Request().Context(), caller, common.HexToAddress(req.Contract))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ApprovalHandler) RevokeAsset(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	contract, err := addressParam(c, "contract")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.policy.Revoke(c.Request().Context(), caller, contract); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetFeeRate accepts any bps value the validator lets through; the policy
// enforces the protocol ceiling.
func (h *ApprovalHandler) SetFeeRate(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req feeRateReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.policy.SetFeeRate(c.Request().Context(), caller, req.FeeBps); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, h.policy.Settings())
}

func (h *ApprovalHandler) Settings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.policy.Settings())
}

func (h *ApprovalHandler) WithdrawFees(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req withdrawReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	to := common.HexToAddress(req.To)
	amount, err := h.loans.WithdrawProtocolFees(c.Request().Context(), caller, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"to": to.Hex(), "amount": amount.Dec()})
}
