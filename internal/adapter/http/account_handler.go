package http

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/labstack/echo/v4"

	domainLoan "nftloan-backend/internal/domain/loan"
)

// AssetRegistrar records who holds a collateral token.
type AssetRegistrar interface {
	Register(ctx context.Context, ref domainLoan.CollateralRef, holder common.Address) error
	OwnerOf(ctx context.Context, ref domainLoan.CollateralRef) (common.Address, error)
}

// Funds manages the value accounts the engine pays from and into.
type Funds interface {
	Deposit(ctx context.Context, account common.Address, amount *uint256.Int) (*uint256.Int, error)
	SetAcceptsFunds(ctx context.Context, account common.Address, accepts bool) error
	Balance(ctx context.Context, account common.Address) (*uint256.Int, error)
}

// AccountHandler exposes the custody and value ledgers backing the engine.
// Writes are restricted to the protocol owner.
type AccountHandler struct {
	owner  common.Address
	assets AssetRegistrar
	funds  Funds
}

func NewAccountHandler(owner common.Address, assets AssetRegistrar, funds Funds) *AccountHandler {
	return &AccountHandler{owner: owner, assets: assets, funds: funds}
}

type registerAssetReq struct {
	Contract string `json:"contract" validate:"required,eth_addr"`
	TokenID  string `json:"token_id" validate:"required,uint256"`
	Holder   string `json:"holder"   validate:"required,eth_addr"`
}

type depositReq struct {
	Amount string `json:"amount" validate:"required,nonzero256"`
}

type acceptsFundsReq struct {
	Accepts *bool `json:"accepts" validate:"required"`
}

type balanceResp struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

func (h *AccountHandler) authorize(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if caller != h.owner {
		return domainLoan.ErrNotProtocolOwner
	}
	return nil
}

func (h *AccountHandler) writeAuthError(c echo.Context, err error) error {
	if domainLoan.KindOf(err) == domainLoan.KindUnauthorized {
		return writeError(c, err)
	}
	return badRequest(c, err.Error())
}

func (h *AccountHandler) RegisterAsset(c echo.Context) error {
	if err := h.authorize(c); err != nil {
		return h.writeAuthError(c, err)
	}
	var req registerAssetReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	tokenID, _ := parseAmount(req.TokenID)
	ref := domainLoan.CollateralRef{Contract: common.HexToAddress(req.Contract), TokenID: tokenID}
	holder := common.HexToAddress(req.Holder)
	if err := h.assets.Register(c.Request().Context(), ref, holder); err != nil {
		return writeError(c, domainLoan.External("register asset", err))
	}
	return c.JSON(http.StatusCreated, map[string]string{
		"contract": ref.Contract.Hex(),
		"token_id": ref.TokenID.Dec(),
		"holder":   holder.Hex(),
	})
}

func (h *AccountHandler) AssetHolder(c echo.Context) error {
	contract, err := addressParam(c, "contract")
	if err != nil {
		return badRequest(c, err.Error())
	}
	tokenID, err := parseAmount(c.Param("token_id"))
	if err != nil {
		return badRequest(c, "token_id: "+err.Error())
	}
	ref := domainLoan.CollateralRef{Contract: contract, TokenID: tokenID}
	holder, err := h.assets.OwnerOf(c.Request().Context(), ref)
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"contract": contract.Hex(),
		"token_id": tokenID.Dec(),
		"holder":   holder.Hex(),
	})
}

func (h *AccountHandler) Deposit(c echo.Context) error {
	if err := h.authorize(c); err != nil {
		return h.writeAuthError(c, err)
	}
	account, err := addressParam(c, "address")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req depositReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	amount, _ := parseAmount(req.Amount)
	bal, err := h.funds.Deposit(c.Request().Context(), account, amount)
	if err != nil {
		return writeError(c, domainLoan.External("deposit", err))
	}
	return c.JSON(http.StatusOK, balanceResp{Account: account.Hex(), Balance: bal.Dec()})
}

func (h *AccountHandler) SetAcceptsFunds(c echo.Context) error {
	if err := h.authorize(c); err != nil {
		return h.writeAuthError(c, err)
	}
	account, err := addressParam(c, "address")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req acceptsFundsReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.funds.SetAcceptsFunds(c.Request().Context(), account, *req.Accepts); err != nil {
		return writeError(c, domainLoan.External("set accepts funds", err))
	}
	return c.JSON(http.StatusOK, map[string]any{"account": account.Hex(), "accepts": *req.Accepts})
}

func (h *AccountHandler) Balance(c echo.Context) error {
	account, err := addressParam(c, "address")
	if err != nil {
		return badRequest(c, err.Error())
	}
	bal, err := h.funds.Balance(c.Request().Context(), account)
	if err != nil {
		return writeError(c, domainLoan.External("balance", err))
	}
	return c.JSON(http.StatusOK, balanceResp{Account: account.Hex(), Balance: bal.Dec()})
}
