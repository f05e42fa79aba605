package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"

	"nftloan-backend/internal/adapter/middleware"
	domainApproval "nftloan-backend/internal/domain/approval"
	domainLoan "nftloan-backend/internal/domain/loan"
)

var (
	errMissingCaller = errors.New("missing " + middleware.HeaderCaller + " header")
	errInvalidCaller = errors.New("invalid " + middleware.HeaderCaller + " header")
	errInvalidLoanID = errors.New("loan_id must be a positive integer")
)

// callerFrom reads the acting account from the caller header.
func callerFrom(c echo.Context) (common.Address, error) {
	raw := strings.TrimSpace(c.Request().Header.Get(middleware.HeaderCaller))
	if raw == "" {
		return common.Address{}, errMissingCaller
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, errInvalidCaller
	}
	addr := common.HexToAddress(raw)
	if addr == (common.Address{}) {
		return common.Address{}, errInvalidCaller
	}
	return addr, nil
}

func loanIDParam(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("loan_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidLoanID
	}
	return id, nil
}

func addressParam(c echo.Context, name string) (common.Address, error) {
	raw := c.Param(name)
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.New(name + " must be a 20-byte hex address")
	}
	return common.HexToAddress(raw), nil
}

// statusFor maps usecase errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domainApproval.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainApproval.ErrAlreadyApproved):
		return http.StatusConflict
	}
	switch domainLoan.KindOf(err) {
	case domainLoan.KindNotFound:
		return http.StatusNotFound
	case domainLoan.KindUnauthorized:
		return http.StatusForbidden
	case domainLoan.KindInvalidState, domainLoan.KindReentrant:
		return http.StatusConflict
	case domainLoan.KindInvalidAmount, domainLoan.KindInvalidParameter:
		return http.StatusUnprocessableEntity
	case domainLoan.KindExternalFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	code := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}
	if k := domainLoan.KindOf(err); k != domainLoan.KindUnknown {
		resp.Kind = k.String()
	}
	if code == http.StatusInternalServerError {
		c.Logger().Errorf("request failed: %v", err)
		resp.Error = "internal error"
	}
	return c.JSON(code, resp)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// bindAndValidate decodes the body into req and runs the struct validator.
// It writes the response itself and returns false on failure.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, badRequest(c, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
