package http

import "github.com/labstack/echo/v4"

// Handlers groups every handler mounted by RegisterRoutes.
type Handlers struct {
	Health   *Handler
	Loans    *LoanHandler
	Admin    *ApprovalHandler
	Accounts *AccountHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/health", h.Health.Health)

	loans := e.Group("/loans")
	loans.GET("", h.Loans.ActiveLoans)
	loans.POST("", h.Loans.ListLoan)
	loans.GET("/stats", h.Loans.Stats)
	loans.GET("/:loan_id", h.Loans.GetLoan)
	loans.DELETE("/:loan_id", h.Loans.DelistLoan)
	loans.GET("/:loan_id/quote", h.Loans.Quote)
	loans.GET("/:loan_id/repayment", h.Loans.GetRequiredRepayment)
	loans.GET("/:loan_id/bids", h.Loans.ListBids)
	loans.POST("/:loan_id/bids", h.Loans.PlaceBid)
	loans.DELETE("/:loan_id/bids", h.Loans.CancelBid)
	loans.POST("/:loan_id/accept", h.Loans.AcceptLoan)
	loans.POST("/:loan_id/repay", h.Loans.RepayLoan)
	loans.POST("/:loan_id/claim", h.Loans.ClaimDefaultedLoan)

	e.GET("/assets/:contract/:token_id", h.Accounts.AssetHolder)
	e.GET("/accounts/:address/balance", h.Accounts.Balance)

	admin := e.Group("/admin")
	admin.GET("/settings", h.Admin.Settings)
	admin.POST("/assets", h.Admin.ApproveAsset)
	admin.DELETE("/assets/:contract", h.Admin.RevokeAsset)
	admin.PUT("/fee-rate", h.Admin.SetFeeRate)
	admin.POST("/fees/withdraw", h.Admin.WithdrawFees)
	admin.POST("/custody", h.Accounts.RegisterAsset)
	admin.POST("/accounts/:address/deposit", h.Accounts.Deposit)
	admin.PUT("/accounts/:address/accepts-funds", h.Accounts.SetAcceptsFunds)
}
