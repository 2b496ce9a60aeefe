package app

import (
	"net/http"

	"github.com/opsfort/opsledger/internal/handler"
	"github.com/opsfort/opsledger/internal/middleware"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	middlewareRepo := middleware.New(app.errorHandler, app.Logger, &app.Config)

	healthHandler := handler.NewHealthCheckHandler(app.errorHandler)

	walletHandler := handler.NewWalletHandler(&handler.WalletHandler{
		WalletRepo:      app.DB.Wallet(),
		TransactionRepo: app.DB.Transaction(),
		ActivityRepo:    app.DB.Activity(),
		Limits:          app.Limits,
		Cache:           app.Cache,
		Helper:          app.helper,
		ErrHandler:      app.errorHandler,
	})

	ledgerHandler := handler.NewLedgerHandler(&handler.LedgerHandler{
		Engine:      app.Engine,
		Coordinator: app.Coordinator,
		ErrHandler:  app.errorHandler,
	})

	ticketHandler := handler.NewTicketHandler(&handler.TicketHandler{
		Analyzer:   app.Analyzer,
		ErrHandler: app.errorHandler,
	})

	mux.HandleFunc("GET /status", healthHandler.HandleHealthCheck)

	authenticated := func(h http.HandlerFunc) http.Handler {
		return middlewareRepo.RequireAuthenticatedOperator(h)
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return middlewareRepo.RequireAdmin(h)
	}

	mux.Handle("GET /wallets/user/{user_id}", authenticated(walletHandler.HandleGetWallet))
	mux.Handle("POST /wallets/{id}/status", adminOnly(walletHandler.HandleSetWalletStatus))
	mux.Handle("GET /wallets/{id}/transactions", authenticated(walletHandler.HandleListTransactions))

	mux.Handle("POST /wallets/{id}/transactions", authenticated(ledgerHandler.HandleApplyTransaction))
	mux.Handle("POST /wallets/bulk-transactions", authenticated(ledgerHandler.HandleBulkTransactions))

	mux.Handle("GET /users/{user_id}/limits", authenticated(walletHandler.HandleGetLimits))
	mux.Handle("PUT /users/{user_id}/limits", adminOnly(walletHandler.HandleSetLimits))

	mux.Handle("POST /tickets/analyze", authenticated(ticketHandler.HandleAnalyzePending))

	return middlewareRepo.LogAccess(middlewareRepo.RecoverPanic(middlewareRepo.Authenticate(mux)))
}
