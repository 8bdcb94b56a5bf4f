package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Dev-Arnold/coinBackend/internal/api/handlers"
	custommiddleware "github.com/Dev-Arnold/coinBackend/internal/api/middleware"
	"github.com/Dev-Arnold/coinBackend/internal/artifact"
	"github.com/Dev-Arnold/coinBackend/internal/config"
	"github.com/Dev-Arnold/coinBackend/internal/service"
)

// Services bundles the service layer for router construction.
type Services struct {
	User        *service.UserService
	Coin        *service.CoinService
	Auction     *service.AuctionService
	Reservation *service.ReservationService
	Trade       *service.TradeService
	Credit      *service.CreditService
}

// NewRouter creates and configures the HTTP router
func NewRouter(db *sql.DB, svc Services, artifacts artifact.Store, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	requireActor := custommiddleware.RequireActor
	requireAPIKey := custommiddleware.NewAPIKey(cfg.Security.AdminAPIKey)

	// API routes
	r.Route("/api", func(r chi.Router) {
		systemHandler := handlers.NewSystemHandler(db)
		r.Get("/health", systemHandler.Health)

		r.Route("/auction", func(r chi.Router) {
			auctionHandler := handlers.NewAuctionHandler(svc.Auction, svc.Reservation, svc.Trade, artifacts)
			r.Get("/snapshot", auctionHandler.Snapshot)

			r.Group(func(r chi.Router) {
				r.Use(requireActor)
				r.Get("/spending", auctionHandler.Spending)
				r.Get("/transactions", auctionHandler.Transactions)
				r.Post("/reserve", auctionHandler.Reserve)
				r.Route("/cancel/{uuid}", func(r chi.Router) {
					r.Use(custommiddleware.ValidateUUIDMiddleware)
					r.Post("/", auctionHandler.Cancel)
				})
				r.Route("/proof/{uuid}", func(r chi.Router) {
					r.Use(custommiddleware.ValidateUUIDMiddleware)
					r.Post("/", auctionHandler.SubmitProof)
				})
				r.Route("/release/{uuid}", func(r chi.Router) {
					r.Use(custommiddleware.ValidateUUIDMiddleware)
					r.Post("/", auctionHandler.Release)
				})
			})
		})

		r.Route("/coins", func(r chi.Router) {
			coinHandler := handlers.NewCoinHandler(svc.Coin)
			r.Use(requireActor)
			r.Get("/portfolio", coinHandler.Portfolio)
			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", coinHandler.GetCoin)
				r.Post("/submit-approval", coinHandler.SubmitApproval)
				r.Post("/list", coinHandler.List)
				r.Post("/recommit", coinHandler.Recommit)
			})
		})

		r.Route("/users", func(r chi.Router) {
			userHandler := handlers.NewUserHandler(svc.User)
			r.Use(requireActor)
			r.Get("/me", userHandler.Me)
			r.Put("/me/settlement", userHandler.UpdateSettlementDetails)
		})

		r.Route("/admin", func(r chi.Router) {
			adminHandler := handlers.NewAdminHandler(svc.User, svc.Coin, svc.Auction, svc.Credit)
			r.Use(requireAPIKey)
			r.Post("/users", adminHandler.RegisterUser)
			r.Post("/coins", adminHandler.AssignCoin)
			r.Get("/coins/pending", adminHandler.PendingCoins)
			r.Post("/session/open", adminHandler.OpenSession)
			r.Post("/session/close", adminHandler.CloseSession)
			r.Get("/stats", adminHandler.Stats)
			r.Route("/coins/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Post("/approve", adminHandler.ApproveCoin)
			})
			r.Route("/users/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Put("/block", adminHandler.SetBlocked)
			})
		})
	})

	return r
}
