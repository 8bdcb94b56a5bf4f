package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dev-Arnold/coinBackend/internal/api/middleware"
	"github.com/Dev-Arnold/coinBackend/internal/api/request"
	"github.com/Dev-Arnold/coinBackend/internal/api/response"
	"github.com/Dev-Arnold/coinBackend/internal/service"
	"github.com/Dev-Arnold/coinBackend/internal/validation"
)

// CoinHandler handles HTTP requests for a participant's own coins.
type CoinHandler struct {
	coinService *service.CoinService
}

// NewCoinHandler creates a new CoinHandler with the provided service dependency.
func NewCoinHandler(coinService *service.CoinService) *CoinHandler {
	return &CoinHandler{coinService: coinService}
}

// PortfolioResponse bundles a participant's coins with their aggregate
// figures.
type PortfolioResponse struct {
	Coins   interface{} `json:"coins"`
	Summary interface{} `json:"summary"`
}

// Portfolio handles GET requests for the caller's holdings.
//
// Endpoint: GET /api/coins/portfolio
// Response: 200 OK with PortfolioResponse
func (h *CoinHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	coins, summary, err := h.coinService.Portfolio(r.Context(), middleware.ActorID(r.Context()))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, PortfolioResponse{Coins: coins, Summary: summary})
}

// GetCoin handles GET requests for a single coin with its live accrual
// figures.
//
// Endpoint: GET /api/coins/{uuid}
// Response: 200 OK with CoinResponse
// Error: 404 Not Found if the coin does not exist
func (h *CoinHandler) GetCoin(w http.ResponseWriter, r *http.Request) {
	coinID := chi.URLParam(r, "uuid")

	coin, err := h.coinService.GetCoin(r.Context(), coinID)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, coin)
}

// SubmitApproval handles POST requests to queue a locked coin for admin
// review.
//
// Endpoint: POST /api/coins/{uuid}/submit-approval
// Response: 200 OK with the updated Coin
// Error: 403 Forbidden if the caller does not own the coin
// Error: 409 Conflict if the coin is already pending approval
func (h *CoinHandler) SubmitApproval(w http.ResponseWriter, r *http.Request) {
	coinID := chi.URLParam(r, "uuid")

	coin, err := h.coinService.SubmitForApproval(r.Context(), coinID, middleware.ActorID(r.Context()))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, coin)
}

// List handles POST requests to put an approved coin up for auction.
//
// Endpoint: POST /api/coins/{uuid}/list
// Response: 200 OK with ListResult
// Error: 409 Conflict if the coin is not in a listable state
func (h *CoinHandler) List(w http.ResponseWriter, r *http.Request) {
	coinID := chi.URLParam(r, "uuid")

	var req request.ListCoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateListCoin(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.coinService.ListForAuction(r.Context(), coinID, middleware.ActorID(r.Context()), req.Price, req.CollectProfit)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, result)
}

// RecommitResponse reports a recommitment: the unlocked coin and the
// settled balance transaction.
type RecommitResponse struct {
	Coin        interface{} `json:"coin"`
	Transaction interface{} `json:"transaction"`
}

// Recommit handles POST requests to buy back one's own matured coin
// from balance, unlocking it for resale.
//
// Endpoint: POST /api/coins/{uuid}/recommit
// Response: 200 OK with RecommitResponse
// Error: 422 Unprocessable Entity if the balance cannot cover the value
func (h *CoinHandler) Recommit(w http.ResponseWriter, r *http.Request) {
	coinID := chi.URLParam(r, "uuid")

	coin, tx, err := h.coinService.Recommit(r.Context(), coinID, middleware.ActorID(r.Context()))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, RecommitResponse{Coin: coin, Transaction: tx})
}
