package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dev-Arnold/coinBackend/internal/api/middleware"
	"github.com/Dev-Arnold/coinBackend/internal/api/request"
	"github.com/Dev-Arnold/coinBackend/internal/api/response"
	"github.com/Dev-Arnold/coinBackend/internal/artifact"
	"github.com/Dev-Arnold/coinBackend/internal/service"
	"github.com/Dev-Arnold/coinBackend/internal/validation"
)

// AuctionHandler handles HTTP requests for the bidding flow: viewing
// the pool, reserving coins and walking a bid through payment proof and
// seller release.
type AuctionHandler struct {
	auctionService     *service.AuctionService
	reservationService *service.ReservationService
	tradeService       *service.TradeService
	artifacts          artifact.Store
}

// NewAuctionHandler creates a new AuctionHandler with the provided dependencies.
func NewAuctionHandler(
	auctionService *service.AuctionService,
	reservationService *service.ReservationService,
	tradeService *service.TradeService,
	artifacts artifact.Store,
) *AuctionHandler {
	return &AuctionHandler{
		auctionService:     auctionService,
		reservationService: reservationService,
		tradeService:       tradeService,
		artifacts:          artifacts,
	}
}

// Snapshot handles GET requests for the public auction view.
//
// Endpoint: GET /api/auction/snapshot
// Response: 200 OK with AuctionSnapshot
func (h *AuctionHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.auctionService.Snapshot(r.Context())
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, snapshot)
}

// Spending handles GET requests for the caller's position against the
// per-session spending cap.
//
// Endpoint: GET /api/auction/spending
// Response: 200 OK with SpendingStatus
func (h *AuctionHandler) Spending(w http.ResponseWriter, r *http.Request) {
	status, err := h.auctionService.SpendingStatus(r.Context(), middleware.ActorID(r.Context()))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, status)
}

// Reserve handles POST requests to place a hold on a listed coin.
//
// Endpoint: POST /api/auction/reserve
// Response: 201 Created with ReserveResult
// Error: 400 Bad Request on validation failure
// Error: 409 Conflict if the coin is already reserved
// Error: 422 Unprocessable Entity if the spending cap would be exceeded
func (h *AuctionHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req request.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateReserve(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.reservationService.Reserve(r.Context(), req.CoinID, middleware.ActorID(r.Context()), req.PaymentMethod)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusCreated, result)
}

// Cancel handles POST requests to voluntarily drop a reservation.
//
// Endpoint: POST /api/auction/cancel/{uuid}
// Response: 200 OK with PenaltyResult
// Error: 410 Gone if the reservation already expired
func (h *AuctionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	coinID := chi.URLParam(r, "uuid")

	result, err := h.reservationService.Cancel(r.Context(), coinID, middleware.ActorID(r.Context()))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, result)
}

// SubmitProof handles POST requests to attach payment evidence to a
// pending bid. The raw proof payload is persisted in the artifact store
// and only its reference travels with the transaction.
//
// Endpoint: POST /api/auction/proof/{uuid}
// Response: 200 OK with the updated Transaction
// Error: 409 Conflict if proof was already uploaded
// Error: 410 Gone if the payment deadline passed
func (h *AuctionHandler) SubmitProof(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	var req request.SubmitProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateSubmitProof(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	ref, err := h.artifacts.Upload([]byte(req.Proof))
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to store payment proof", err.Error())
		return
	}

	tx, err := h.tradeService.SubmitProof(r.Context(), transactionID, middleware.ActorID(r.Context()), ref)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, tx)
}

// Release handles POST requests from the seller confirming payment
// receipt, completing the trade.
//
// Endpoint: POST /api/auction/release/{uuid}
// Response: 200 OK with ReleaseResult
// Error: 403 Forbidden if the caller does not own the coin
// Error: 409 Conflict if the transaction is not awaiting release
func (h *AuctionHandler) Release(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	result, err := h.tradeService.Release(r.Context(), transactionID, middleware.ActorID(r.Context()))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, result)
}

// Transactions handles GET requests for the caller's bid history.
//
// Endpoint: GET /api/auction/transactions
// Response: 200 OK with array of Transaction
func (h *AuctionHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.tradeService.GetTransactionsByBuyer(r.Context(), middleware.ActorID(r.Context()))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, txs)
}
