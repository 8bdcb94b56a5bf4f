package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dev-Arnold/coinBackend/internal/api/request"
	"github.com/Dev-Arnold/coinBackend/internal/api/response"
	"github.com/Dev-Arnold/coinBackend/internal/model"
	"github.com/Dev-Arnold/coinBackend/internal/service"
	"github.com/Dev-Arnold/coinBackend/internal/validation"
)

// AdminHandler handles the API-key-guarded operator surface: account
// registration, coin awards, approvals, manual session control and
// trading blocks.
type AdminHandler struct {
	userService    *service.UserService
	coinService    *service.CoinService
	auctionService *service.AuctionService
	creditService  *service.CreditService
}

// NewAdminHandler creates a new AdminHandler with the provided service dependencies.
func NewAdminHandler(
	userService *service.UserService,
	coinService *service.CoinService,
	auctionService *service.AuctionService,
	creditService *service.CreditService,
) *AdminHandler {
	return &AdminHandler{
		userService:    userService,
		coinService:    coinService,
		auctionService: auctionService,
		creditService:  creditService,
	}
}

// RegisterUser handles POST requests to create a participant account.
//
// Endpoint: POST /api/admin/users
// Response: 201 Created with the new User
// Error: 400 Bad Request on validation failure
// Error: 404 Not Found if the referral code is unknown
func (h *AdminHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateRegister(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	user, err := h.userService.Register(r.Context(), model.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}, req.ReferralCode)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusCreated, user)
}

// AssignCoin handles POST requests to award a coin to a participant.
//
// Endpoint: POST /api/admin/coins
// Response: 201 Created with the new Coin
// Error: 400 Bad Request if the price falls outside every category band
func (h *AdminHandler) AssignCoin(w http.ResponseWriter, r *http.Request) {
	var req request.AssignCoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateAssignCoin(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	coin, err := h.coinService.AssignCoin(r.Context(), req.OwnerID, req.Price, model.Plan(req.Plan), req.IsBonus)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusCreated, coin)
}

// PendingCoins handles GET requests for the approval queue.
//
// Endpoint: GET /api/admin/coins/pending
// Response: 200 OK with array of Coin
func (h *AdminHandler) PendingCoins(w http.ResponseWriter, r *http.Request) {
	coins, err := h.coinService.PendingApproval(r.Context())
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, coins)
}

// ApproveCoin handles POST requests to approve a queued coin.
//
// Endpoint: POST /api/admin/coins/{uuid}/approve
// Response: 200 OK with the approved Coin
// Error: 409 Conflict if the coin is not pending approval
func (h *AdminHandler) ApproveCoin(w http.ResponseWriter, r *http.Request) {
	coinID := chi.URLParam(r, "uuid")

	coin, err := h.coinService.ApproveCoin(r.Context(), coinID)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, coin)
}

// OpenSession handles POST requests to open a trading session outside
// the weekly schedule.
//
// Endpoint: POST /api/admin/session/open
// Response: 201 Created with the AuctionSession
// Error: 409 Conflict if a session is already active
func (h *AdminHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.auctionService.OpenSession(r.Context())
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusCreated, session)
}

// CloseSession handles POST requests to close the active session.
// Closing with no active session is a no-op, not an error.
//
// Endpoint: POST /api/admin/session/close
// Response: 204 No Content
func (h *AdminHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.auctionService.CloseSession(r.Context()); err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}

// Stats handles GET requests for session and pool counters.
//
// Endpoint: GET /api/admin/stats
// Response: 200 OK with SessionStats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.auctionService.Stats(r.Context())
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, stats)
}

// SetBlocked handles PUT requests to toggle a participant's trading
// block. This is the only path that clears the automatic block latch.
//
// Endpoint: PUT /api/admin/users/{uuid}/block
// Response: 204 No Content
// Error: 404 Not Found if the user does not exist
func (h *AdminHandler) SetBlocked(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "uuid")

	var req request.BlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.creditService.SetBlocked(r.Context(), userID, req.Blocked); err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}
