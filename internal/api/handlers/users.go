package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Dev-Arnold/coinBackend/internal/api/middleware"
	"github.com/Dev-Arnold/coinBackend/internal/api/request"
	"github.com/Dev-Arnold/coinBackend/internal/api/response"
	"github.com/Dev-Arnold/coinBackend/internal/model"
	"github.com/Dev-Arnold/coinBackend/internal/service"
)

// UserHandler handles HTTP requests for the caller's own account.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler with the provided service dependency.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me handles GET requests for the caller's account.
//
// Endpoint: GET /api/users/me
// Response: 200 OK with User
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), middleware.ActorID(r.Context()))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, user)
}

// UpdateSettlementDetails handles PUT requests to replace the caller's
// payout endpoints.
//
// Endpoint: PUT /api/users/me/settlement
// Response: 200 OK with the updated User
// Error: 400 Bad Request if neither bank details nor a wallet is given
func (h *UserHandler) UpdateSettlementDetails(w http.ResponseWriter, r *http.Request) {
	var req request.SettlementDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var bank *model.BankDetails
	if req.AccountNumber != "" || req.AccountName != "" || req.BankName != "" {
		bank = &model.BankDetails{
			AccountName:   req.AccountName,
			AccountNumber: req.AccountNumber,
			BankName:      req.BankName,
		}
	}

	user, err := h.userService.UpdateSettlementDetails(r.Context(), middleware.ActorID(r.Context()), bank, req.USDTWallet)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, user)
}
