// Package response provides utilities for sending consistent HTTP responses.
// It includes helpers for JSON responses and standardized error responses.
package response

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Dev-Arnold/coinBackend/internal/apperrors"
)

// ErrorResponse represents a structured error response returned by the API.
// The Details field is optional and can contain additional context about the error.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// Sets the Content-Type header to application/json and writes the status code.
// If data is nil, only the status code is sent (useful for 204 No Content).
// Logs encoding errors but does not fail the response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("failed to encode JSON response: %v", err)
		}
	}
}

// RespondError sends a structured error response with the given status code.
// The message should be a user-friendly error description.
// The details parameter can be an error string, additional context, or nil.
func RespondError(w http.ResponseWriter, status int, message string, details interface{}) {
	response := ErrorResponse{
		Error:   message,
		Details: details,
	}
	RespondJSON(w, status, response)
}

// RespondAppError maps a domain error to its HTTP status and sends it.
// Unrecognized errors become a 500 with the error text as details.
func RespondAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrCoinNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrTransactionNotFound),
		errors.Is(err, apperrors.ErrSessionNotFound):
		RespondError(w, http.StatusNotFound, err.Error(), "")

	case errors.Is(err, apperrors.ErrNoActiveSession),
		errors.Is(err, apperrors.ErrCoinNotAvailable),
		errors.Is(err, apperrors.ErrAlreadyReserved),
		errors.Is(err, apperrors.ErrReservationActive),
		errors.Is(err, apperrors.ErrSessionAlreadyActive),
		errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrWrongState),
		errors.Is(err, apperrors.ErrDuplicateSubmission),
		errors.Is(err, apperrors.ErrProofAlreadySet),
		errors.Is(err, apperrors.ErrSelfTrade):
		RespondError(w, http.StatusConflict, err.Error(), "")

	case errors.Is(err, apperrors.ErrReservationExpired):
		RespondError(w, http.StatusGone, err.Error(), "")

	case errors.Is(err, apperrors.ErrAccountBlocked),
		errors.Is(err, apperrors.ErrNotAuthorized):
		RespondError(w, http.StatusForbidden, err.Error(), "")

	case errors.Is(err, apperrors.ErrSpendingCapExceeded),
		errors.Is(err, apperrors.ErrInsufficientBalance):
		RespondError(w, http.StatusUnprocessableEntity, err.Error(), "")

	case errors.Is(err, apperrors.ErrProofMissing),
		errors.Is(err, apperrors.ErrInvalidPlan),
		errors.Is(err, apperrors.ErrInvalidPaymentMethod),
		errors.Is(err, apperrors.ErrInvalidPrice),
		errors.Is(err, apperrors.ErrInvalidUUID),
		errors.Is(err, apperrors.ErrEmptyID),
		errors.Is(err, apperrors.ErrMissingRequiredField):
		RespondError(w, http.StatusBadRequest, err.Error(), "")

	default:
		RespondError(w, http.StatusInternalServerError, "internal server error", err.Error())
	}
}
