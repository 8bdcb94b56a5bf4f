package apperrors

import "errors"

// Domain entity errors represent missing entities in the system.
var (
	// ErrCoinNotFound indicates that a coin with the given ID does not exist.
	ErrCoinNotFound = errors.New("coin not found")

	// ErrUserNotFound indicates that a user with the given ID does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrSessionNotFound indicates that no auction session matches the query.
	ErrSessionNotFound = errors.New("auction session not found")
)

// State-conflict errors represent precondition violations: the entity
// exists but is in the wrong state for the requested operation. These
// are surfaced as specific kinds and never silently retried.
var (
	// ErrNoActiveSession indicates that no auction session is currently open for trading.
	ErrNoActiveSession = errors.New("no active auction at the moment")

	// ErrSessionAlreadyActive indicates an attempt to open a session while one is active.
	ErrSessionAlreadyActive = errors.New("an auction session is already active")

	// ErrCoinNotAvailable indicates that a coin is not listed for bidding.
	ErrCoinNotAvailable = errors.New("coin is not available for bidding")

	// ErrAlreadyReserved indicates that another buyer won the race for the coin.
	ErrAlreadyReserved = errors.New("coin is already reserved by another buyer")

	// ErrReservationExpired indicates that the buyer's hold on the coin has lapsed.
	ErrReservationExpired = errors.New("reservation has expired")

	// ErrReservationActive indicates that the buyer already holds a live reservation.
	ErrReservationActive = errors.New("an active reservation already exists for this buyer")

	// ErrInvalidState indicates that the coin's lifecycle state forbids the operation,
	// e.g. listing a locked or unapproved coin.
	ErrInvalidState = errors.New("coin is not in a valid state for this operation")

	// ErrDuplicateSubmission indicates that a coin was already submitted for approval.
	ErrDuplicateSubmission = errors.New("coin is already pending approval")

	// ErrWrongState indicates that a transaction's status forbids the operation.
	ErrWrongState = errors.New("transaction is not in a valid state for this operation")

	// ErrProofAlreadySet indicates an attempt to replace an uploaded payment proof.
	ErrProofAlreadySet = errors.New("payment proof has already been uploaded")
)

// Business rule errors represent policy violations.
var (
	// ErrSelfTrade indicates that a buyer attempted to reserve their own coin.
	ErrSelfTrade = errors.New("cannot bid on your own coin")

	// ErrAccountBlocked indicates that the participant's credit score has
	// dropped below the trading threshold.
	ErrAccountBlocked = errors.New("account is blocked")

	// ErrSpendingCapExceeded indicates that the bid would push the buyer past
	// the per-session spending cap.
	ErrSpendingCapExceeded = errors.New("session spending cap exceeded")

	// ErrInsufficientBalance indicates that the account balance does not cover
	// the requested amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNotAuthorized indicates that the actor is not allowed to perform the action.
	ErrNotAuthorized = errors.New("not authorized to perform this action")
)

// Validation errors represent bad input shape, rejected before any
// state mutation.
var (
	// ErrProofMissing indicates that no payment proof reference was supplied.
	ErrProofMissing = errors.New("payment proof is required")

	// ErrInvalidPlan indicates an unknown plan tier.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrInvalidPaymentMethod indicates an unknown payment method.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrInvalidPrice indicates a price outside all category bands.
	ErrInvalidPrice = errors.New("price is outside all category bands")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrMissingRequiredField indicates that a required field is missing or empty.
	ErrMissingRequiredField = errors.New("missing required field")
)
