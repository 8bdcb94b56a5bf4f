package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Dev-Arnold/coinBackend/internal/apperrors"
	"github.com/Dev-Arnold/coinBackend/internal/model"
	"github.com/Dev-Arnold/coinBackend/internal/repository"
)

// UserService manages participant accounts. Authentication lives
// upstream; this layer only owns the marketplace-facing account state.
type UserService struct {
	userRepo *repository.UserRepository
}

// NewUserService creates a new UserService with the provided repository.
func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register creates a participant account. An optional referral code
// links the new account to its referrer for the first-purchase
// commission; an unknown code is rejected rather than silently dropped.
func (s *UserService) Register(ctx context.Context, u model.User, referralCode string) (model.User, error) {
	if referralCode != "" {
		referrer, err := s.userRepo.GetUserByReferralCode(ctx, referralCode)
		if err != nil {
			return model.User{}, err
		}
		u.ReferredByID = referrer.ID
	}

	u.ID = uuid.New().String()
	u.Role = model.RoleUser
	u.CreditScore = 100
	u.CreatedAt = time.Now()
	if err := s.userRepo.InsertUser(ctx, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// GetUser returns a participant's account.
func (s *UserService) GetUser(ctx context.Context, userID string) (model.User, error) {
	return s.userRepo.GetUser(ctx, userID)
}

// UpdateSettlementDetails replaces the participant's payout endpoints.
// Bank details are encrypted at rest by the repository.
func (s *UserService) UpdateSettlementDetails(ctx context.Context, userID string, bank *model.BankDetails, usdtWallet string) (model.User, error) {
	if bank == nil && usdtWallet == "" {
		return model.User{}, apperrors.ErrMissingRequiredField
	}
	if err := s.userRepo.UpdateSettlementDetails(ctx, userID, bank, usdtWallet); err != nil {
		return model.User{}, err
	}
	return s.userRepo.GetUser(ctx, userID)
}
