package service

import (
	"context"
	"fmt"
	"log"

	"github.com/Dev-Arnold/coinBackend/internal/config"
	"github.com/Dev-Arnold/coinBackend/internal/repository"
)

// CreditService is the trust ledger. It applies penalties to
// participant credit scores and owns the block latch semantics: a score
// at or below the threshold blocks the account, and only an explicit
// admin unblock clears it.
type CreditService struct {
	userRepo *repository.UserRepository
	cfg      config.AuctionConfig
}

// NewCreditService creates a new CreditService with the provided repository dependency.
func NewCreditService(userRepo *repository.UserRepository, cfg config.AuctionConfig) *CreditService {
	return &CreditService{userRepo: userRepo, cfg: cfg}
}

// PenaltyResult reports the ledger state after a deduction.
type PenaltyResult struct {
	NewCreditScore int64 `json:"newCreditScore"`
	Blocked        bool  `json:"blocked"`
}

// PenalizeTimeout applies the percentage-of-current-score deduction for
// a silently lapsed deadline. Percentage penalties shrink in absolute
// size as the score falls; see the fixed-point penalties for policy
// violations.
func (s *CreditService) PenalizeTimeout(ctx context.Context, userID string) (PenaltyResult, error) {
	return s.penalize(ctx, userID, 0, s.cfg.TimeoutPenaltyPercent)
}

// PenalizeCancel applies the fixed deduction for a voluntary
// reservation cancel, deliberately smaller than the timeout penalty.
func (s *CreditService) PenalizeCancel(ctx context.Context, userID string) (PenaltyResult, error) {
	return s.penalize(ctx, userID, s.cfg.CancelPenaltyPoints, 0)
}

// PenalizeLateRelease applies the fixed seller deduction for confirming
// receipt after the release deadline.
func (s *CreditService) PenalizeLateRelease(ctx context.Context, userID string) (PenaltyResult, error) {
	return s.penalize(ctx, userID, s.cfg.LateReleasePenaltyPoints, 0)
}

func (s *CreditService) penalize(ctx context.Context, userID string, points, percent int64) (PenaltyResult, error) {
	score, blocked, err := s.userRepo.Penalize(ctx, userID, points, percent)
	if err != nil {
		return PenaltyResult{}, fmt.Errorf("failed to apply credit penalty: %w", err)
	}
	if blocked {
		log.Printf("user %s blocked: credit score %d", userID, score)
	}
	return PenaltyResult{NewCreditScore: score, Blocked: blocked}, nil
}

// SetBlocked toggles the block flag directly. Admin only; this is the
// single path that can clear the latch.
func (s *CreditService) SetBlocked(ctx context.Context, userID string, blocked bool) error {
	return s.userRepo.SetBlocked(ctx, userID, blocked)
}
