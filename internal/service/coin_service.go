package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Dev-Arnold/coinBackend/internal/apperrors"
	"github.com/Dev-Arnold/coinBackend/internal/model"
	"github.com/Dev-Arnold/coinBackend/internal/repository"
)

// CoinService drives an individual coin's lifecycle outside the
// auction: creation, approval, listing and recommitment.
type CoinService struct {
	coinRepo        *repository.CoinRepository
	userRepo        *repository.UserRepository
	transactionRepo *repository.TransactionRepository
}

// NewCoinService creates a new CoinService with the provided repository dependencies.
func NewCoinService(
	coinRepo *repository.CoinRepository,
	userRepo *repository.UserRepository,
	transactionRepo *repository.TransactionRepository,
) *CoinService {
	return &CoinService{
		coinRepo:        coinRepo,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
	}
}

// GetCoin returns a coin with its live accrual figures.
func (s *CoinService) GetCoin(ctx context.Context, coinID string) (model.CoinResponse, error) {
	coin, err := s.coinRepo.GetCoin(ctx, coinID)
	if err != nil {
		return model.CoinResponse{}, err
	}
	now := time.Now()
	return model.CoinResponse{Coin: coin, ProfitInfo: coin.ProfitInfo(now)}, nil
}

// Portfolio returns all of an owner's coins with current values and an
// aggregate summary.
func (s *CoinService) Portfolio(ctx context.Context, ownerID string) ([]model.CoinResponse, model.PortfolioSummary, error) {
	coins, err := s.coinRepo.GetCoinsByOwner(ctx, ownerID)
	if err != nil {
		return nil, model.PortfolioSummary{}, err
	}

	now := time.Now()
	responses := make([]model.CoinResponse, 0, len(coins))
	var summary model.PortfolioSummary
	for _, c := range coins {
		if c.Status == model.CoinStatusSold {
			continue
		}
		info := c.ProfitInfo(now)
		responses = append(responses, model.CoinResponse{Coin: c, ProfitInfo: info})
		summary.TotalInvestment += c.Price
		summary.TotalCurrentValue += info.CurrentValue
	}
	summary.TotalProfit = summary.TotalCurrentValue - summary.TotalInvestment
	if summary.TotalInvestment > 0 {
		summary.ProfitPercent = float64(summary.TotalProfit) / float64(summary.TotalInvestment) * 100
	}
	return responses, summary, nil
}

// AssignCoin mints a coin for a participant (admin award or signup
// bonus). New coins start locked and unapproved unless bonus: bonus
// coins are treated as matured immediately.
func (s *CoinService) AssignCoin(ctx context.Context, ownerID string, price int64, plan model.Plan, isBonus bool) (model.Coin, error) {
	if !plan.IsValid() {
		return model.Coin{}, apperrors.ErrInvalidPlan
	}
	if _, err := s.userRepo.GetUser(ctx, ownerID); err != nil {
		return model.Coin{}, err
	}

	now := time.Now()
	coin := model.Coin{
		ID:               uuid.New().String(),
		OwnerID:          ownerID,
		Price:            price,
		Plan:             plan,
		Status:           model.CoinStatusLocked,
		IsLocked:         true,
		IsBonus:          isBonus,
		PurchaseDate:     now,
		LastProfitUpdate: now,
		CreatedAt:        now,
	}
	if err := s.coinRepo.InsertCoin(ctx, &coin); err != nil {
		return model.Coin{}, err
	}
	return coin, nil
}

// SubmitForApproval queues a locked coin for admin review before it can
// be listed.
func (s *CoinService) SubmitForApproval(ctx context.Context, coinID, ownerID string) (model.Coin, error) {
	coin, err := s.coinRepo.GetCoin(ctx, coinID)
	if err != nil {
		return model.Coin{}, err
	}
	if coin.OwnerID != ownerID {
		return model.Coin{}, apperrors.ErrNotAuthorized
	}
	if coin.Status == model.CoinStatusPendingApproval {
		return model.Coin{}, apperrors.ErrDuplicateSubmission
	}
	if !coin.IsLocked || coin.Status == model.CoinStatusSold {
		return model.Coin{}, apperrors.ErrInvalidState
	}

	updated, err := s.coinRepo.SubmitForApproval(ctx, coinID)
	if err != nil {
		return model.Coin{}, err
	}
	if !updated {
		// Lost a race with another submission of the same coin.
		return model.Coin{}, apperrors.ErrDuplicateSubmission
	}
	return s.coinRepo.GetCoin(ctx, coinID)
}

// ApproveCoin unlocks a coin for listing. Admin operation; the
// pre-session sweep calls the same path for small positions.
func (s *CoinService) ApproveCoin(ctx context.Context, coinID string) (model.Coin, error) {
	coin, err := s.coinRepo.GetCoin(ctx, coinID)
	if err != nil {
		return model.Coin{}, err
	}
	if coin.Status == model.CoinStatusSold {
		return model.Coin{}, apperrors.ErrInvalidState
	}
	if _, err := s.coinRepo.Approve(ctx, coinID); err != nil {
		return model.Coin{}, err
	}
	return s.coinRepo.GetCoin(ctx, coinID)
}

// ListResult reports a listing, including any profit collected when a
// matured coin was cashed out at listing time.
type ListResult struct {
	Coin            model.Coin `json:"coin"`
	ProfitCollected int64      `json:"profitCollected,omitempty"`
	NewBalance      int64      `json:"newBalance,omitempty"`
}

// ListForAuction puts an approved, unlocked coin into the bidding pool.
// If the coin has matured and the owner asks to collect profit, the
// accrued gain is credited to their balance and the coin is repriced at
// its matured value before listing.
func (s *CoinService) ListForAuction(ctx context.Context, coinID, ownerID string, newPrice int64, collectProfit bool) (ListResult, error) {
	coin, err := s.coinRepo.GetCoin(ctx, coinID)
	if err != nil {
		return ListResult{}, err
	}
	if coin.OwnerID != ownerID {
		return ListResult{}, apperrors.ErrNotAuthorized
	}
	if coin.IsLocked || !coin.IsApproved || coin.IsInAuction ||
		coin.Status == model.CoinStatusSold || coin.Status == model.CoinStatusPendingSale {
		return ListResult{}, apperrors.ErrInvalidState
	}

	now := time.Now()
	result := ListResult{}
	price := coin.Price
	status := model.CoinStatusAvailable

	if coin.HasMatured(now) && collectProfit {
		finalValue := coin.CurrentValue(now)
		result.ProfitCollected = finalValue - coin.Price
		if result.ProfitCollected > 0 {
			if err := s.userRepo.CreditBalance(ctx, ownerID, result.ProfitCollected); err != nil {
				return ListResult{}, err
			}
		}
		price = finalValue
		status = model.CoinStatusMatured
	}
	if newPrice > 0 {
		price = newPrice
	}

	listed, err := s.coinRepo.ListForAuction(ctx, coinID, ownerID, price, status)
	if err != nil {
		return ListResult{}, err
	}
	if !listed {
		return ListResult{}, apperrors.ErrInvalidState
	}

	if result.ProfitCollected > 0 {
		owner, err := s.userRepo.GetUser(ctx, ownerID)
		if err != nil {
			return ListResult{}, err
		}
		result.NewBalance = owner.Balance
	}
	result.Coin, err = s.coinRepo.GetCoin(ctx, coinID)
	if err != nil {
		return ListResult{}, err
	}
	return result, nil
}

// Recommit unlocks a locked coin for resale by committing its full
// current value from the owner's balance. The settlement is recorded as
// a confirmed balance-method transaction.
func (s *CoinService) Recommit(ctx context.Context, coinID, ownerID string) (model.Coin, model.Transaction, error) {
	coin, err := s.coinRepo.GetCoin(ctx, coinID)
	if err != nil {
		return model.Coin{}, model.Transaction{}, err
	}
	if coin.OwnerID != ownerID {
		return model.Coin{}, model.Transaction{}, apperrors.ErrNotAuthorized
	}
	if !coin.IsLocked || coin.Status == model.CoinStatusSold {
		return model.Coin{}, model.Transaction{}, apperrors.ErrInvalidState
	}

	now := time.Now()
	currentValue := coin.CurrentValue(now)

	// Debit first: the conditional update rejects insufficient balance
	// before anything else changes.
	if err := s.userRepo.DebitBalance(ctx, ownerID, currentValue); err != nil {
		return model.Coin{}, model.Transaction{}, err
	}

	tx := model.Transaction{
		ID:              uuid.New().String(),
		BuyerID:         ownerID,
		CoinID:          coinID,
		Amount:          currentValue,
		Plan:            coin.Plan,
		PaymentMethod:   model.PaymentMethodBalance,
		Status:          model.TxStatusConfirmed,
		PaymentDeadline: now,
		CreatedAt:       now,
		CompletedAt:     now,
	}
	if err := s.transactionRepo.InsertTransaction(ctx, &tx); err != nil {
		return model.Coin{}, model.Transaction{}, err
	}

	if _, err := s.coinRepo.Unlock(ctx, coinID); err != nil {
		return model.Coin{}, model.Transaction{}, err
	}

	unlocked, err := s.coinRepo.GetCoin(ctx, coinID)
	if err != nil {
		return model.Coin{}, model.Transaction{}, err
	}
	return unlocked, tx, nil
}

// PendingApproval lists coins waiting for admin review.
func (s *CoinService) PendingApproval(ctx context.Context) ([]model.Coin, error) {
	return s.coinRepo.GetPendingApproval(ctx)
}
