package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Dev-Arnold/coinBackend/internal/apperrors"
	"github.com/Dev-Arnold/coinBackend/internal/config"
	"github.com/Dev-Arnold/coinBackend/internal/model"
	"github.com/Dev-Arnold/coinBackend/internal/notify"
	"github.com/Dev-Arnold/coinBackend/internal/repository"
)

// TradeService carries a reserved coin through payment proof and seller
// release. The transaction row is the single point of truth for
// in-flight state; every advance is a status-guarded write so retries
// and duplicate requests no-op instead of double-applying.
type TradeService struct {
	coinRepo        *repository.CoinRepository
	userRepo        *repository.UserRepository
	transactionRepo *repository.TransactionRepository
	creditService   *CreditService
	notifier        *notify.Notifier
	cfg             config.AuctionConfig
}

// NewTradeService creates a new TradeService with the provided dependencies.
func NewTradeService(
	coinRepo *repository.CoinRepository,
	userRepo *repository.UserRepository,
	transactionRepo *repository.TransactionRepository,
	creditService *CreditService,
	notifier *notify.Notifier,
	cfg config.AuctionConfig,
) *TradeService {
	return &TradeService{
		coinRepo:        coinRepo,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		creditService:   creditService,
		notifier:        notifier,
		cfg:             cfg,
	}
}

// SubmitProof attaches the buyer's payment proof to their pending bid
// and hands the coin's in-flight state over to the transaction record.
// A submission past the payment deadline fails the bid, restores the
// coin and penalizes the buyer.
func (s *TradeService) SubmitProof(ctx context.Context, transactionID, buyerID, proofRef string) (model.Transaction, error) {
	if proofRef == "" {
		return model.Transaction{}, apperrors.ErrProofMissing
	}

	tx, err := s.transactionRepo.GetTransaction(ctx, transactionID)
	if err != nil {
		return model.Transaction{}, err
	}
	if tx.BuyerID != buyerID {
		return model.Transaction{}, apperrors.ErrNotAuthorized
	}
	if tx.Status != model.TxStatusPendingPayment {
		if tx.PaymentProof != "" {
			return model.Transaction{}, apperrors.ErrProofAlreadySet
		}
		return model.Transaction{}, apperrors.ErrWrongState
	}

	now := time.Now()
	if tx.IsPaymentExpired(now) {
		if err := s.failBid(ctx, tx); err != nil {
			return model.Transaction{}, err
		}
		return model.Transaction{}, apperrors.ErrReservationExpired
	}

	advanced, err := s.transactionRepo.AttachProof(ctx, tx.ID, proofRef, now.Add(s.cfg.ReleaseWindow))
	if err != nil {
		return model.Transaction{}, err
	}
	if !advanced {
		return model.Transaction{}, apperrors.ErrWrongState
	}

	// The transaction record now owns the in-flight state; drop the
	// reservation without restoring the coin to the pool.
	if _, err := s.coinRepo.ClearReservation(ctx, tx.CoinID, buyerID, false); err != nil {
		return model.Transaction{}, err
	}

	updated, err := s.transactionRepo.GetTransaction(ctx, tx.ID)
	if err != nil {
		return model.Transaction{}, err
	}

	if seller := s.sellerOf(ctx, updated); seller != nil {
		s.notifier.Notify(ctx, seller.Phone, "Payment proof uploaded",
			fmt.Sprintf("The buyer uploaded payment proof. Confirm receipt by %s.", updated.ReleaseDeadline.Format(time.RFC1123)))
	}
	return updated, nil
}

// ReleaseResult reports a completed trade.
type ReleaseResult struct {
	Transaction  model.Transaction `json:"transaction"`
	NewCoin      model.Coin        `json:"newCoin"`
	OriginalCoin model.Coin        `json:"originalCoin"`
}

// Release is the seller confirming receipt of payment. It mints a fresh
// locked coin for the buyer at the transaction amount, settles the
// seller's proceeds, shrinks or retires the original coin, and pays a
// first-purchase referral commission. A release past the deadline still
// completes but costs the seller a fixed penalty.
func (s *TradeService) Release(ctx context.Context, transactionID, actorID string) (ReleaseResult, error) {
	tx, err := s.transactionRepo.GetTransaction(ctx, transactionID)
	if err != nil {
		return ReleaseResult{}, err
	}

	coin, err := s.coinRepo.GetCoin(ctx, tx.CoinID)
	if err != nil {
		return ReleaseResult{}, err
	}

	sellerID := tx.SellerID
	if sellerID == "" {
		sellerID = coin.OwnerID
	}
	if actorID != sellerID {
		return ReleaseResult{}, apperrors.ErrNotAuthorized
	}
	if tx.Status != model.TxStatusPaymentUploaded {
		return ReleaseResult{}, apperrors.ErrWrongState
	}

	now := time.Now()

	// Value figures are taken before the confirm so the partial-fill
	// ratio matches what the buyer bid on.
	valueBefore := coin.CurrentValue(now)

	commission, referrerID, err := s.referralCommission(ctx, tx)
	if err != nil {
		return ReleaseResult{}, err
	}

	confirmed, err := s.transactionRepo.Confirm(ctx, tx.ID, now, commission, referrerID)
	if err != nil {
		return ReleaseResult{}, err
	}
	if !confirmed {
		// A concurrent release won; this retry is a safe no-op.
		return ReleaseResult{}, apperrors.ErrWrongState
	}

	lateRelease := tx.IsReleaseExpired(now)

	// Mint the buyer's coin: fresh accrual clock, locked so it cannot
	// be flipped straight back into the pool.
	newCoin := model.Coin{
		ID:               uuid.New().String(),
		OwnerID:          tx.BuyerID,
		SellerID:         "",
		BoughtFromID:     sellerID,
		Price:            tx.Amount,
		Plan:             tx.Plan,
		Status:           model.CoinStatusLocked,
		IsLocked:         true,
		IsApproved:       true,
		PurchaseDate:     now,
		LastProfitUpdate: now,
		CreatedAt:        now,
	}
	if err := s.coinRepo.InsertCoin(ctx, &newCoin); err != nil {
		return ReleaseResult{}, err
	}

	// Partial fill: the original keeps trading at a principal scaled by
	// the fraction of value left unconsumed.
	if tx.Amount < valueBefore {
		valueAfter := valueBefore - tx.Amount
		remaining := int64(math.Floor(float64(coin.Price) * float64(valueAfter) / float64(valueBefore)))
		if _, err := s.coinRepo.ShrinkPrincipal(ctx, coin.ID, remaining); err != nil {
			return ReleaseResult{}, err
		}
	} else {
		if _, err := s.coinRepo.Retire(ctx, coin.ID); err != nil {
			return ReleaseResult{}, err
		}
	}

	if err := s.userRepo.CreditBalance(ctx, sellerID, tx.Amount); err != nil {
		return ReleaseResult{}, err
	}

	if commission > 0 && referrerID != "" {
		if err := s.userRepo.CreditReferralEarnings(ctx, referrerID, commission); err != nil {
			return ReleaseResult{}, err
		}
	}

	if lateRelease {
		if _, err := s.creditService.PenalizeLateRelease(ctx, sellerID); err != nil {
			return ReleaseResult{}, err
		}
	}

	finalTx, err := s.transactionRepo.GetTransaction(ctx, tx.ID)
	if err != nil {
		return ReleaseResult{}, err
	}
	original, err := s.coinRepo.GetCoin(ctx, coin.ID)
	if err != nil {
		return ReleaseResult{}, err
	}

	if buyer, err := s.userRepo.GetUser(ctx, tx.BuyerID); err == nil {
		s.notifier.Notify(ctx, buyer.Phone, "Trade confirmed",
			"The seller confirmed your payment. The coin is now in your portfolio.")
	}

	return ReleaseResult{Transaction: finalTx, NewCoin: newCoin, OriginalCoin: original}, nil
}

// SweepDeadlines fails transactions that missed their payment or
// release deadline. Each is terminated with a status-guarded update, so
// the restore and the penalty are applied exactly once no matter how
// many sweeps race.
func (s *TradeService) SweepDeadlines(ctx context.Context) (int, error) {
	now := time.Now()
	overdue, err := s.transactionRepo.GetOverdue(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, tx := range overdue {
		failed, err := s.transactionRepo.MarkFailed(ctx, tx.ID)
		if err != nil {
			return processed, err
		}
		if !failed {
			continue
		}

		// Restore the coin whichever side of proof upload the flow
		// died on: clear a still-held reservation or relist the
		// pending_sale coin directly.
		cleared, err := s.coinRepo.ClearReservation(ctx, tx.CoinID, tx.BuyerID, true)
		if err != nil {
			return processed, err
		}
		if !cleared {
			if _, err := s.coinRepo.Relist(ctx, tx.CoinID); err != nil {
				return processed, err
			}
		}

		if _, err := s.creditService.PenalizeTimeout(ctx, tx.BuyerID); err != nil {
			return processed, err
		}
		processed++
	}

	if processed > 0 {
		log.Printf("failed %d overdue transactions", processed)
	}
	return processed, nil
}

// GetTransactionsByBuyer lists a buyer's bids, newest first.
func (s *TradeService) GetTransactionsByBuyer(ctx context.Context, buyerID string) ([]model.Transaction, error) {
	return s.transactionRepo.GetTransactionsByBuyer(ctx, buyerID)
}

// failBid terminates an expired pending bid, restores the coin and
// penalizes the buyer. Guarded: a concurrent sweep doing the same work
// wins at most once.
func (s *TradeService) failBid(ctx context.Context, tx model.Transaction) error {
	failed, err := s.transactionRepo.MarkFailed(ctx, tx.ID)
	if err != nil {
		return err
	}
	if !failed {
		return nil
	}
	if _, err := s.coinRepo.ClearReservation(ctx, tx.CoinID, tx.BuyerID, true); err != nil {
		return err
	}
	_, err = s.creditService.PenalizeTimeout(ctx, tx.BuyerID)
	return err
}

// referralCommission computes the first-purchase commission for the
// buyer's referrer, if any. Gated on no prior confirmed purchase so the
// payout happens at most once per buyer.
func (s *TradeService) referralCommission(ctx context.Context, tx model.Transaction) (int64, string, error) {
	buyer, err := s.userRepo.GetUser(ctx, tx.BuyerID)
	if err != nil {
		return 0, "", err
	}
	if buyer.ReferredByID == "" {
		return 0, "", nil
	}

	bought, err := s.transactionRepo.HasConfirmedPurchase(ctx, tx.BuyerID)
	if err != nil {
		return 0, "", err
	}
	if bought {
		return 0, "", nil
	}

	commission := tx.Amount * s.cfg.ReferralCommissionPercent / 100
	return commission, buyer.ReferredByID, nil
}

func (s *TradeService) sellerOf(ctx context.Context, tx model.Transaction) *model.User {
	sellerID := tx.SellerID
	if sellerID == "" {
		coin, err := s.coinRepo.GetCoin(ctx, tx.CoinID)
		if err != nil {
			return nil
		}
		sellerID = coin.OwnerID
	}
	seller, err := s.userRepo.GetUser(ctx, sellerID)
	if err != nil {
		return nil
	}
	return &seller
}
