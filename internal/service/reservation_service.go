package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Dev-Arnold/coinBackend/internal/apperrors"
	"github.com/Dev-Arnold/coinBackend/internal/config"
	"github.com/Dev-Arnold/coinBackend/internal/model"
	"github.com/Dev-Arnold/coinBackend/internal/notify"
	"github.com/Dev-Arnold/coinBackend/internal/repository"
)

// ReservationService places and resolves exclusive time-limited holds
// on listed coins. A reservation doubles as the bid: it snapshots the
// coin's accrued value and opens the payment window.
type ReservationService struct {
	coinRepo        *repository.CoinRepository
	userRepo        *repository.UserRepository
	sessionRepo     *repository.SessionRepository
	transactionRepo *repository.TransactionRepository
	creditService   *CreditService
	notifier        *notify.Notifier
	cfg             config.AuctionConfig
}

// NewReservationService creates a new ReservationService with the provided dependencies.
func NewReservationService(
	coinRepo *repository.CoinRepository,
	userRepo *repository.UserRepository,
	sessionRepo *repository.SessionRepository,
	transactionRepo *repository.TransactionRepository,
	creditService *CreditService,
	notifier *notify.Notifier,
	cfg config.AuctionConfig,
) *ReservationService {
	return &ReservationService{
		coinRepo:        coinRepo,
		userRepo:        userRepo,
		sessionRepo:     sessionRepo,
		transactionRepo: transactionRepo,
		creditService:   creditService,
		notifier:        notifier,
		cfg:             cfg,
	}
}

// ReserveResult is returned to a buyer who won a hold on a coin.
type ReserveResult struct {
	Transaction   model.Transaction   `json:"transaction"`
	ExpiresAt     time.Time           `json:"expiresAt"`
	Amount        int64               `json:"amount"`
	SellerContact model.SellerContact `json:"sellerContact"`
}

// Reserve places an exclusive hold on a listed coin for the buyer and
// creates the bid transaction. The pool flip is a single conditional
// update: of two buyers racing the same coin exactly one wins, the
// other gets ErrAlreadyReserved.
func (s *ReservationService) Reserve(ctx context.Context, coinID, buyerID string, paymentMethod string) (ReserveResult, error) {
	now := time.Now()

	session, err := s.sessionRepo.GetActiveSession(ctx)
	if err != nil {
		return ReserveResult{}, err
	}
	if session == nil || !session.IsCurrentlyActive(now) {
		return ReserveResult{}, apperrors.ErrNoActiveSession
	}

	buyer, err := s.userRepo.GetUser(ctx, buyerID)
	if err != nil {
		return ReserveResult{}, err
	}
	if buyer.IsBlocked {
		return ReserveResult{}, apperrors.ErrAccountBlocked
	}

	coin, err := s.coinRepo.GetCoin(ctx, coinID)
	if err != nil {
		return ReserveResult{}, err
	}
	if !coin.IsInAuction || !coin.IsApproved {
		return ReserveResult{}, apperrors.ErrCoinNotAvailable
	}
	if coin.OwnerID == buyerID {
		return ReserveResult{}, apperrors.ErrSelfTrade
	}

	// Single-reservation-per-participant policy: one live hold at a time.
	held, err := s.coinRepo.HasLiveReservation(ctx, buyerID, now)
	if err != nil {
		return ReserveResult{}, err
	}
	if held {
		return ReserveResult{}, apperrors.ErrReservationActive
	}

	// The spending cap is enforced here, before the irreversible flow
	// begins, against confirmed plus in-flight amounts this session.
	amount := coin.CurrentValue(now)
	spent, err := s.transactionRepo.SessionSpend(ctx, session.ID, buyerID)
	if err != nil {
		return ReserveResult{}, err
	}
	if spent+amount > s.cfg.SpendingCap {
		return ReserveResult{}, apperrors.ErrSpendingCapExceeded
	}

	expiresAt := now.Add(s.cfg.ReservationWindow)
	won, err := s.coinRepo.Reserve(ctx, coinID, buyerID, amount, now, expiresAt)
	if err != nil {
		return ReserveResult{}, err
	}
	if !won {
		return ReserveResult{}, apperrors.ErrAlreadyReserved
	}

	tx := model.Transaction{
		ID:              uuid.New().String(),
		BuyerID:         buyerID,
		SellerID:        coin.SellerID,
		CoinID:          coinID,
		SessionID:       session.ID,
		Amount:          amount,
		Plan:            coin.Plan,
		PaymentMethod:   paymentMethod,
		Status:          model.TxStatusPendingPayment,
		PaymentDeadline: now.Add(s.cfg.PaymentWindow),
		CreatedAt:       now,
	}

	// The hold is taken; a failure from here on must hand the coin
	// back and void the bid, or the expiry sweep would later penalize
	// the buyer for a request that died server-side.
	bidInserted := false
	rollback := func(opErr error) (ReserveResult, error) {
		if bidInserted {
			if _, err := s.transactionRepo.MarkCancelled(ctx, tx.ID); err != nil {
				log.Printf("failed to void bid %s after reserve error: %v", tx.ID, err)
			}
		}
		if _, err := s.coinRepo.ClearReservation(ctx, coinID, buyerID, true); err != nil {
			log.Printf("failed to restore coin %s after reserve error: %v", coinID, err)
		}
		return ReserveResult{}, opErr
	}

	if err := s.transactionRepo.InsertTransaction(ctx, &tx); err != nil {
		return rollback(err)
	}
	bidInserted = true

	if err := s.sessionRepo.AddParticipant(ctx, session.ID, buyerID, now); err != nil {
		return rollback(err)
	}
	if err := s.sessionRepo.IncrementBids(ctx, session.ID); err != nil {
		return rollback(err)
	}

	sellerID := coin.SellerID
	if sellerID == "" {
		sellerID = coin.OwnerID
	}
	contact, err := s.userRepo.SellerContact(ctx, sellerID)
	if err != nil {
		return rollback(err)
	}

	// State is committed; notification is best effort from here.
	s.notifier.Notify(ctx, contact.Phone, "Coin reserved",
		fmt.Sprintf("Your coin has been reserved. Payment is due by %s.", tx.PaymentDeadline.Format(time.RFC1123)))

	return ReserveResult{
		Transaction:   tx,
		ExpiresAt:     expiresAt,
		Amount:        amount,
		SellerContact: contact,
	}, nil
}

// Cancel voluntarily releases the buyer's hold on a coin: the coin
// returns to the pool, the bid is cancelled and a fixed penalty (milder
// than a silent timeout) is applied.
func (s *ReservationService) Cancel(ctx context.Context, coinID, buyerID string) (PenaltyResult, error) {
	cleared, err := s.coinRepo.ClearReservation(ctx, coinID, buyerID, true)
	if err != nil {
		return PenaltyResult{}, err
	}
	if !cleared {
		// No matching reservation: expired and swept already, or never held.
		return PenaltyResult{}, apperrors.ErrReservationExpired
	}

	tx, err := s.transactionRepo.GetPendingForCoin(ctx, coinID, buyerID)
	if err == nil {
		if _, err := s.transactionRepo.MarkCancelled(ctx, tx.ID); err != nil {
			return PenaltyResult{}, err
		}
	} else if !errors.Is(err, apperrors.ErrTransactionNotFound) {
		return PenaltyResult{}, err
	}

	return s.creditService.PenalizeCancel(ctx, buyerID)
}

// SweepExpired restores coins whose reservation lapsed. Each coin is
// cleared with a conditional update keyed on the holder, so running the
// sweep twice concurrently, or concurrently with a manual cancel,
// restores the coin and applies the penalty exactly once: only the
// writer that wins the clear proceeds to penalize.
func (s *ReservationService) SweepExpired(ctx context.Context) (int, error) {
	now := time.Now()
	expired, err := s.coinRepo.GetExpiredReservations(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, coin := range expired {
		cleared, err := s.coinRepo.ClearReservation(ctx, coin.ID, coin.ReservedBy, true)
		if err != nil {
			return processed, err
		}
		if !cleared {
			continue
		}

		tx, err := s.transactionRepo.GetPendingForCoin(ctx, coin.ID, coin.ReservedBy)
		if err == nil {
			if _, err := s.transactionRepo.MarkFailed(ctx, tx.ID); err != nil {
				return processed, err
			}
		} else if !errors.Is(err, apperrors.ErrTransactionNotFound) {
			return processed, err
		}

		if _, err := s.creditService.PenalizeTimeout(ctx, coin.ReservedBy); err != nil {
			return processed, err
		}
		processed++
	}

	if processed > 0 {
		log.Printf("cleaned up %d expired reservations", processed)
	}
	return processed, nil
}
