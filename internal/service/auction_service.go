package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Dev-Arnold/coinBackend/internal/apperrors"
	"github.com/Dev-Arnold/coinBackend/internal/config"
	"github.com/Dev-Arnold/coinBackend/internal/model"
	"github.com/Dev-Arnold/coinBackend/internal/repository"
	"github.com/Dev-Arnold/coinBackend/internal/schedule"
)

// AuctionService owns the trading-window lifecycle: opening sessions on
// the weekly timetable, stocking the bidding pool, closing expired
// sessions and serving the public auction view.
type AuctionService struct {
	sessionRepo     *repository.SessionRepository
	coinRepo        *repository.CoinRepository
	transactionRepo *repository.TransactionRepository
	timetable       *schedule.Timetable
	cfg             config.AuctionConfig
}

// NewAuctionService creates a new AuctionService with the provided dependencies.
func NewAuctionService(
	sessionRepo *repository.SessionRepository,
	coinRepo *repository.CoinRepository,
	transactionRepo *repository.TransactionRepository,
	timetable *schedule.Timetable,
	cfg config.AuctionConfig,
) *AuctionService {
	return &AuctionService{
		sessionRepo:     sessionRepo,
		coinRepo:        coinRepo,
		transactionRepo: transactionRepo,
		timetable:       timetable,
		cfg:             cfg,
	}
}

// OpenSession starts a new trading window and stocks the bidding pool
// with eligible coins, a capped number per category. At most one
// session can be active; a second open attempt reports
// ErrSessionAlreadyActive.
func (s *AuctionService) OpenSession(ctx context.Context) (model.AuctionSession, error) {
	now := time.Now()
	session := model.AuctionSession{
		ID:        uuid.New().String(),
		StartTime: now,
		EndTime:   now.Add(s.cfg.SessionDuration),
		IsActive:  true,
		CreatedAt: now,
	}
	if err := s.sessionRepo.InsertActiveSession(ctx, &session); err != nil {
		return model.AuctionSession{}, err
	}

	var released int64
	for _, category := range model.Categories {
		n, err := s.coinRepo.ReleaseEligible(ctx, category, s.cfg.CategoryReleaseLimit)
		if err != nil {
			return model.AuctionSession{}, err
		}
		released += n
	}
	log.Printf("opened auction session %s until %s, released %d coins",
		session.ID, session.EndTime.Format(time.RFC3339), released)
	return session, nil
}

// CloseSession ends the active session, if any, and pulls unsold listed
// coins back out of the pool. Idempotent: with no active session only
// the idle reset runs, sweeping up coins the expiry sweep restored
// after the window ended.
func (s *AuctionService) CloseSession(ctx context.Context) error {
	now := time.Now()
	closed, err := s.sessionRepo.Deactivate(ctx, now)
	if err != nil {
		return err
	}

	// Reserved coins keep their hold; only idle listings are withdrawn.
	idle, err := s.coinRepo.ResetIdleListed(ctx)
	if err != nil {
		return err
	}
	if closed > 0 || idle > 0 {
		log.Printf("closed auction session, withdrew %d unsold coins", idle)
	}
	return nil
}

// CloseExpired closes the active session only if its end time has
// passed. Run every minute so a session never trades past its window
// regardless of how it was opened.
func (s *AuctionService) CloseExpired(ctx context.Context) error {
	session, err := s.sessionRepo.GetActiveSession(ctx)
	if err != nil {
		return err
	}
	if session == nil || !time.Now().After(session.EndTime) {
		return nil
	}
	return s.CloseSession(ctx)
}

// ActiveSession returns the session currently open for trading, or
// ErrNoActiveSession. A session past its end time is treated as closed
// even if the close job has not fired yet.
func (s *AuctionService) ActiveSession(ctx context.Context) (model.AuctionSession, error) {
	session, err := s.sessionRepo.GetActiveSession(ctx)
	if err != nil {
		return model.AuctionSession{}, err
	}
	if session == nil || !session.IsCurrentlyActive(time.Now()) {
		return model.AuctionSession{}, apperrors.ErrNoActiveSession
	}
	return *session, nil
}

// Snapshot returns the public auction view: the active session (nil
// outside trading hours), the pool grouped by category and the next
// scheduled opening.
func (s *AuctionService) Snapshot(ctx context.Context) (model.AuctionSnapshot, error) {
	now := time.Now()
	snapshot := model.AuctionSnapshot{
		Categories:      make([]model.CategoryGroup, 0, len(model.Categories)),
		NextSessionTime: s.timetable.NextSessionTime(now),
	}

	session, err := s.sessionRepo.GetActiveSession(ctx)
	if err != nil {
		return model.AuctionSnapshot{}, err
	}
	if session != nil && session.IsCurrentlyActive(now) {
		snapshot.Session = session
	}

	for _, category := range model.Categories {
		coins, err := s.coinRepo.GetPoolByCategory(ctx, category)
		if err != nil {
			return model.AuctionSnapshot{}, err
		}
		group := model.CategoryGroup{Category: category, Count: len(coins)}
		for _, coin := range coins {
			if group.MinPrice == 0 || coin.Price < group.MinPrice {
				group.MinPrice = coin.Price
			}
			if coin.Price > group.MaxPrice {
				group.MaxPrice = coin.Price
			}
			group.Coins = append(group.Coins, model.CoinResponse{Coin: coin, ProfitInfo: coin.ProfitInfo(now)})
		}
		snapshot.Categories = append(snapshot.Categories, group)
	}
	return snapshot, nil
}

// SpendingStatus reports a buyer's spend against the per-session cap.
// Outside a session the cap is reported with zero spend.
func (s *AuctionService) SpendingStatus(ctx context.Context, buyerID string) (model.SpendingStatus, error) {
	status := model.SpendingStatus{Cap: s.cfg.SpendingCap, Remaining: s.cfg.SpendingCap}

	session, err := s.sessionRepo.GetActiveSession(ctx)
	if err != nil {
		return model.SpendingStatus{}, err
	}
	if session == nil || !session.IsCurrentlyActive(time.Now()) {
		return status, nil
	}

	spent, err := s.transactionRepo.SessionSpend(ctx, session.ID, buyerID)
	if err != nil {
		return model.SpendingStatus{}, err
	}
	status.Spent = spent
	status.Remaining = s.cfg.SpendingCap - spent
	if status.Remaining < 0 {
		status.Remaining = 0
	}
	return status, nil
}

// SessionStats aggregates the state of the current session.
type SessionStats struct {
	Session      *model.AuctionSession                       `json:"session"`
	Participants int64                                       `json:"participants"`
	Categories   map[model.Category]repository.CategoryStats `json:"categories"`
}

// Stats returns session and pool counters for the admin dashboard.
func (s *AuctionService) Stats(ctx context.Context) (SessionStats, error) {
	stats := SessionStats{Categories: make(map[model.Category]repository.CategoryStats)}

	session, err := s.sessionRepo.GetActiveSession(ctx)
	if err != nil {
		return SessionStats{}, err
	}
	if session != nil {
		stats.Session = session
		count, err := s.sessionRepo.CountParticipants(ctx, session.ID)
		if err != nil {
			return SessionStats{}, err
		}
		stats.Participants = count
	}

	for _, category := range model.Categories {
		cs, err := s.coinRepo.GetCategoryStats(ctx, category)
		if err != nil {
			return SessionStats{}, err
		}
		stats.Categories[category] = cs
	}
	return stats, nil
}

// AutoApprovePending approves queued coins whose accrued value is at or
// below the ceiling, leaving larger positions for manual review. Run
// shortly before each session opening.
func (s *AuctionService) AutoApprovePending(ctx context.Context) (int, error) {
	pending, err := s.coinRepo.GetPendingApproval(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	approved := 0
	for _, coin := range pending {
		if coin.CurrentValue(now) > s.cfg.AutoApproveCeiling {
			continue
		}
		ok, err := s.coinRepo.Approve(ctx, coin.ID)
		if err != nil {
			return approved, err
		}
		if ok {
			approved++
		}
	}
	if approved > 0 {
		log.Printf("auto-approved %d coins", approved)
	}
	return approved, nil
}
