package service

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dev-Arnold/coinBackend/internal/repository"
)

// profitSweepConcurrency bounds how many traders are processed at once
// during the daily sweep.
const profitSweepConcurrency = 8

// ProfitService runs the daily crediting sweep: growth accrued since
// each coin's last checkpoint is paid into the owner's balance and the
// checkpoint advances. Read paths still compute accrual live; the sweep
// only converts it to spendable balance.
type ProfitService struct {
	coinRepo *repository.CoinRepository
	userRepo *repository.UserRepository
}

// NewProfitService creates a new ProfitService with the provided dependencies.
func NewProfitService(coinRepo *repository.CoinRepository, userRepo *repository.UserRepository) *ProfitService {
	return &ProfitService{coinRepo: coinRepo, userRepo: userRepo}
}

// Sweep credits accrued growth for every active trader. Traders are
// processed concurrently with a bounded group; one trader's failure
// aborts the sweep.
func (s *ProfitService) Sweep(ctx context.Context) error {
	traders, err := s.userRepo.GetActiveTraders(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(profitSweepConcurrency)

	now := time.Now()
	for _, trader := range traders {
		ownerID := trader.ID
		g.Go(func() error {
			return s.sweepOwner(ctx, ownerID, now)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Printf("profit sweep covered %d traders", len(traders))
	return nil
}

// sweepOwner credits one trader's accrual delta per coin. The delta is
// the value growth between the coin's last checkpoint and now, so
// repeated sweeps of an unchanged coin credit zero.
func (s *ProfitService) sweepOwner(ctx context.Context, ownerID string, now time.Time) error {
	coins, err := s.coinRepo.GetAccruingCoinsByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	for _, coin := range coins {
		delta := coin.CurrentValue(now) - coin.CurrentValue(coin.LastProfitUpdate)
		if delta > 0 {
			if err := s.userRepo.CreditBalance(ctx, ownerID, delta); err != nil {
				return err
			}
		}
		if err := s.coinRepo.TouchProfitUpdate(ctx, coin.ID, now); err != nil {
			return err
		}
	}
	return nil
}
