package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/Dev-Arnold/coinBackend/internal/apperrors"
	"github.com/Dev-Arnold/coinBackend/internal/model"
	"github.com/Dev-Arnold/coinBackend/internal/repository"
	"github.com/Dev-Arnold/coinBackend/internal/service"
	"github.com/Dev-Arnold/coinBackend/internal/testutil"
)

func TestAuctionService_OpenSession(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*service.AuctionService, *sql.DB) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		return testutil.NewTestAuctionService(t, db, testutil.TestAuctionConfig()), db
	}

	t.Run("opens a window and stocks the pool", func(t *testing.T) {
		svc, db := setup(t)

		owner := testutil.NewUser().Build(t, db)
		eligible := testutil.NewCoin(owner.ID).Approved().Unlocked().Build(t, db)
		locked := testutil.NewCoin(owner.ID).Approved().Build(t, db)
		unapproved := testutil.NewCoin(owner.ID).Unlocked().Build(t, db)

		session, err := svc.OpenSession(ctx)
		if err != nil {
			t.Fatalf("OpenSession failed: %v", err)
		}
		if !session.IsActive {
			t.Error("Expected session to be active")
		}
		if got := session.EndTime.Sub(session.StartTime); got != time.Hour {
			t.Errorf("Expected one-hour window, got %s", got)
		}

		coins := repository.NewCoinRepository(db)
		for _, tc := range []struct {
			name   string
			coinID string
			want   bool
		}{
			{"eligible coin listed", eligible.ID, true},
			{"locked coin skipped", locked.ID, false},
			{"unapproved coin skipped", unapproved.ID, false},
		} {
			got, err := coins.GetCoin(ctx, tc.coinID)
			if err != nil {
				t.Fatalf("GetCoin failed: %v", err)
			}
			if got.IsInAuction != tc.want {
				t.Errorf("%s: in_auction = %v, want %v", tc.name, got.IsInAuction, tc.want)
			}
		}
	})

	t.Run("caps releases per category", func(t *testing.T) {
		cfg := testutil.TestAuctionConfig()
		cfg.CategoryReleaseLimit = 2
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAuctionService(t, db, cfg)

		owner := testutil.NewUser().Build(t, db)
		for i := 0; i < 4; i++ {
			testutil.NewCoin(owner.ID).WithPrice(50_000).Approved().Unlocked().Build(t, db)
		}

		if _, err := svc.OpenSession(ctx); err != nil {
			t.Fatalf("OpenSession failed: %v", err)
		}

		pool, err := repository.NewCoinRepository(db).GetPoolByCategory(ctx, model.CategoryA)
		if err != nil {
			t.Fatalf("GetPoolByCategory failed: %v", err)
		}
		if len(pool) != 2 {
			t.Errorf("Expected 2 listed coins, got %d", len(pool))
		}
	})

	t.Run("a second open attempt is rejected", func(t *testing.T) {
		svc, _ := setup(t)

		if _, err := svc.OpenSession(ctx); err != nil {
			t.Fatalf("First OpenSession failed: %v", err)
		}
		_, err := svc.OpenSession(ctx)
		if !errors.Is(err, apperrors.ErrSessionAlreadyActive) {
			t.Errorf("Expected ErrSessionAlreadyActive, got %v", err)
		}
	})
}

func TestAuctionService_CloseSession(t *testing.T) {
	ctx := context.Background()

	t.Run("withdraws idle listings but keeps reservations", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAuctionService(t, db, testutil.TestAuctionConfig())

		owner := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		testutil.NewSession().Build(t, db)
		idle := testutil.NewCoin(owner.ID).InAuction().Build(t, db)
		held := testutil.NewCoin(owner.ID).
			ReservedFor(buyer.ID, time.Now().Add(10*time.Minute), 100_000).Build(t, db)

		if err := svc.CloseSession(ctx); err != nil {
			t.Fatalf("CloseSession failed: %v", err)
		}

		if _, err := svc.ActiveSession(ctx); !errors.Is(err, apperrors.ErrNoActiveSession) {
			t.Errorf("Expected ErrNoActiveSession after close, got %v", err)
		}

		coins := repository.NewCoinRepository(db)
		gotIdle, err := coins.GetCoin(ctx, idle.ID)
		if err != nil {
			t.Fatalf("GetCoin failed: %v", err)
		}
		if gotIdle.IsInAuction {
			t.Error("Expected idle listing withdrawn")
		}
		if gotIdle.Status != model.CoinStatusAvailable {
			t.Errorf("Expected available, got %s", gotIdle.Status)
		}

		gotHeld, err := coins.GetCoin(ctx, held.ID)
		if err != nil {
			t.Fatalf("GetCoin failed: %v", err)
		}
		if gotHeld.ReservedBy != buyer.ID {
			t.Error("Expected live reservation untouched by session close")
		}
	})

	t.Run("close with no active session is a no-op", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAuctionService(t, db, testutil.TestAuctionConfig())

		if err := svc.CloseSession(ctx); err != nil {
			t.Fatalf("Expected idempotent close, got %v", err)
		}
	})

	t.Run("withdraws stray listings even without an active session", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAuctionService(t, db, testutil.TestAuctionConfig())

		// A reservation swept after the window closed leaves the coin
		// flagged for a pool that no longer exists.
		owner := testutil.NewUser().Build(t, db)
		stray := testutil.NewCoin(owner.ID).InAuction().Build(t, db)

		if err := svc.CloseSession(ctx); err != nil {
			t.Fatalf("CloseSession failed: %v", err)
		}

		got, err := repository.NewCoinRepository(db).GetCoin(ctx, stray.ID)
		if err != nil {
			t.Fatalf("GetCoin failed: %v", err)
		}
		if got.IsInAuction {
			t.Error("Expected stray listing withdrawn")
		}
		if got.Status != model.CoinStatusAvailable {
			t.Errorf("Expected available, got %s", got.Status)
		}
	})
}

func TestAuctionService_CloseExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("leaves a running session open", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAuctionService(t, db, testutil.TestAuctionConfig())

		testutil.NewSession().Build(t, db)
		if err := svc.CloseExpired(ctx); err != nil {
			t.Fatalf("CloseExpired failed: %v", err)
		}
		if _, err := svc.ActiveSession(ctx); err != nil {
			t.Errorf("Expected session still active, got %v", err)
		}
	})

	t.Run("closes a session past its end time", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAuctionService(t, db, testutil.TestAuctionConfig())

		now := time.Now()
		testutil.NewSession().WithWindow(now.Add(-2*time.Hour), now.Add(-time.Minute)).Build(t, db)
		if err := svc.CloseExpired(ctx); err != nil {
			t.Fatalf("CloseExpired failed: %v", err)
		}

		session, err := repository.NewSessionRepository(db).GetActiveSession(ctx)
		if err != nil {
			t.Fatalf("GetActiveSession failed: %v", err)
		}
		if session != nil {
			t.Error("Expected expired session deactivated")
		}
	})
}

func TestAuctionService_Snapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("groups the pool by category with price bounds", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAuctionService(t, db, testutil.TestAuctionConfig())

		owner := testutil.NewUser().Build(t, db)
		testutil.NewSession().Build(t, db)
		testutil.NewCoin(owner.ID).WithPrice(20_000).InAuction().Build(t, db)
		testutil.NewCoin(owner.ID).WithPrice(80_000).InAuction().Build(t, db)
		testutil.NewCoin(owner.ID).WithPrice(400_000).InAuction().Build(t, db)

		snapshot, err := svc.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if snapshot.Session == nil {
			t.Fatal("Expected active session in snapshot")
		}
		if snapshot.NextSessionTime.IsZero() {
			t.Error("Expected next session time to be set")
		}
		if len(snapshot.Categories) != len(model.Categories) {
			t.Fatalf("Expected %d category groups, got %d", len(model.Categories), len(snapshot.Categories))
		}

		byCategory := make(map[model.Category]model.CategoryGroup)
		for _, group := range snapshot.Categories {
			byCategory[group.Category] = group
		}
		a := byCategory[model.CategoryA]
		if a.Count != 2 || a.MinPrice != 20_000 || a.MaxPrice != 80_000 {
			t.Errorf("Category A: count=%d min=%d max=%d", a.Count, a.MinPrice, a.MaxPrice)
		}
		c := byCategory[model.CategoryC]
		if c.Count != 1 || c.MinPrice != 400_000 {
			t.Errorf("Category C: count=%d min=%d", c.Count, c.MinPrice)
		}
	})

	t.Run("omits the session outside trading hours", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAuctionService(t, db, testutil.TestAuctionConfig())

		snapshot, err := svc.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if snapshot.Session != nil {
			t.Error("Expected no session in the snapshot")
		}
	})
}

func TestAuctionService_SpendingStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("sums live and settled bids in the session", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAuctionService(t, db, testutil.TestAuctionConfig())

		seller := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		session := testutil.NewSession().Build(t, db)

		first := testutil.NewCoin(seller.ID).Build(t, db)
		second := testutil.NewCoin(seller.ID).Build(t, db)
		failed := testutil.NewCoin(seller.ID).Build(t, db)
		testutil.NewTransaction(buyer.ID, first.ID).
			WithSession(session.ID).WithAmount(200_000).
			WithStatus(model.TxStatusConfirmed).Build(t, db)
		testutil.NewTransaction(buyer.ID, second.ID).
			WithSession(session.ID).WithAmount(100_000).Build(t, db)
		testutil.NewTransaction(buyer.ID, failed.ID).
			WithSession(session.ID).WithAmount(500_000).
			WithStatus(model.TxStatusFailed).Build(t, db)

		status, err := svc.SpendingStatus(ctx, buyer.ID)
		if err != nil {
			t.Fatalf("SpendingStatus failed: %v", err)
		}
		if status.Spent != 300_000 {
			t.Errorf("Expected spent 300000, got %d", status.Spent)
		}
		if status.Remaining != 1_200_000 {
			t.Errorf("Expected remaining 1200000, got %d", status.Remaining)
		}
	})

	t.Run("reports zero spend outside a session", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAuctionService(t, db, testutil.TestAuctionConfig())

		buyer := testutil.NewUser().Build(t, db)
		status, err := svc.SpendingStatus(ctx, buyer.ID)
		if err != nil {
			t.Fatalf("SpendingStatus failed: %v", err)
		}
		if status.Spent != 0 || status.Remaining != status.Cap {
			t.Errorf("Expected untouched cap, got spent=%d remaining=%d cap=%d",
				status.Spent, status.Remaining, status.Cap)
		}
	})
}

func TestAuctionService_AutoApprovePending(t *testing.T) {
	ctx := context.Background()

	t.Run("approves up to the value ceiling", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAuctionService(t, db, testutil.TestAuctionConfig())

		owner := testutil.NewUser().Build(t, db)
		// Fresh coins: accrued value equals the principal.
		small := testutil.NewCoin(owner.ID).WithPrice(100_000).PendingApproval().Build(t, db)
		large := testutil.NewCoin(owner.ID).WithPrice(100_001).PendingApproval().Build(t, db)

		approved, err := svc.AutoApprovePending(ctx)
		if err != nil {
			t.Fatalf("AutoApprovePending failed: %v", err)
		}
		if approved != 1 {
			t.Errorf("Expected 1 approved, got %d", approved)
		}

		coins := repository.NewCoinRepository(db)
		gotSmall, err := coins.GetCoin(ctx, small.ID)
		if err != nil {
			t.Fatalf("GetCoin failed: %v", err)
		}
		if !gotSmall.IsApproved {
			t.Error("Expected coin at the ceiling approved")
		}
		gotLarge, err := coins.GetCoin(ctx, large.ID)
		if err != nil {
			t.Fatalf("GetCoin failed: %v", err)
		}
		if gotLarge.IsApproved {
			t.Error("Expected coin above the ceiling left for manual review")
		}
		if gotLarge.Status != model.CoinStatusPendingApproval {
			t.Errorf("Expected still pending, got %s", gotLarge.Status)
		}
	})
}

func TestAuctionService_Stats(t *testing.T) {
	ctx := context.Background()

	t.Run("empty pool reports zero counts for every category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAuctionService(t, db, testutil.TestAuctionConfig())

		stats, err := svc.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if stats.Session != nil {
			t.Errorf("Expected no session, got %+v", stats.Session)
		}
		if len(stats.Categories) != len(model.Categories) {
			t.Errorf("Expected %d categories, got %d", len(model.Categories), len(stats.Categories))
		}
		for category, cs := range stats.Categories {
			if cs.Total != 0 || cs.Approved != 0 || cs.InAuction != 0 || cs.Available != 0 {
				t.Errorf("Expected zero counts for category %s, got %+v", category, cs)
			}
		}
	})

	t.Run("counts the pool per category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAuctionService(t, db, testutil.TestAuctionConfig())

		owner := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		session := testutil.NewSession().Build(t, db)
		testutil.NewCoin(owner.ID).WithPrice(50_000).InAuction().Build(t, db)
		testutil.NewCoin(owner.ID).WithPrice(80_000).Approved().Unlocked().Build(t, db)
		testutil.NewCoin(owner.ID).WithPrice(60_000).Build(t, db)

		svcReserve := testutil.NewTestReservationService(t, db, testutil.TestAuctionConfig())
		listed := testutil.NewCoin(owner.ID).WithPrice(40_000).InAuction().Build(t, db)
		if _, err := svcReserve.Reserve(ctx, listed.ID, buyer.ID, model.PaymentMethodBankTransfer); err != nil {
			t.Fatalf("Reserve failed: %v", err)
		}

		stats, err := svc.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if stats.Session == nil || stats.Session.ID != session.ID {
			t.Errorf("Expected active session %s, got %+v", session.ID, stats.Session)
		}
		if stats.Participants != 1 {
			t.Errorf("Expected 1 participant, got %d", stats.Participants)
		}

		a := stats.Categories[model.CategoryA]
		if a.Total != 4 {
			t.Errorf("Expected 4 category A coins, got %d", a.Total)
		}
		if a.InAuction != 1 {
			t.Errorf("Expected 1 listed coin, got %d", a.InAuction)
		}
		if a.Approved != 3 {
			t.Errorf("Expected 3 approved coins, got %d", a.Approved)
		}
		if a.Available != 1 {
			t.Errorf("Expected 1 available for auction, got %d", a.Available)
		}

		b := stats.Categories[model.CategoryB]
		if b.Total != 0 {
			t.Errorf("Expected empty category B, got %d", b.Total)
		}
	})
}
