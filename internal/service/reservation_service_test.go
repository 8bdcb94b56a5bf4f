package service_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dev-Arnold/coinBackend/internal/apperrors"
	"github.com/Dev-Arnold/coinBackend/internal/model"
	"github.com/Dev-Arnold/coinBackend/internal/repository"
	"github.com/Dev-Arnold/coinBackend/internal/service"
	"github.com/Dev-Arnold/coinBackend/internal/testutil"
)

func TestReservationService_Reserve(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*service.ReservationService, *sql.DB) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		return testutil.NewTestReservationService(t, db, testutil.TestAuctionConfig()), db
	}

	t.Run("reserves a listed coin and creates the bid", func(t *testing.T) {
		svc, db := setup(t)

		seller := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		session := testutil.NewSession().Build(t, db)
		coin := testutil.NewCoin(seller.ID).WithPrice(100_000).InAuction().Build(t, db)

		result, err := svc.Reserve(ctx, coin.ID, buyer.ID, model.PaymentMethodBankTransfer)
		if err != nil {
			t.Fatalf("Reserve failed: %v", err)
		}

		if result.Amount != 100_000 {
			t.Errorf("Expected amount 100000, got %d", result.Amount)
		}
		if result.Transaction.Status != model.TxStatusPendingPayment {
			t.Errorf("Expected pending_payment, got %s", result.Transaction.Status)
		}
		if result.Transaction.SessionID != session.ID {
			t.Errorf("Expected bid attributed to session %s, got %s", session.ID, result.Transaction.SessionID)
		}
		if result.SellerContact.Phone != seller.Phone {
			t.Errorf("Expected seller contact %s, got %s", seller.Phone, result.SellerContact.Phone)
		}

		got, err := repository.NewCoinRepository(db).GetCoin(ctx, coin.ID)
		if err != nil {
			t.Fatalf("GetCoin failed: %v", err)
		}
		if got.IsInAuction {
			t.Error("Expected coin out of the pool after reserve")
		}
		if got.ReservedBy != buyer.ID {
			t.Errorf("Expected reserved by %s, got %s", buyer.ID, got.ReservedBy)
		}
	})

	t.Run("fails outside an active session", func(t *testing.T) {
		svc, db := setup(t)

		seller := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		coin := testutil.NewCoin(seller.ID).InAuction().Build(t, db)

		_, err := svc.Reserve(ctx, coin.ID, buyer.ID, model.PaymentMethodBankTransfer)
		if !errors.Is(err, apperrors.ErrNoActiveSession) {
			t.Errorf("Expected ErrNoActiveSession, got %v", err)
		}
	})

	t.Run("fails when the session window has lapsed", func(t *testing.T) {
		svc, db := setup(t)

		seller := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		now := time.Now()
		testutil.NewSession().WithWindow(now.Add(-2*time.Hour), now.Add(-time.Hour)).Build(t, db)
		coin := testutil.NewCoin(seller.ID).InAuction().Build(t, db)

		_, err := svc.Reserve(ctx, coin.ID, buyer.ID, model.PaymentMethodBankTransfer)
		if !errors.Is(err, apperrors.ErrNoActiveSession) {
			t.Errorf("Expected ErrNoActiveSession, got %v", err)
		}
	})

	t.Run("rejects blocked buyers", func(t *testing.T) {
		svc, db := setup(t)

		seller := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Blocked().Build(t, db)
		testutil.NewSession().Build(t, db)
		coin := testutil.NewCoin(seller.ID).InAuction().Build(t, db)

		_, err := svc.Reserve(ctx, coin.ID, buyer.ID, model.PaymentMethodBankTransfer)
		if !errors.Is(err, apperrors.ErrAccountBlocked) {
			t.Errorf("Expected ErrAccountBlocked, got %v", err)
		}
	})

	t.Run("rejects bids on one's own coin", func(t *testing.T) {
		svc, db := setup(t)

		owner := testutil.NewUser().Build(t, db)
		testutil.NewSession().Build(t, db)
		coin := testutil.NewCoin(owner.ID).InAuction().Build(t, db)

		_, err := svc.Reserve(ctx, coin.ID, owner.ID, model.PaymentMethodBankTransfer)
		if !errors.Is(err, apperrors.ErrSelfTrade) {
			t.Errorf("Expected ErrSelfTrade, got %v", err)
		}
	})

	t.Run("rejects a coin not in the pool", func(t *testing.T) {
		svc, db := setup(t)

		seller := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		testutil.NewSession().Build(t, db)
		coin := testutil.NewCoin(seller.ID).Approved().Unlocked().Build(t, db)

		_, err := svc.Reserve(ctx, coin.ID, buyer.ID, model.PaymentMethodBankTransfer)
		if !errors.Is(err, apperrors.ErrCoinNotAvailable) {
			t.Errorf("Expected ErrCoinNotAvailable, got %v", err)
		}
	})

	t.Run("allows only one live reservation per buyer", func(t *testing.T) {
		svc, db := setup(t)

		seller := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		testutil.NewSession().Build(t, db)
		first := testutil.NewCoin(seller.ID).InAuction().Build(t, db)
		second := testutil.NewCoin(seller.ID).InAuction().Build(t, db)

		if _, err := svc.Reserve(ctx, first.ID, buyer.ID, model.PaymentMethodBankTransfer); err != nil {
			t.Fatalf("First reserve failed: %v", err)
		}

		_, err := svc.Reserve(ctx, second.ID, buyer.ID, model.PaymentMethodBankTransfer)
		if !errors.Is(err, apperrors.ErrReservationActive) {
			t.Errorf("Expected ErrReservationActive, got %v", err)
		}
	})

	t.Run("enforces the session spending cap", func(t *testing.T) {
		svc, db := setup(t)

		seller := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		session := testutil.NewSession().Build(t, db)

		// Prior spend this session: 1,400,000 across confirmed and
		// uploaded bids.
		prior1 := testutil.NewCoin(seller.ID).WithPrice(700_000).Build(t, db)
		prior2 := testutil.NewCoin(seller.ID).WithPrice(700_000).Build(t, db)
		testutil.NewTransaction(buyer.ID, prior1.ID).
			WithSession(session.ID).WithAmount(700_000).
			WithStatus(model.TxStatusConfirmed).Build(t, db)
		testutil.NewTransaction(buyer.ID, prior2.ID).
			WithSession(session.ID).WithAmount(700_000).
			WithProof("ref", time.Now().Add(10*time.Minute)).Build(t, db)

		over := testutil.NewCoin(seller.ID).WithPrice(200_000).InAuction().Build(t, db)
		_, err := svc.Reserve(ctx, over.ID, buyer.ID, model.PaymentMethodBankTransfer)
		if !errors.Is(err, apperrors.ErrSpendingCapExceeded) {
			t.Errorf("Expected ErrSpendingCapExceeded at 1.6M, got %v", err)
		}

		within := testutil.NewCoin(seller.ID).WithPrice(100_000).InAuction().Build(t, db)
		if _, err := svc.Reserve(ctx, within.ID, buyer.ID, model.PaymentMethodBankTransfer); err != nil {
			t.Errorf("Expected reserve at exactly 1.5M to succeed, got %v", err)
		}
	})

	t.Run("exactly one of two racing buyers wins", func(t *testing.T) {
		svc, db := setup(t)

		seller := testutil.NewUser().Build(t, db)
		buyerA := testutil.NewUser().Build(t, db)
		buyerB := testutil.NewUser().Build(t, db)
		testutil.NewSession().Build(t, db)
		coin := testutil.NewCoin(seller.ID).InAuction().Build(t, db)

		var wg sync.WaitGroup
		results := make([]error, 2)
		for i, buyer := range []string{buyerA.ID, buyerB.ID} {
			wg.Add(1)
			go func(i int, buyerID string) {
				defer wg.Done()
				_, results[i] = svc.Reserve(ctx, coin.ID, buyerID, model.PaymentMethodBankTransfer)
			}(i, buyer)
		}
		wg.Wait()

		wins := 0
		for _, err := range results {
			if err == nil {
				wins++
			} else if !errors.Is(err, apperrors.ErrAlreadyReserved) {
				t.Errorf("Expected nil or ErrAlreadyReserved, got %v", err)
			}
		}
		if wins != 1 {
			t.Errorf("Expected exactly one winner, got %d", wins)
		}
	})

	t.Run("server-side failure after the hold restores the coin", func(t *testing.T) {
		svc, db := setup(t)

		seller := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		testutil.NewSession().Build(t, db)
		coin := testutil.NewCoin(seller.ID).InAuction().Build(t, db)

		// Break the step after the hold is taken.
		if _, err := db.Exec(`DROP TABLE session_participant`); err != nil {
			t.Fatalf("Failed to drop table: %v", err)
		}

		if _, err := svc.Reserve(ctx, coin.ID, buyer.ID, model.PaymentMethodBankTransfer); err == nil {
			t.Fatal("Expected Reserve to fail")
		}

		got, err := repository.NewCoinRepository(db).GetCoin(ctx, coin.ID)
		if err != nil {
			t.Fatalf("GetCoin failed: %v", err)
		}
		if !got.IsInAuction || got.ReservedBy != "" {
			t.Error("Expected coin handed back to the pool after the failed bid")
		}

		txs, err := repository.NewTransactionRepository(db).GetTransactionsByBuyer(ctx, buyer.ID)
		if err != nil {
			t.Fatalf("GetTransactionsByBuyer failed: %v", err)
		}
		for _, tx := range txs {
			if tx.Status == model.TxStatusPendingPayment {
				t.Errorf("Expected no live bid left behind, found %s", tx.ID)
			}
		}

		// Nothing for the expiry sweep to punish.
		processed, err := svc.SweepExpired(ctx)
		if err != nil {
			t.Fatalf("SweepExpired failed: %v", err)
		}
		if processed != 0 {
			t.Errorf("Expected 0 expired reservations, got %d", processed)
		}
		user, err := repository.NewUserRepository(db, nil).GetUser(ctx, buyer.ID)
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if user.CreditScore != 100 {
			t.Errorf("Expected score untouched at 100, got %d", user.CreditScore)
		}
	})

	t.Run("repeated bids count the buyer as one participant", func(t *testing.T) {
		svc, db := setup(t)

		seller := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		session := testutil.NewSession().Build(t, db)
		first := testutil.NewCoin(seller.ID).InAuction().Build(t, db)
		second := testutil.NewCoin(seller.ID).InAuction().Build(t, db)

		if _, err := svc.Reserve(ctx, first.ID, buyer.ID, model.PaymentMethodBankTransfer); err != nil {
			t.Fatalf("First reserve failed: %v", err)
		}
		if _, err := svc.Cancel(ctx, first.ID, buyer.ID); err != nil {
			t.Fatalf("Cancel failed: %v", err)
		}
		if _, err := svc.Reserve(ctx, second.ID, buyer.ID, model.PaymentMethodBankTransfer); err != nil {
			t.Fatalf("Second reserve failed: %v", err)
		}

		count, err := repository.NewSessionRepository(db).CountParticipants(ctx, session.ID)
		if err != nil {
			t.Fatalf("CountParticipants failed: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected 1 participant, got %d", count)
		}
	})
}

func TestReservationService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("restores the coin and applies the cancel penalty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReservationService(t, db, testutil.TestAuctionConfig())

		seller := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		testutil.NewSession().Build(t, db)
		coin := testutil.NewCoin(seller.ID).InAuction().Build(t, db)

		if _, err := svc.Reserve(ctx, coin.ID, buyer.ID, model.PaymentMethodBankTransfer); err != nil {
			t.Fatalf("Reserve failed: %v", err)
		}

		result, err := svc.Cancel(ctx, coin.ID, buyer.ID)
		if err != nil {
			t.Fatalf("Cancel failed: %v", err)
		}
		if result.NewCreditScore != 85 {
			t.Errorf("Expected credit score 85 after cancel, got %d", result.NewCreditScore)
		}

		got, err := repository.NewCoinRepository(db).GetCoin(ctx, coin.ID)
		if err != nil {
			t.Fatalf("GetCoin failed: %v", err)
		}
		if !got.IsInAuction {
			t.Error("Expected coin restored to the pool")
		}
		if got.ReservedBy != "" {
			t.Errorf("Expected reservation cleared, still held by %s", got.ReservedBy)
		}

		txs, err := repository.NewTransactionRepository(db).GetTransactionsByBuyer(ctx, buyer.ID)
		if err != nil {
			t.Fatalf("GetTransactionsByBuyer failed: %v", err)
		}
		if len(txs) != 1 || txs[0].Status != model.TxStatusCancelled {
			t.Errorf("Expected one cancelled transaction, got %+v", txs)
		}
	})

	t.Run("surfaces a bid lookup failure instead of penalizing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReservationService(t, db, testutil.TestAuctionConfig())

		seller := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		coin := testutil.NewCoin(seller.ID).
			ReservedFor(buyer.ID, time.Now().Add(10*time.Minute), 100_000).Build(t, db)

		if _, err := db.Exec(`DROP TABLE "transaction"`); err != nil {
			t.Fatalf("Failed to drop table: %v", err)
		}

		if _, err := svc.Cancel(ctx, coin.ID, buyer.ID); err == nil {
			t.Fatal("Expected Cancel to surface the lookup failure")
		}

		user, err := repository.NewUserRepository(db, nil).GetUser(ctx, buyer.ID)
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if user.CreditScore != 100 {
			t.Errorf("Expected no penalty on a failed cancel, got score %d", user.CreditScore)
		}
	})

	t.Run("reports expiry when no reservation is held", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReservationService(t, db, testutil.TestAuctionConfig())

		seller := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		coin := testutil.NewCoin(seller.ID).InAuction().Build(t, db)

		_, err := svc.Cancel(ctx, coin.ID, buyer.ID)
		if !errors.Is(err, apperrors.ErrReservationExpired) {
			t.Errorf("Expected ErrReservationExpired, got %v", err)
		}
	})
}

func TestReservationService_SweepExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("restores expired reservations and penalizes once", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReservationService(t, db, testutil.TestAuctionConfig())

		seller := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		expired := time.Now().Add(-time.Minute)
		coin := testutil.NewCoin(seller.ID).WithPrice(100_000).
			ReservedFor(buyer.ID, expired, 100_000).Build(t, db)
		testutil.NewTransaction(buyer.ID, coin.ID).WithSeller(seller.ID).Build(t, db)

		processed, err := svc.SweepExpired(ctx)
		if err != nil {
			t.Fatalf("SweepExpired failed: %v", err)
		}
		if processed != 1 {
			t.Errorf("Expected 1 processed, got %d", processed)
		}

		got, err := repository.NewCoinRepository(db).GetCoin(ctx, coin.ID)
		if err != nil {
			t.Fatalf("GetCoin failed: %v", err)
		}
		if !got.IsInAuction || got.ReservedBy != "" {
			t.Error("Expected coin restored to the pool with reservation cleared")
		}

		// 20% of 100 = 20 points.
		user, err := repository.NewUserRepository(db, nil).GetUser(ctx, buyer.ID)
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if user.CreditScore != 80 {
			t.Errorf("Expected credit score 80 after timeout, got %d", user.CreditScore)
		}

		// A second sweep finds nothing; the penalty is not reapplied.
		processed, err = svc.SweepExpired(ctx)
		if err != nil {
			t.Fatalf("Second sweep failed: %v", err)
		}
		if processed != 0 {
			t.Errorf("Expected 0 processed on second sweep, got %d", processed)
		}
		user, _ = repository.NewUserRepository(db, nil).GetUser(ctx, buyer.ID)
		if user.CreditScore != 80 {
			t.Errorf("Expected score unchanged at 80, got %d", user.CreditScore)
		}
	})

	t.Run("ignores live reservations", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReservationService(t, db, testutil.TestAuctionConfig())

		seller := testutil.NewUser().Build(t, db)
		buyer := testutil.NewUser().Build(t, db)
		testutil.NewCoin(seller.ID).
			ReservedFor(buyer.ID, time.Now().Add(10*time.Minute), 100_000).Build(t, db)

		processed, err := svc.SweepExpired(ctx)
		if err != nil {
			t.Fatalf("SweepExpired failed: %v", err)
		}
		if processed != 0 {
			t.Errorf("Expected 0 processed, got %d", processed)
		}
	})
}
