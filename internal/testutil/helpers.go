package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Dev-Arnold/coinBackend/internal/config"
	"github.com/Dev-Arnold/coinBackend/internal/notify"
	"github.com/Dev-Arnold/coinBackend/internal/repository"
	"github.com/Dev-Arnold/coinBackend/internal/schedule"
	"github.com/Dev-Arnold/coinBackend/internal/service"
)

// TestAuctionConfig returns the trading policy used across service
// tests: production-like windows with a generous spending cap.
func TestAuctionConfig() config.AuctionConfig {
	return config.AuctionConfig{
		Timezone:                  "Africa/Lagos",
		SessionDuration:           time.Hour,
		ReservationWindow:         15 * time.Minute,
		PaymentWindow:             30 * time.Minute,
		ReleaseWindow:             15 * time.Minute,
		SpendingCap:               1_500_000,
		CategoryReleaseLimit:      100,
		AutoApproveCeiling:        100_000,
		TimeoutPenaltyPercent:     20,
		CancelPenaltyPoints:       15,
		LateReleasePenaltyPoints:  10,
		ReferralCommissionPercent: 5,
	}
}

func NewTestCreditService(t *testing.T, db *sql.DB) *service.CreditService {
	t.Helper()

	userRepo := repository.NewUserRepository(db, nil)
	return service.NewCreditService(userRepo, TestAuctionConfig())
}

func NewTestUserService(t *testing.T, db *sql.DB) *service.UserService {
	t.Helper()

	return service.NewUserService(repository.NewUserRepository(db, nil))
}

func NewTestCoinService(t *testing.T, db *sql.DB) *service.CoinService {
	t.Helper()

	coinRepo := repository.NewCoinRepository(db)
	userRepo := repository.NewUserRepository(db, nil)
	transactionRepo := repository.NewTransactionRepository(db)

	return service.NewCoinService(coinRepo, userRepo, transactionRepo)
}

func NewTestAuctionService(t *testing.T, db *sql.DB, cfg config.AuctionConfig) *service.AuctionService {
	t.Helper()

	timetable, err := schedule.NewTimetable(cfg.Timezone)
	if err != nil {
		t.Fatalf("Failed to load test timezone: %v", err)
	}

	return service.NewAuctionService(
		repository.NewSessionRepository(db),
		repository.NewCoinRepository(db),
		repository.NewTransactionRepository(db),
		timetable,
		cfg,
	)
}

func NewTestReservationService(t *testing.T, db *sql.DB, cfg config.AuctionConfig) *service.ReservationService {
	t.Helper()

	userRepo := repository.NewUserRepository(db, nil)

	return service.NewReservationService(
		repository.NewCoinRepository(db),
		userRepo,
		repository.NewSessionRepository(db),
		repository.NewTransactionRepository(db),
		service.NewCreditService(userRepo, cfg),
		notify.NewNotifier(notify.LogSender{}),
		cfg,
	)
}

func NewTestTradeService(t *testing.T, db *sql.DB, cfg config.AuctionConfig) *service.TradeService {
	t.Helper()

	userRepo := repository.NewUserRepository(db, nil)

	return service.NewTradeService(
		repository.NewCoinRepository(db),
		userRepo,
		repository.NewTransactionRepository(db),
		service.NewCreditService(userRepo, cfg),
		notify.NewNotifier(notify.LogSender{}),
		cfg,
	)
}

func NewTestProfitService(t *testing.T, db *sql.DB) *service.ProfitService {
	t.Helper()

	return service.NewProfitService(
		repository.NewCoinRepository(db),
		repository.NewUserRepository(db, nil),
	)
}

// MakeID generates a UUID string for use in tests.
func MakeID() string {
	return uuid.New().String()
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
