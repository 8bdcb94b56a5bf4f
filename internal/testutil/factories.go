package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/Dev-Arnold/coinBackend/internal/model"
	"github.com/Dev-Arnold/coinBackend/internal/repository"
)

// UserBuilder provides a fluent interface for creating test users.
//
// Example usage:
//
//	// Simple creation with defaults
//	user := testutil.NewUser().Build(t, db)
//
//	// Customized user
//	user := testutil.NewUser().
//	    WithBalance(500_000).
//	    WithCreditScore(40).
//	    Build(t, db)
type UserBuilder struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Role         string
	Balance      int64
	CreditScore  int64
	IsBlocked    bool
	ReferralCode string
	ReferredByID string
}

// NewUser creates a UserBuilder with sensible defaults.
func NewUser() *UserBuilder {
	return &UserBuilder{
		ID:           MakeID(),
		FirstName:    "Test",
		LastName:     "Trader " + randomAlphanumeric(6),
		Email:        randomAlphanumeric(8) + "@example.com",
		Phone:        "+23480" + randomAlphanumeric(8),
		Role:         model.RoleUser,
		CreditScore:  100,
		ReferralCode: randomAlphanumeric(6),
	}
}

// WithID sets a custom ID.
func (b *UserBuilder) WithID(id string) *UserBuilder {
	b.ID = id
	return b
}

// WithBalance sets the account balance in minor units.
func (b *UserBuilder) WithBalance(balance int64) *UserBuilder {
	b.Balance = balance
	return b
}

// WithCreditScore sets the credit score.
func (b *UserBuilder) WithCreditScore(score int64) *UserBuilder {
	b.CreditScore = score
	return b
}

// WithReferrer links the user to a referrer.
func (b *UserBuilder) WithReferrer(referrerID string) *UserBuilder {
	b.ReferredByID = referrerID
	return b
}

// Blocked marks the user as blocked from trading.
func (b *UserBuilder) Blocked() *UserBuilder {
	b.IsBlocked = true
	return b
}

// Build creates the user in the database and returns it.
func (b *UserBuilder) Build(t *testing.T, db *sql.DB) model.User {
	t.Helper()

	query := `
		INSERT INTO user (id, first_name, last_name, email, phone, role, balance,
			credit_score, is_blocked, referral_code, referred_by, referral_earnings,
			created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
	`
	var referredBy any
	if b.ReferredByID != "" {
		referredBy = b.ReferredByID
	}
	_, err := db.Exec(query, b.ID, b.FirstName, b.LastName, b.Email, b.Phone,
		b.Role, b.Balance, b.CreditScore, b.IsBlocked, b.ReferralCode, referredBy,
		repository.FormatTime(time.Now()))
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return model.User{
		ID:           b.ID,
		FirstName:    b.FirstName,
		LastName:     b.LastName,
		Email:        b.Email,
		Phone:        b.Phone,
		Role:         b.Role,
		Balance:      b.Balance,
		CreditScore:  b.CreditScore,
		IsBlocked:    b.IsBlocked,
		ReferralCode: b.ReferralCode,
		ReferredByID: b.ReferredByID,
	}
}

// CoinBuilder provides a fluent interface for creating test coins.
//
// Example usage:
//
//	coin := testutil.NewCoin(owner.ID).
//	    WithPrice(250_000).
//	    InAuction().
//	    Build(t, db)
type CoinBuilder struct {
	ID                 string
	OwnerID            string
	SellerID           string
	Price              int64
	Plan               model.Plan
	Status             string
	IsLocked           bool
	IsApproved         bool
	IsInAuction        bool
	IsBonus            bool
	PurchaseDate       time.Time
	ReservedBy         string
	ReservationExpires time.Time
	ReservedAmount     int64
}

// NewCoin creates a CoinBuilder with sensible defaults: a locked,
// unapproved 10-day coin bought just now.
func NewCoin(ownerID string) *CoinBuilder {
	return &CoinBuilder{
		ID:           MakeID(),
		OwnerID:      ownerID,
		Price:        100_000,
		Plan:         model.Plan10Days,
		Status:       model.CoinStatusLocked,
		IsLocked:     true,
		PurchaseDate: time.Now(),
	}
}

// WithPrice sets the principal in minor units.
func (b *CoinBuilder) WithPrice(price int64) *CoinBuilder {
	b.Price = price
	return b
}

// WithPlan sets the accrual plan.
func (b *CoinBuilder) WithPlan(plan model.Plan) *CoinBuilder {
	b.Plan = plan
	return b
}

// WithPurchaseDate backdates the accrual clock.
func (b *CoinBuilder) WithPurchaseDate(at time.Time) *CoinBuilder {
	b.PurchaseDate = at
	return b
}

// Bonus marks the coin as an admin-awarded bonus.
func (b *CoinBuilder) Bonus() *CoinBuilder {
	b.IsBonus = true
	return b
}

// Approved marks the coin as admin-approved.
func (b *CoinBuilder) Approved() *CoinBuilder {
	b.IsApproved = true
	return b
}

// Unlocked clears the lock, leaving the coin available.
func (b *CoinBuilder) Unlocked() *CoinBuilder {
	b.IsLocked = false
	b.Status = model.CoinStatusAvailable
	return b
}

// PendingApproval puts the coin in the admin review queue.
func (b *CoinBuilder) PendingApproval() *CoinBuilder {
	b.Status = model.CoinStatusPendingApproval
	return b
}

// InAuction lists the coin in the bidding pool, approved and unlocked.
func (b *CoinBuilder) InAuction() *CoinBuilder {
	b.IsLocked = false
	b.IsApproved = true
	b.IsInAuction = true
	b.Status = model.CoinStatusInAuction
	if b.SellerID == "" {
		b.SellerID = b.OwnerID
	}
	return b
}

// PendingSale parks the coin mid-trade: proof uploaded, reservation
// dropped, waiting on the seller's release.
func (b *CoinBuilder) PendingSale() *CoinBuilder {
	b.IsLocked = false
	b.IsApproved = true
	b.IsInAuction = false
	b.Status = model.CoinStatusPendingSale
	if b.SellerID == "" {
		b.SellerID = b.OwnerID
	}
	return b
}

// ReservedBy places a live reservation held by the given buyer.
func (b *CoinBuilder) ReservedFor(buyerID string, expires time.Time, amount int64) *CoinBuilder {
	b.IsLocked = false
	b.IsApproved = true
	b.IsInAuction = false
	b.Status = model.CoinStatusReserved
	b.ReservedBy = buyerID
	b.ReservationExpires = expires
	b.ReservedAmount = amount
	if b.SellerID == "" {
		b.SellerID = b.OwnerID
	}
	return b
}

// Build creates the coin in the database and returns it.
func (b *CoinBuilder) Build(t *testing.T, db *sql.DB) model.Coin {
	t.Helper()

	category := model.CategoryForPrice(b.Price)
	profitPercent := b.Plan.ProfitPercent()
	now := time.Now()

	var reservedBy, reservedAt, reservationExpires, sellerID any
	if b.ReservedBy != "" {
		reservedBy = b.ReservedBy
		reservedAt = repository.FormatTime(now)
		reservationExpires = repository.FormatTime(b.ReservationExpires)
	}
	if b.SellerID != "" {
		sellerID = b.SellerID
	}

	query := `
		INSERT INTO coin (id, owner_id, seller_id, price, plan, profit_percent,
			category, status, is_locked, is_approved, is_in_auction, is_bonus,
			purchase_date, reserved_by, reserved_at, reservation_expires,
			reserved_amount, last_profit_update, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, b.ID, b.OwnerID, sellerID, b.Price, b.Plan,
		profitPercent, category, b.Status, b.IsLocked, b.IsApproved,
		b.IsInAuction, b.IsBonus, repository.FormatTime(b.PurchaseDate),
		reservedBy, reservedAt, reservationExpires, b.ReservedAmount,
		repository.FormatTime(b.PurchaseDate), repository.FormatTime(now))
	if err != nil {
		t.Fatalf("Failed to create test coin: %v", err)
	}

	return model.Coin{
		ID:                 b.ID,
		OwnerID:            b.OwnerID,
		SellerID:           b.SellerID,
		Price:              b.Price,
		Plan:               b.Plan,
		ProfitPercent:      profitPercent,
		Category:           category,
		Status:             b.Status,
		IsLocked:           b.IsLocked,
		IsApproved:         b.IsApproved,
		IsInAuction:        b.IsInAuction,
		IsBonus:            b.IsBonus,
		PurchaseDate:       b.PurchaseDate,
		ReservedBy:         b.ReservedBy,
		ReservationExpires: b.ReservationExpires,
		ReservedAmount:     b.ReservedAmount,
		LastProfitUpdate:   b.PurchaseDate,
	}
}

// SessionBuilder provides a fluent interface for creating test auction
// sessions.
type SessionBuilder struct {
	ID        string
	StartTime time.Time
	EndTime   time.Time
	IsActive  bool
}

// NewSession creates a SessionBuilder for an active session that opened
// a moment ago and runs for an hour.
func NewSession() *SessionBuilder {
	now := time.Now()
	return &SessionBuilder{
		ID:        MakeID(),
		StartTime: now.Add(-time.Minute),
		EndTime:   now.Add(59 * time.Minute),
		IsActive:  true,
	}
}

// WithWindow sets the session's trading window.
func (b *SessionBuilder) WithWindow(start, end time.Time) *SessionBuilder {
	b.StartTime = start
	b.EndTime = end
	return b
}

// Inactive marks the session as closed.
func (b *SessionBuilder) Inactive() *SessionBuilder {
	b.IsActive = false
	return b
}

// Build creates the session in the database and returns it.
func (b *SessionBuilder) Build(t *testing.T, db *sql.DB) model.AuctionSession {
	t.Helper()

	query := `
		INSERT INTO auction_session (id, start_time, end_time, is_active, total_bids, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`
	_, err := db.Exec(query, b.ID, repository.FormatTime(b.StartTime),
		repository.FormatTime(b.EndTime), b.IsActive, repository.FormatTime(b.StartTime))
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return model.AuctionSession{
		ID:        b.ID,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		IsActive:  b.IsActive,
	}
}

// TransactionBuilder provides a fluent interface for creating test
// transactions.
type TransactionBuilder struct {
	ID              string
	BuyerID         string
	SellerID        string
	CoinID          string
	SessionID       string
	Amount          int64
	Plan            model.Plan
	PaymentMethod   string
	PaymentProof    string
	Status          string
	PaymentDeadline time.Time
	ReleaseDeadline time.Time
}

// NewTransaction creates a TransactionBuilder for a pending bid with a
// half-hour payment window.
func NewTransaction(buyerID, coinID string) *TransactionBuilder {
	return &TransactionBuilder{
		ID:              MakeID(),
		BuyerID:         buyerID,
		CoinID:          coinID,
		Amount:          100_000,
		Plan:            model.Plan10Days,
		PaymentMethod:   model.PaymentMethodBankTransfer,
		Status:          model.TxStatusPendingPayment,
		PaymentDeadline: time.Now().Add(30 * time.Minute),
	}
}

// WithSeller sets the seller side of the trade.
func (b *TransactionBuilder) WithSeller(sellerID string) *TransactionBuilder {
	b.SellerID = sellerID
	return b
}

// WithSession attributes the bid to a session.
func (b *TransactionBuilder) WithSession(sessionID string) *TransactionBuilder {
	b.SessionID = sessionID
	return b
}

// WithAmount sets the bid amount in minor units.
func (b *TransactionBuilder) WithAmount(amount int64) *TransactionBuilder {
	b.Amount = amount
	return b
}

// WithStatus sets the transaction status.
func (b *TransactionBuilder) WithStatus(status string) *TransactionBuilder {
	b.Status = status
	return b
}

// WithPaymentDeadline overrides the payment deadline.
func (b *TransactionBuilder) WithPaymentDeadline(at time.Time) *TransactionBuilder {
	b.PaymentDeadline = at
	return b
}

// WithProof attaches uploaded proof and a release deadline, moving the
// transaction to payment_uploaded.
func (b *TransactionBuilder) WithProof(ref string, releaseDeadline time.Time) *TransactionBuilder {
	b.PaymentProof = ref
	b.ReleaseDeadline = releaseDeadline
	b.Status = model.TxStatusPaymentUploaded
	return b
}

// Build creates the transaction in the database and returns it.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	var sellerID, sessionID, proof, releaseDeadline any
	if b.SellerID != "" {
		sellerID = b.SellerID
	}
	if b.SessionID != "" {
		sessionID = b.SessionID
	}
	if b.PaymentProof != "" {
		proof = b.PaymentProof
	}
	if !b.ReleaseDeadline.IsZero() {
		releaseDeadline = repository.FormatTime(b.ReleaseDeadline)
	}

	query := `
		INSERT INTO "transaction" (id, buyer_id, seller_id, coin_id, session_id,
			amount, plan, payment_method, payment_proof, status, payment_deadline,
			release_deadline, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, b.ID, b.BuyerID, sellerID, b.CoinID, sessionID,
		b.Amount, b.Plan, b.PaymentMethod, proof, b.Status,
		repository.FormatTime(b.PaymentDeadline), releaseDeadline,
		repository.FormatTime(time.Now()))
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	return model.Transaction{
		ID:              b.ID,
		BuyerID:         b.BuyerID,
		SellerID:        b.SellerID,
		CoinID:          b.CoinID,
		SessionID:       b.SessionID,
		Amount:          b.Amount,
		Plan:            b.Plan,
		PaymentMethod:   b.PaymentMethod,
		PaymentProof:    b.PaymentProof,
		Status:          b.Status,
		PaymentDeadline: b.PaymentDeadline,
		ReleaseDeadline: b.ReleaseDeadline,
	}
}
