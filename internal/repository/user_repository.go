package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/Dev-Arnold/coinBackend/internal/apperrors"
	"github.com/Dev-Arnold/coinBackend/internal/model"
)

// UserRepository provides data access methods for the user table.
// Bank details are encrypted with fernet before they reach the store;
// a nil key stores them as plain JSON (test setups).
type UserRepository struct {
	db  *sql.DB
	key *fernet.Key
}

// NewUserRepository creates a new UserRepository with the provided database
// connection and optional fernet key for bank-detail encryption.
func NewUserRepository(db *sql.DB, key *fernet.Key) *UserRepository {
	return &UserRepository{db: db, key: key}
}

const userColumns = `id, first_name, last_name, email, phone, role, balance,
	credit_score, is_blocked, referral_code, referred_by, referral_earnings,
	bank_details, usdt_wallet, created_at`

// InsertUser stores a new user. A referral code is generated when none
// is set.
func (r *UserRepository) InsertUser(ctx context.Context, u *model.User) error {
	if u.ReferralCode == "" {
		u.ReferralCode = generateReferralCode()
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}

	bankDetails, err := r.encodeBankDetails(u.BankDetails)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.Role, u.Balance,
		u.CreditScore, u.IsBlocked, u.ReferralCode, nullString(u.ReferredByID),
		u.ReferralEarnings, bankDetails, nullString(u.USDTWallet),
		FormatTime(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a single user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM user WHERE id = ?`, id)
	return r.scanUser(row)
}

// GetUserByReferralCode resolves a referral code to its owner.
func (r *UserRepository) GetUserByReferralCode(ctx context.Context, code string) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM user WHERE referral_code = ?`, code)
	return r.scanUser(row)
}

// GetActiveTraders returns all unblocked participants with the user
// role, for the profit crediting sweep.
func (r *UserRepository) GetActiveTraders(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM user
		WHERE role = ? AND is_blocked = FALSE
		ORDER BY created_at ASC
	`, model.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to query user table: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user table: %w", err)
	}
	return users, nil
}

// Penalize deducts points (or a percentage of the current score when
// percent is non-zero) from the user's credit score. The clamp to
// [0,100] and the block latch are computed inside a single UPDATE so
// concurrent penalties compose instead of losing writes. Returns the
// resulting score and blocked flag.
func (r *UserRepository) Penalize(ctx context.Context, id string, points, percent int64) (int64, bool, error) {
	var res sql.Result
	var err error
	if percent > 0 {
		res, err = r.db.ExecContext(ctx, `
			UPDATE user
			SET credit_score = MAX(0, MIN(100, credit_score - (credit_score * ? / 100))),
			    is_blocked = is_blocked OR MAX(0, credit_score - (credit_score * ? / 100)) <= ?
			WHERE id = ?
		`, percent, percent, model.BlockThreshold, id)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE user
			SET credit_score = MAX(0, MIN(100, credit_score - ?)),
			    is_blocked = is_blocked OR MAX(0, credit_score - ?) <= ?
			WHERE id = ?
		`, points, points, model.BlockThreshold, id)
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to penalize user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read penalty result: %w", err)
	}
	if rows == 0 {
		return 0, false, apperrors.ErrUserNotFound
	}

	var score int64
	var blocked bool
	err = r.db.QueryRowContext(ctx, `SELECT credit_score, is_blocked FROM user WHERE id = ?`, id).
		Scan(&score, &blocked)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read credit score: %w", err)
	}
	return score, blocked, nil
}

// CreditBalance adds amount to the user's balance.
func (r *UserRepository) CreditBalance(ctx context.Context, id string, amount int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE user SET balance = balance + ? WHERE id = ?`, amount, id)
	if err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// DebitBalance subtracts amount from the user's balance. The update is
// conditional on sufficient funds; an insufficient balance affects no
// rows and returns ErrInsufficientBalance.
func (r *UserRepository) DebitBalance(ctx context.Context, id string, amount int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user SET balance = balance - ?
		WHERE id = ? AND balance >= ?
	`, amount, id, amount)
	if err != nil {
		return fmt.Errorf("failed to debit balance: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read debit result: %w", err)
	}
	if rows == 0 {
		return apperrors.ErrInsufficientBalance
	}
	return nil
}

// CreditReferralEarnings records a referral commission: both the
// aggregate earnings counter and the spendable balance grow.
func (r *UserRepository) CreditReferralEarnings(ctx context.Context, id string, amount int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user
		SET referral_earnings = referral_earnings + ?, balance = balance + ?
		WHERE id = ?
	`, amount, amount, id)
	if err != nil {
		return fmt.Errorf("failed to credit referral earnings: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// SetBlocked sets the blocked flag directly. This is the only path that
// clears the block latch and is reserved for admin use.
func (r *UserRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE user SET is_blocked = ? WHERE id = ?`, blocked, id)
	if err != nil {
		return fmt.Errorf("failed to update blocked flag: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdateSettlementDetails replaces the user's payout endpoints. Bank
// details are encrypted before they hit the row; a nil value leaves the
// stored details untouched.
func (r *UserRepository) UpdateSettlementDetails(ctx context.Context, id string, bd *model.BankDetails, usdtWallet string) error {
	if bd != nil {
		encoded, err := r.encodeBankDetails(bd)
		if err != nil {
			return err
		}
		res, err := r.db.ExecContext(ctx, `
			UPDATE user SET bank_details = ?, usdt_wallet = ? WHERE id = ?
		`, encoded, nullString(usdtWallet), id)
		if err != nil {
			return fmt.Errorf("failed to update settlement details: %w", err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return apperrors.ErrUserNotFound
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx, `UPDATE user SET usdt_wallet = ? WHERE id = ?`, nullString(usdtWallet), id)
	if err != nil {
		return fmt.Errorf("failed to update settlement details: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// SellerContact returns the contact details shown to a buyer holding a
// reservation on the seller's coin.
func (r *UserRepository) SellerContact(ctx context.Context, id string) (model.SellerContact, error) {
	u, err := r.GetUser(ctx, id)
	if err != nil {
		return model.SellerContact{}, err
	}
	return model.SellerContact{
		Name:        u.FirstName + " " + u.LastName,
		Phone:       u.Phone,
		BankDetails: u.BankDetails,
		USDTWallet:  u.USDTWallet,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row rowScanner) (model.User, error) {
	var u model.User
	var referredBy, bankDetails, usdtWallet sql.NullString
	var createdAt string

	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.Role,
		&u.Balance, &u.CreditScore, &u.IsBlocked, &u.ReferralCode,
		&referredBy, &u.ReferralEarnings, &bankDetails, &usdtWallet,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return model.User{}, apperrors.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to scan user table results: %w", err)
	}

	u.ReferredByID = referredBy.String
	u.USDTWallet = usdtWallet.String
	if u.CreatedAt, err = ParseTime(createdAt); err != nil {
		return model.User{}, err
	}
	if bankDetails.Valid && bankDetails.String != "" {
		u.BankDetails, err = r.decodeBankDetails(bankDetails.String)
		if err != nil {
			return model.User{}, err
		}
	}
	return u, nil
}

func (r *UserRepository) encodeBankDetails(bd *model.BankDetails) (any, error) {
	if bd == nil {
		return nil, nil
	}
	raw, err := json.Marshal(bd)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bank details: %w", err)
	}
	if r.key == nil {
		return string(raw), nil
	}
	token, err := fernet.EncryptAndSign(raw, r.key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt bank details: %w", err)
	}
	return string(token), nil
}

func (r *UserRepository) decodeBankDetails(stored string) (*model.BankDetails, error) {
	raw := []byte(stored)
	if r.key != nil {
		decrypted := fernet.VerifyAndDecrypt(raw, 0, []*fernet.Key{r.key})
		if decrypted == nil {
			return nil, fmt.Errorf("failed to decrypt bank details")
		}
		raw = decrypted
	}
	var bd model.BankDetails
	if err := json.Unmarshal(raw, &bd); err != nil {
		return nil, fmt.Errorf("failed to decode bank details: %w", err)
	}
	return &bd, nil
}

const referralAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateReferralCode() string {
	var b strings.Builder
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < 6; i++ {
		b.WriteByte(referralAlphabet[rng.Intn(len(referralAlphabet))])
	}
	return b.String()
}
