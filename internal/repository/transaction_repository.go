package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dev-Arnold/coinBackend/internal/apperrors"
	"github.com/Dev-Arnold/coinBackend/internal/model"
)

// TransactionRepository provides data access methods for the
// transaction table. Status transitions are strictly forward; every
// advance is a status-guarded UPDATE so duplicate or concurrent
// attempts to move a transaction past the same step resolve to exactly
// one winner and the rest no-op.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, buyer_id, seller_id, coin_id, session_id, amount,
	plan, payment_method, payment_proof, status, payment_deadline,
	release_deadline, referral_commission, referral_paid_to, created_at, completed_at`

// InsertTransaction stores a new transaction.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO "transaction" (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.BuyerID, nullString(t.SellerID), t.CoinID, nullString(t.SessionID),
		t.Amount, t.Plan, t.PaymentMethod, nullString(t.PaymentProof), t.Status,
		FormatTime(t.PaymentDeadline), nullTime(t.ReleaseDeadline),
		t.ReferralCommission, nullString(t.ReferralPaidTo),
		FormatTime(t.CreatedAt), nullTime(t.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a single transaction by ID.
func (r *TransactionRepository) GetTransaction(ctx context.Context, id string) (model.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM "transaction" WHERE id = ?`, id)
	return scanTransaction(row)
}

// GetTransactionsByBuyer retrieves a buyer's transactions, newest first.
func (r *TransactionRepository) GetTransactionsByBuyer(ctx context.Context, buyerID string) ([]model.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT `+transactionColumns+` FROM "transaction"
		WHERE buyer_id = ?
		ORDER BY created_at DESC
	`, buyerID)
}

// GetPendingForCoin returns the buyer's in-flight transaction for a
// coin, if any.
func (r *TransactionRepository) GetPendingForCoin(ctx context.Context, coinID, buyerID string) (model.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM "transaction"
		WHERE coin_id = ? AND buyer_id = ? AND status IN (?, ?)
		ORDER BY created_at DESC
		LIMIT 1
	`, coinID, buyerID, model.TxStatusPendingPayment, model.TxStatusPaymentUploaded)
	return scanTransaction(row)
}

// SessionSpend sums the buyer's committed amounts within one session.
// Committed means proof uploaded, confirmed, or still within the
// payment window: capital is provisioned at reservation, not release.
func (r *TransactionRepository) SessionSpend(ctx context.Context, sessionID, buyerID string) (int64, error) {
	var spend sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT SUM(amount) FROM "transaction"
		WHERE session_id = ? AND buyer_id = ? AND status IN (?, ?, ?)
	`, sessionID, buyerID,
		model.TxStatusPendingPayment, model.TxStatusPaymentUploaded, model.TxStatusConfirmed,
	).Scan(&spend)
	if err != nil {
		return 0, fmt.Errorf("failed to sum session spend: %w", err)
	}
	return spend.Int64, nil
}

// AttachProof advances pending_payment to payment_uploaded, attaching
// the proof reference and the seller-action deadline. The proof is
// write-once: the guard rejects a second upload.
func (r *TransactionRepository) AttachProof(ctx context.Context, id, proofRef string, releaseDeadline time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE "transaction"
		SET status = ?, payment_proof = ?, release_deadline = ?
		WHERE id = ? AND status = ? AND payment_proof IS NULL
	`, model.TxStatusPaymentUploaded, proofRef, FormatTime(releaseDeadline),
		id, model.TxStatusPendingPayment)
	if err != nil {
		return false, fmt.Errorf("failed to attach payment proof: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read proof result: %w", err)
	}
	return rows > 0, nil
}

// Confirm advances payment_uploaded to confirmed, recording completion
// time and any referral commission.
func (r *TransactionRepository) Confirm(ctx context.Context, id string, completedAt time.Time, commission int64, paidTo string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE "transaction"
		SET status = ?, completed_at = ?, referral_commission = ?, referral_paid_to = ?
		WHERE id = ? AND status = ?
	`, model.TxStatusConfirmed, FormatTime(completedAt), commission,
		nullString(paidTo), id, model.TxStatusPaymentUploaded)
	if err != nil {
		return false, fmt.Errorf("failed to confirm transaction: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read confirm result: %w", err)
	}
	return rows > 0, nil
}

// MarkFailed moves a non-terminal transaction to failed. Returns false
// when the transaction already reached a terminal state.
func (r *TransactionRepository) MarkFailed(ctx context.Context, id string) (bool, error) {
	return r.terminate(ctx, id, model.TxStatusFailed)
}

// MarkCancelled moves a pending_payment transaction to cancelled.
func (r *TransactionRepository) MarkCancelled(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE "transaction"
		SET status = ?
		WHERE id = ? AND status = ?
	`, model.TxStatusCancelled, id, model.TxStatusPendingPayment)
	if err != nil {
		return false, fmt.Errorf("failed to cancel transaction: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read cancel result: %w", err)
	}
	return rows > 0, nil
}

func (r *TransactionRepository) terminate(ctx context.Context, id, status string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE "transaction"
		SET status = ?
		WHERE id = ? AND status IN (?, ?)
	`, status, id, model.TxStatusPendingPayment, model.TxStatusPaymentUploaded)
	if err != nil {
		return false, fmt.Errorf("failed to terminate transaction: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read terminate result: %w", err)
	}
	return rows > 0, nil
}

// GetOverdue returns transactions that missed a deadline: pending
// payments past the payment deadline and uploaded payments past the
// release deadline.
func (r *TransactionRepository) GetOverdue(ctx context.Context, now time.Time) ([]model.Transaction, error) {
	ts := FormatTime(now)
	return r.queryTransactions(ctx, `
		SELECT `+transactionColumns+` FROM "transaction"
		WHERE (status = ? AND payment_deadline < ?)
		   OR (status = ? AND release_deadline IS NOT NULL AND release_deadline < ?)
	`, model.TxStatusPendingPayment, ts, model.TxStatusPaymentUploaded, ts)
}

// HasConfirmedPurchase reports whether the buyer has ever completed a
// purchase from another party. Recommitments (no seller) do not count;
// this gates the first-time-buyer referral commission.
func (r *TransactionRepository) HasConfirmedPurchase(ctx context.Context, buyerID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM "transaction"
		WHERE buyer_id = ? AND status = ? AND seller_id IS NOT NULL
	`, buyerID, model.TxStatusConfirmed).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count confirmed purchases: %w", err)
	}
	return count > 0, nil
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}
	return transactions, nil
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var t model.Transaction
	var sellerID, sessionID, proof, referralPaidTo sql.NullString
	var releaseDeadline, completedAt sql.NullString
	var commission sql.NullInt64
	var paymentDeadline, createdAt string

	err := row.Scan(
		&t.ID, &t.BuyerID, &sellerID, &t.CoinID, &sessionID, &t.Amount,
		&t.Plan, &t.PaymentMethod, &proof, &t.Status, &paymentDeadline,
		&releaseDeadline, &commission, &referralPaidTo, &createdAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return model.Transaction{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction table results: %w", err)
	}

	t.SellerID = sellerID.String
	t.SessionID = sessionID.String
	t.PaymentProof = proof.String
	t.ReferralPaidTo = referralPaidTo.String
	t.ReferralCommission = commission.Int64

	if t.PaymentDeadline, err = ParseTime(paymentDeadline); err != nil {
		return model.Transaction{}, err
	}
	if t.ReleaseDeadline, err = nullableTime(releaseDeadline); err != nil {
		return model.Transaction{}, err
	}
	if t.CreatedAt, err = ParseTime(createdAt); err != nil {
		return model.Transaction{}, err
	}
	if t.CompletedAt, err = nullableTime(completedAt); err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}
