package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dev-Arnold/coinBackend/internal/apperrors"
	"github.com/Dev-Arnold/coinBackend/internal/model"
)

// CoinRepository provides data access methods for the coin table.
// Every cross-request invariant (single reservation per coin, restore
// exactly once) is enforced here with conditional UPDATEs rather than
// application-level locks, so concurrent handlers and sweeps can race
// safely: the loser of any race affects zero rows and no-ops.
type CoinRepository struct {
	db *sql.DB
}

// NewCoinRepository creates a new CoinRepository with the provided database connection.
func NewCoinRepository(db *sql.DB) *CoinRepository {
	return &CoinRepository{db: db}
}

const coinColumns = `id, owner_id, seller_id, bought_from, price, plan,
	profit_percent, category, status, is_locked, is_approved, is_in_auction,
	is_bonus, purchase_date, reserved_by, reserved_at, reservation_expires,
	reserved_amount, last_profit_update, created_at`

// InsertCoin stores a new coin. The category is always derived from the
// price so the banding invariant cannot drift.
func (r *CoinRepository) InsertCoin(ctx context.Context, c *model.Coin) error {
	c.Category = model.CategoryForPrice(c.Price)
	if c.Category == "" {
		return apperrors.ErrInvalidPrice
	}
	c.ProfitPercent = c.Plan.ProfitPercent()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coin (`+coinColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.OwnerID, nullString(c.SellerID), nullString(c.BoughtFromID),
		c.Price, c.Plan, c.ProfitPercent, c.Category, c.Status, c.IsLocked,
		c.IsApproved, c.IsInAuction, c.IsBonus, FormatTime(c.PurchaseDate),
		nullString(c.ReservedBy), nullTime(c.ReservedAt),
		nullTime(c.ReservationExpires), c.ReservedAmount,
		FormatTime(c.LastProfitUpdate), FormatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert coin: %w", err)
	}
	return nil
}

// GetCoin retrieves a single coin by ID.
func (r *CoinRepository) GetCoin(ctx context.Context, id string) (model.Coin, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+coinColumns+` FROM coin WHERE id = ?`, id)
	return scanCoin(row)
}

// GetCoinsByOwner retrieves all coins owned by a participant, newest first.
func (r *CoinRepository) GetCoinsByOwner(ctx context.Context, ownerID string) ([]model.Coin, error) {
	return r.queryCoins(ctx, `
		SELECT `+coinColumns+` FROM coin
		WHERE owner_id = ?
		ORDER BY created_at DESC
	`, ownerID)
}

// GetPoolByCategory returns the coins currently listed for bidding in
// one category band.
func (r *CoinRepository) GetPoolByCategory(ctx context.Context, category model.Category) ([]model.Coin, error) {
	return r.queryCoins(ctx, `
		SELECT `+coinColumns+` FROM coin
		WHERE is_in_auction = TRUE AND is_approved = TRUE AND category = ?
		ORDER BY price ASC
	`, category)
}

// GetAccruingCoinsByOwner returns the owner's approved coins still
// accruing value, for the profit crediting sweep.
func (r *CoinRepository) GetAccruingCoinsByOwner(ctx context.Context, ownerID string) ([]model.Coin, error) {
	return r.queryCoins(ctx, `
		SELECT `+coinColumns+` FROM coin
		WHERE owner_id = ? AND is_approved = TRUE AND status IN (?, ?)
	`, ownerID, model.CoinStatusLocked, model.CoinStatusAvailable)
}

// GetPendingApproval returns coins awaiting approval, oldest first.
func (r *CoinRepository) GetPendingApproval(ctx context.Context) ([]model.Coin, error) {
	return r.queryCoins(ctx, `
		SELECT `+coinColumns+` FROM coin
		WHERE status = ?
		ORDER BY created_at ASC
	`, model.CoinStatusPendingApproval)
}

// SubmitForApproval moves a locked coin into the pending_approval
// state. Guarded on the current state so a duplicate submission affects
// no rows.
func (r *CoinRepository) SubmitForApproval(ctx context.Context, coinID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coin
		SET status = ?, is_approved = FALSE
		WHERE id = ? AND is_locked = TRUE AND status != ?
	`, model.CoinStatusPendingApproval, coinID, model.CoinStatusPendingApproval)
	if err != nil {
		return false, fmt.Errorf("failed to submit coin for approval: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read submit result: %w", err)
	}
	return rows > 0, nil
}

// Approve unlocks a coin and marks it approved and available.
func (r *CoinRepository) Approve(ctx context.Context, coinID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coin
		SET is_approved = TRUE, is_locked = FALSE, status = ?
		WHERE id = ? AND status != ?
	`, model.CoinStatusAvailable, coinID, model.CoinStatusSold)
	if err != nil {
		return false, fmt.Errorf("failed to approve coin: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read approve result: %w", err)
	}
	return rows > 0, nil
}

// ListForAuction flips an approved, unlocked coin into the bidding
// pool, recording the seller and optionally a new asking price.
func (r *CoinRepository) ListForAuction(ctx context.Context, coinID, sellerID string, price int64, status string) (bool, error) {
	category := model.CategoryForPrice(price)
	if category == "" {
		return false, apperrors.ErrInvalidPrice
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE coin
		SET price = ?, category = ?, seller_id = ?, status = ?, is_in_auction = TRUE
		WHERE id = ? AND is_locked = FALSE AND is_approved = TRUE AND is_in_auction = FALSE
		  AND status NOT IN (?, ?)
	`, price, category, sellerID, status, coinID, model.CoinStatusSold, model.CoinStatusPendingSale)
	if err != nil {
		return false, fmt.Errorf("failed to list coin for auction: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read list result: %w", err)
	}
	return rows > 0, nil
}

// Reserve atomically flips a listed coin out of the pool and onto a
// buyer's hold. The WHERE clause is the single-winner guarantee: of two
// racing buyers exactly one update matches, the other affects zero rows.
func (r *CoinRepository) Reserve(ctx context.Context, coinID, buyerID string, amount int64, now, expiresAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coin
		SET is_in_auction = FALSE, status = ?, reserved_by = ?, reserved_at = ?,
		    reservation_expires = ?, reserved_amount = ?
		WHERE id = ? AND is_in_auction = TRUE AND reserved_by IS NULL
	`, model.CoinStatusReserved, buyerID, FormatTime(now), FormatTime(expiresAt), amount, coinID)
	if err != nil {
		return false, fmt.Errorf("failed to reserve coin: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read reserve result: %w", err)
	}
	return rows > 0, nil
}

// ClearReservation removes a buyer's hold. With restore the coin
// returns to the bidding pool; without it the coin is parked in
// pending_sale (proof submitted, the transaction record takes over)
// so pool stocking and owner relisting cannot touch it until the
// trade settles or its deadline sweep fires. Guarded on reserved_by
// so a sweep and a manual cancel racing the same reservation resolve
// to exactly one winner.
func (r *CoinRepository) ClearReservation(ctx context.Context, coinID, buyerID string, restore bool) (bool, error) {
	status := model.CoinStatusPendingSale
	if restore {
		status = model.CoinStatusInAuction
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE coin
		SET reserved_by = NULL, reserved_at = NULL, reservation_expires = NULL,
		    reserved_amount = 0, is_in_auction = ?, status = ?
		WHERE id = ? AND reserved_by = ?
	`, restore, status, coinID, buyerID)
	if err != nil {
		return false, fmt.Errorf("failed to clear reservation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read clear result: %w", err)
	}
	return rows > 0, nil
}

// Relist returns a mid-sale coin to the bidding pool at its stored
// price after the seller missed the release deadline. Guarded on
// pending_sale so only the sweep that failed the transaction relists.
func (r *CoinRepository) Relist(ctx context.Context, coinID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coin
		SET is_in_auction = TRUE, status = ?
		WHERE id = ? AND status = ?
	`, model.CoinStatusInAuction, coinID, model.CoinStatusPendingSale)
	if err != nil {
		return false, fmt.Errorf("failed to relist coin: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read relist result: %w", err)
	}
	return rows > 0, nil
}

// GetExpiredReservations returns coins whose reservation lapsed before
// the given time.
func (r *CoinRepository) GetExpiredReservations(ctx context.Context, now time.Time) ([]model.Coin, error) {
	return r.queryCoins(ctx, `
		SELECT `+coinColumns+` FROM coin
		WHERE reserved_by IS NOT NULL AND reservation_expires < ?
	`, FormatTime(now))
}

// HasLiveReservation reports whether the buyer already holds an
// unexpired reservation on any coin.
func (r *CoinRepository) HasLiveReservation(ctx context.Context, buyerID string, now time.Time) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM coin
		WHERE reserved_by = ? AND reservation_expires >= ?
	`, buyerID, FormatTime(now)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count live reservations: %w", err)
	}
	return count > 0, nil
}

// ReleaseEligible moves up to limit eligible coins of one category into
// the bidding pool and returns how many were released. Eligible means
// approved, unlocked, not already listed, not reserved and not mid-sale:
// a pending_sale coin still backs a live transaction and must not be
// offered again.
func (r *CoinRepository) ReleaseEligible(ctx context.Context, category model.Category, limit int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coin
		SET is_in_auction = TRUE, status = ?
		WHERE id IN (
			SELECT id FROM coin
			WHERE category = ? AND is_approved = TRUE AND is_locked = FALSE
			  AND is_in_auction = FALSE AND reserved_by IS NULL
			  AND status NOT IN (?, ?)
			ORDER BY created_at ASC
			LIMIT ?
		)
	`, model.CoinStatusInAuction, category, model.CoinStatusSold, model.CoinStatusPendingSale, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to release coins to auction: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read release result: %w", err)
	}
	return rows, nil
}

// ResetIdleListed pulls idle listed coins out of the pool at session
// close. Reserved coins are in-flight and deliberately left alone.
func (r *CoinRepository) ResetIdleListed(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coin
		SET is_in_auction = FALSE, status = ?
		WHERE is_in_auction = TRUE AND reserved_by IS NULL
	`, model.CoinStatusAvailable)
	if err != nil {
		return 0, fmt.Errorf("failed to reset idle coins: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read reset result: %w", err)
	}
	return rows, nil
}

// ShrinkPrincipal applies a partial fill: the original coin keeps
// trading at a reduced principal after part of its value was consumed.
// A remainder below the smallest band keeps its old category; it stays
// in the owner's portfolio but cannot be listed again at that size.
func (r *CoinRepository) ShrinkPrincipal(ctx context.Context, coinID string, newPrice int64) (bool, error) {
	query := `
		UPDATE coin
		SET price = ?, status = ?
		WHERE id = ? AND status != ?
	`
	args := []any{newPrice, model.CoinStatusAvailable, coinID, model.CoinStatusSold}
	if category := model.CategoryForPrice(newPrice); category != "" {
		query = `
		UPDATE coin
		SET price = ?, category = ?, status = ?
		WHERE id = ? AND status != ?
	`
		args = []any{newPrice, category, model.CoinStatusAvailable, coinID, model.CoinStatusSold}
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to shrink coin principal: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read shrink result: %w", err)
	}
	return rows > 0, nil
}

// Retire marks a fully consumed coin as sold. Sold is terminal: the
// guard makes retiring idempotent.
func (r *CoinRepository) Retire(ctx context.Context, coinID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coin
		SET status = ?, is_in_auction = FALSE
		WHERE id = ? AND status != ?
	`, model.CoinStatusSold, coinID, model.CoinStatusSold)
	if err != nil {
		return false, fmt.Errorf("failed to retire coin: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read retire result: %w", err)
	}
	return rows > 0, nil
}

// Unlock clears the lock on a coin after recommitment.
func (r *CoinRepository) Unlock(ctx context.Context, coinID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coin
		SET is_locked = FALSE, status = ?
		WHERE id = ? AND is_locked = TRUE
	`, model.CoinStatusAvailable, coinID)
	if err != nil {
		return false, fmt.Errorf("failed to unlock coin: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read unlock result: %w", err)
	}
	return rows > 0, nil
}

// TouchProfitUpdate advances a coin's profit crediting marker.
func (r *CoinRepository) TouchProfitUpdate(ctx context.Context, coinID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE coin SET last_profit_update = ? WHERE id = ?
	`, FormatTime(at), coinID)
	if err != nil {
		return fmt.Errorf("failed to update profit marker: %w", err)
	}
	return nil
}

// CategoryStats counts coins per pool state for one category.
type CategoryStats struct {
	Total     int64 `json:"total"`
	Approved  int64 `json:"approved"`
	InAuction int64 `json:"inAuction"`
	Available int64 `json:"availableForAuction"`
}

// GetCategoryStats aggregates pool counts for one category band.
func (r *CoinRepository) GetCategoryStats(ctx context.Context, category model.Category) (CategoryStats, error) {
	var s CategoryStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(is_approved), 0),
		       COALESCE(SUM(is_in_auction), 0),
		       COALESCE(SUM(is_approved AND NOT is_in_auction AND NOT is_locked
		                    AND reserved_by IS NULL AND status != ?), 0)
		FROM coin
		WHERE category = ? AND status != ?
	`, model.CoinStatusPendingSale, category, model.CoinStatusSold).Scan(&s.Total, &s.Approved, &s.InAuction, &s.Available)
	if err != nil {
		return CategoryStats{}, fmt.Errorf("failed to aggregate category stats: %w", err)
	}
	return s, nil
}

func (r *CoinRepository) queryCoins(ctx context.Context, query string, args ...any) ([]model.Coin, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query coin table: %w", err)
	}
	defer rows.Close()

	var coins []model.Coin
	for rows.Next() {
		c, err := scanCoin(rows)
		if err != nil {
			return nil, err
		}
		coins = append(coins, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coin table: %w", err)
	}
	return coins, nil
}

func scanCoin(row rowScanner) (model.Coin, error) {
	var c model.Coin
	var sellerID, boughtFrom, reservedBy sql.NullString
	var reservedAt, reservationExpires sql.NullString
	var reservedAmount sql.NullInt64
	var purchaseDate, lastProfitUpdate, createdAt string

	err := row.Scan(
		&c.ID, &c.OwnerID, &sellerID, &boughtFrom, &c.Price, &c.Plan,
		&c.ProfitPercent, &c.Category, &c.Status, &c.IsLocked, &c.IsApproved,
		&c.IsInAuction, &c.IsBonus, &purchaseDate, &reservedBy, &reservedAt,
		&reservationExpires, &reservedAmount, &lastProfitUpdate, &createdAt,
	)
	if err == sql.ErrNoRows {
		return model.Coin{}, apperrors.ErrCoinNotFound
	}
	if err != nil {
		return model.Coin{}, fmt.Errorf("failed to scan coin table results: %w", err)
	}

	c.SellerID = sellerID.String
	c.BoughtFromID = boughtFrom.String
	c.ReservedBy = reservedBy.String
	c.ReservedAmount = reservedAmount.Int64

	if c.PurchaseDate, err = ParseTime(purchaseDate); err != nil {
		return model.Coin{}, err
	}
	if c.ReservedAt, err = nullableTime(reservedAt); err != nil {
		return model.Coin{}, err
	}
	if c.ReservationExpires, err = nullableTime(reservationExpires); err != nil {
		return model.Coin{}, err
	}
	if c.LastProfitUpdate, err = ParseTime(lastProfitUpdate); err != nil {
		return model.Coin{}, err
	}
	if c.CreatedAt, err = ParseTime(createdAt); err != nil {
		return model.Coin{}, err
	}
	return c, nil
}
