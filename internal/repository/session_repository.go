package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Dev-Arnold/coinBackend/internal/apperrors"
	"github.com/Dev-Arnold/coinBackend/internal/model"
)

// SessionRepository provides data access methods for the auction
// session tables. The single-active-session invariant is enforced by a
// partial unique index on is_active, so opening a second session fails
// at the store regardless of how many processes race.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository with the provided database connection.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// InsertActiveSession creates a new session with is_active set. If
// another session is already active the unique index rejects the write
// and ErrSessionAlreadyActive is returned.
func (r *SessionRepository) InsertActiveSession(ctx context.Context, s *model.AuctionSession) error {
	s.IsActive = true
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auction_session (id, start_time, end_time, is_active, total_bids, created_at)
		VALUES (?, ?, ?, TRUE, 0, ?)
	`, s.ID, FormatTime(s.StartTime), FormatTime(s.EndTime), FormatTime(s.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperrors.ErrSessionAlreadyActive
		}
		return fmt.Errorf("failed to insert auction session: %w", err)
	}
	return nil
}

// GetActiveSession returns the active session, or nil when none exists.
func (r *SessionRepository) GetActiveSession(ctx context.Context) (*model.AuctionSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, start_time, end_time, is_active, total_bids, created_at
		FROM auction_session
		WHERE is_active = TRUE
	`)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSession retrieves a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (model.AuctionSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, start_time, end_time, is_active, total_bids, created_at
		FROM auction_session
		WHERE id = ?
	`, id)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return model.AuctionSession{}, apperrors.ErrSessionNotFound
	}
	return s, err
}

// Deactivate closes the active session, stamping its actual end time.
// Idempotent: with no active session it affects zero rows.
func (r *SessionRepository) Deactivate(ctx context.Context, endTime time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE auction_session
		SET is_active = FALSE, end_time = ?
		WHERE is_active = TRUE
	`, FormatTime(endTime))
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate auction session: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deactivate result: %w", err)
	}
	return rows, nil
}

// AddParticipant registers a buyer in the session. The composite
// primary key deduplicates repeat joins.
func (r *SessionRepository) AddParticipant(ctx context.Context, sessionID, userID string, joinedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO session_participant (session_id, user_id, joined_at)
		VALUES (?, ?, ?)
	`, sessionID, userID, FormatTime(joinedAt))
	if err != nil {
		return fmt.Errorf("failed to add session participant: %w", err)
	}
	return nil
}

// CountParticipants returns the number of distinct participants.
func (r *SessionRepository) CountParticipants(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM session_participant WHERE session_id = ?
	`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count session participants: %w", err)
	}
	return count, nil
}

// IncrementBids bumps the session's bid counter.
func (r *SessionRepository) IncrementBids(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE auction_session SET total_bids = total_bids + 1 WHERE id = ?
	`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to increment bid counter: %w", err)
	}
	return nil
}

func scanSession(row rowScanner) (model.AuctionSession, error) {
	var s model.AuctionSession
	var startTime, endTime, createdAt string

	err := row.Scan(&s.ID, &startTime, &endTime, &s.IsActive, &s.TotalBids, &createdAt)
	if err == sql.ErrNoRows {
		return model.AuctionSession{}, err
	}
	if err != nil {
		return model.AuctionSession{}, fmt.Errorf("failed to scan auction session results: %w", err)
	}

	if s.StartTime, err = ParseTime(startTime); err != nil {
		return model.AuctionSession{}, err
	}
	if s.EndTime, err = ParseTime(endTime); err != nil {
		return model.AuctionSession{}, err
	}
	if s.CreatedAt, err = ParseTime(createdAt); err != nil {
		return model.AuctionSession{}, err
	}
	return s, nil
}
