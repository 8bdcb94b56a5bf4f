package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Concurrency tests share the one in-memory database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the production migrations.
func createTestSchema(db *sql.DB) error {
	schema := `
		-- User table
		CREATE TABLE user (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			phone VARCHAR(32) NOT NULL,
			role VARCHAR(10) NOT NULL DEFAULT 'user',
			balance INTEGER NOT NULL DEFAULT 0,
			credit_score INTEGER NOT NULL DEFAULT 100,
			is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
			referral_code VARCHAR(12) NOT NULL UNIQUE,
			referred_by VARCHAR(36) REFERENCES user(id),
			referral_earnings INTEGER NOT NULL DEFAULT 0,
			bank_details TEXT,
			usdt_wallet VARCHAR(128),
			created_at TEXT NOT NULL
		);

		-- Coin table: tradeable positions
		CREATE TABLE coin (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			owner_id VARCHAR(36) NOT NULL REFERENCES user(id),
			seller_id VARCHAR(36) REFERENCES user(id),
			bought_from VARCHAR(36) REFERENCES user(id),
			price INTEGER NOT NULL,
			plan VARCHAR(10) NOT NULL,
			profit_percent INTEGER NOT NULL,
			category VARCHAR(16) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'locked',
			is_locked BOOLEAN NOT NULL DEFAULT TRUE,
			is_approved BOOLEAN NOT NULL DEFAULT FALSE,
			is_in_auction BOOLEAN NOT NULL DEFAULT FALSE,
			is_bonus BOOLEAN NOT NULL DEFAULT FALSE,
			purchase_date TEXT NOT NULL,
			reserved_by VARCHAR(36) REFERENCES user(id),
			reserved_at TEXT,
			reservation_expires TEXT,
			reserved_amount INTEGER,
			last_profit_update TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX idx_coin_owner ON coin(owner_id);
		CREATE INDEX idx_coin_pool ON coin(is_in_auction, category);
		CREATE INDEX idx_coin_reservation ON coin(reserved_by, reservation_expires);

		-- Auction session table
		CREATE TABLE auction_session (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			total_bids INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);

		CREATE UNIQUE INDEX idx_session_single_active ON auction_session(is_active) WHERE is_active;

		CREATE TABLE session_participant (
			session_id VARCHAR(36) NOT NULL REFERENCES auction_session(id),
			user_id VARCHAR(36) NOT NULL REFERENCES user(id),
			joined_at TEXT NOT NULL,
			PRIMARY KEY (session_id, user_id)
		);

		-- Transaction table (quoted because transaction is a reserved keyword)
		CREATE TABLE "transaction" (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			buyer_id VARCHAR(36) NOT NULL REFERENCES user(id),
			seller_id VARCHAR(36) REFERENCES user(id),
			coin_id VARCHAR(36) NOT NULL REFERENCES coin(id),
			session_id VARCHAR(36) REFERENCES auction_session(id),
			amount INTEGER NOT NULL,
			plan VARCHAR(10) NOT NULL,
			payment_method VARCHAR(20) NOT NULL,
			payment_proof TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'pending_payment',
			payment_deadline TEXT NOT NULL,
			release_deadline TEXT,
			referral_commission INTEGER,
			referral_paid_to VARCHAR(36) REFERENCES user(id),
			created_at TEXT NOT NULL,
			completed_at TEXT
		);

		CREATE INDEX idx_transaction_buyer ON "transaction"(buyer_id, status);
		CREATE INDEX idx_transaction_coin ON "transaction"(coin_id, status);
		CREATE INDEX idx_transaction_deadline ON "transaction"(status, payment_deadline);
	`

	_, err := db.Exec(schema)
	return err
}
