package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Auction  AuctionConfig
	Security SecurityConfig
	Storage  StorageConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// AuctionConfig holds the trading policy knobs. Durations and amounts
// have production defaults; tests override them per case.
type AuctionConfig struct {
	// Timezone is the IANA zone the weekly auction timetable is evaluated in.
	Timezone string

	// SessionDuration is how long a scheduled session stays open.
	SessionDuration time.Duration

	// ReservationWindow is how long a buyer's hold on a coin lasts.
	ReservationWindow time.Duration

	// PaymentWindow is the deadline for uploading payment proof after a bid.
	PaymentWindow time.Duration

	// ReleaseWindow is the (shorter) deadline for the seller to confirm
	// receipt after proof upload.
	ReleaseWindow time.Duration

	// SpendingCap bounds a buyer's confirmed plus in-flight spend per session.
	SpendingCap int64

	// CategoryReleaseLimit caps coins released into the pool per category.
	CategoryReleaseLimit int

	// AutoApproveCeiling is the accrued value at or below which a coin
	// pending approval is auto-approved before a session opens.
	AutoApproveCeiling int64

	// TimeoutPenaltyPercent is deducted from the buyer's current credit
	// score when a reservation or payment deadline lapses silently.
	TimeoutPenaltyPercent int64

	// CancelPenaltyPoints is the fixed deduction for a voluntary cancel.
	CancelPenaltyPoints int64

	// LateReleasePenaltyPoints is the fixed seller deduction for releasing
	// after the release deadline.
	LateReleasePenaltyPoints int64

	// ReferralCommissionPercent of the amount is paid to the referrer on a
	// buyer's first confirmed purchase.
	ReferralCommissionPercent int64
}

// SecurityConfig holds keys for admin access and at-rest encryption.
type SecurityConfig struct {
	AdminAPIKey string
	// FernetKey is a base64 fernet key used to encrypt bank details at rest.
	FernetKey string
}

// StorageConfig holds file storage locations.
type StorageConfig struct {
	// ArtifactDir is where uploaded payment proofs are written.
	ArtifactDir string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "2500"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/coin_auction.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://localhost",
			},
		},
		Auction: AuctionConfig{
			Timezone:                  getEnv("AUCTION_TIMEZONE", "Africa/Lagos"),
			SessionDuration:           getEnvMinutes("AUCTION_DURATION_MINUTES", 60),
			ReservationWindow:         getEnvMinutes("RESERVATION_TIMEOUT_MINUTES", 15),
			PaymentWindow:             getEnvMinutes("PAYMENT_TIMEOUT_MINUTES", 30),
			ReleaseWindow:             getEnvMinutes("RELEASE_TIMEOUT_MINUTES", 15),
			SpendingCap:               getEnvInt64("SESSION_SPENDING_CAP", 1_500_000),
			CategoryReleaseLimit:      int(getEnvInt64("CATEGORY_RELEASE_LIMIT", 100)),
			AutoApproveCeiling:        getEnvInt64("AUTO_APPROVE_CEILING", 100_000),
			TimeoutPenaltyPercent:     getEnvInt64("TIMEOUT_PENALTY_PERCENT", 20),
			CancelPenaltyPoints:       getEnvInt64("CANCEL_PENALTY_POINTS", 15),
			LateReleasePenaltyPoints:  getEnvInt64("LATE_RELEASE_PENALTY_POINTS", 10),
			ReferralCommissionPercent: getEnvInt64("REFERRAL_COMMISSION_PERCENT", 5),
		},
		Security: SecurityConfig{
			AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
			FernetKey:   getEnv("FERNET_KEY", ""),
		},
		Storage: StorageConfig{
			ArtifactDir: getEnv("ARTIFACT_DIR", "./data/artifacts"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt64 gets an integer environment variable or returns a default value
func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvMinutes gets a duration expressed as whole minutes
func getEnvMinutes(key string, defaultMinutes int64) time.Duration {
	return time.Duration(getEnvInt64(key, defaultMinutes)) * time.Minute
}
