package model

import (
	"math"
	"time"
)

// Coin status values. A coin's status tracks its position in the trade
// lifecycle; is_locked and is_in_auction are orthogonal flags.
const (
	CoinStatusLocked          = "locked"
	CoinStatusAvailable       = "available"
	CoinStatusReserved        = "reserved"
	CoinStatusInAuction       = "in_auction"
	CoinStatusPendingSale     = "pending_sale"
	CoinStatusPendingApproval = "pending_approval"
	CoinStatusMatured         = "matured"
	CoinStatusSold            = "sold"
)

// Coin is a tradeable, time-accruing position owned by a participant.
// Price is the principal in minor units; value grows linearly over the
// plan duration up to the plan's total return, then stays flat.
type Coin struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"ownerId"`
	SellerID      string    `json:"sellerId,omitempty"`
	BoughtFromID  string    `json:"boughtFromId,omitempty"`
	Price         int64     `json:"price"`
	Plan          Plan      `json:"plan"`
	ProfitPercent int64     `json:"profitPercent"`
	Category      Category  `json:"category"`
	Status        string    `json:"status"`
	IsLocked      bool      `json:"isLocked"`
	IsApproved    bool      `json:"isApproved"`
	IsInAuction   bool      `json:"isInAuction"`
	IsBonus       bool      `json:"isBonus"`
	PurchaseDate  time.Time `json:"purchaseDate"`

	// Reservation fields are set while a buyer holds the coin during a
	// purchase attempt and cleared when the attempt resolves.
	ReservedBy         string    `json:"reservedBy,omitempty"`
	ReservedAt         time.Time `json:"reservedAt,omitempty"`
	ReservationExpires time.Time `json:"reservationExpires,omitempty"`
	ReservedAmount     int64     `json:"reservedAmount,omitempty"`

	LastProfitUpdate time.Time `json:"lastProfitUpdate"`
	CreatedAt        time.Time `json:"createdAt"`
}

// startDate returns the accrual clock start.
func (c *Coin) startDate() time.Time {
	if !c.PurchaseDate.IsZero() {
		return c.PurchaseDate
	}
	return c.CreatedAt
}

// elapsedUnits returns whole plan units elapsed since the accrual clock
// start, floored, without clamping to the plan duration.
func (c *Coin) elapsedUnits(now time.Time) int64 {
	start := c.startDate()
	if start.IsZero() || now.Before(start) {
		return 0
	}
	return int64(now.Sub(start) / c.Plan.Unit())
}

// CurrentValue computes the coin's accrued value at the given time.
// Elapsed time is floored to whole plan units and clamped to the plan
// duration, so the result is monotonically non-decreasing and never
// exceeds the full-maturity value. Floor keeps the payout reproducible
// in integer minor units.
func (c *Coin) CurrentValue(now time.Time) int64 {
	duration := c.Plan.DurationUnits()
	if duration == 0 {
		return c.Price
	}
	elapsed := c.elapsedUnits(now)
	if elapsed > duration {
		elapsed = duration
	}
	growth := float64(c.ProfitPercent) / float64(duration) / 100.0
	return int64(math.Floor(float64(c.Price) * (1 + growth*float64(elapsed))))
}

// HasMatured reports whether the coin has completed its plan duration.
// Bonus coins are matured from the moment they are created.
func (c *Coin) HasMatured(now time.Time) bool {
	if c.IsBonus {
		return true
	}
	if c.startDate().IsZero() {
		return false
	}
	return c.elapsedUnits(now) >= c.Plan.DurationUnits()
}

// IsReserved reports whether a buyer currently holds a live reservation
// on the coin.
func (c *Coin) IsReserved(now time.Time) bool {
	return c.ReservedBy != "" && now.Before(c.ReservationExpires)
}

// ProfitInfo summarises a coin's accrual state for API responses.
type ProfitInfo struct {
	CurrentValue  int64   `json:"currentValue"`
	Profit        int64   `json:"profit"`
	ProfitPercent float64 `json:"profitPercent"`
	IsMatured     bool    `json:"isMatured"`
	IsBonus       bool    `json:"isBonus"`
	CanSell       bool    `json:"canSell"`
}

// ProfitInfo computes the coin's current value, absolute profit and
// profit percentage (two decimal places) at the given time.
func (c *Coin) ProfitInfo(now time.Time) ProfitInfo {
	value := c.CurrentValue(now)
	profit := value - c.Price
	var pct float64
	if c.Price > 0 {
		pct = math.Round(float64(profit)/float64(c.Price)*100*100) / 100
	}
	matured := c.HasMatured(now)
	return ProfitInfo{
		CurrentValue:  value,
		Profit:        profit,
		ProfitPercent: pct,
		IsMatured:     matured,
		IsBonus:       c.IsBonus,
		CanSell:       matured && !c.IsLocked,
	}
}

// CoinResponse is a coin enriched with its live accrual figures.
type CoinResponse struct {
	Coin
	ProfitInfo
}

// PortfolioSummary aggregates a participant's holdings for the
// portfolio endpoint.
type PortfolioSummary struct {
	TotalInvestment   int64   `json:"totalInvestment"`
	TotalCurrentValue int64   `json:"totalCurrentValue"`
	TotalProfit       int64   `json:"totalProfit"`
	ProfitPercent     float64 `json:"profitPercent"`
}
