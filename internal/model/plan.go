package model

import "time"

// Plan is a coin's investment duration tier. Each plan carries a fixed
// total-return percentage paid out linearly over the plan duration.
type Plan string

const (
	// Plan3Mins is a short test plan measured in minutes instead of days.
	Plan3Mins  Plan = "3mins"
	Plan5Days  Plan = "5days"
	Plan10Days Plan = "10days"
	Plan30Days Plan = "30days"
)

// ValidPlans lists every plan accepted by the system.
var ValidPlans = []Plan{Plan3Mins, Plan5Days, Plan10Days, Plan30Days}

// IsValid reports whether p is a known plan.
func (p Plan) IsValid() bool {
	for _, v := range ValidPlans {
		if p == v {
			return true
		}
	}
	return false
}

// ProfitPercent returns the total return percentage for the plan over
// its full duration.
func (p Plan) ProfitPercent() int64 {
	switch p {
	case Plan3Mins:
		return 35
	case Plan5Days:
		return 53
	case Plan10Days:
		return 107
	case Plan30Days:
		return 215
	default:
		return 0
	}
}

// DurationUnits returns the number of plan time units the plan runs for.
func (p Plan) DurationUnits() int64 {
	switch p {
	case Plan3Mins:
		return 3
	case Plan5Days:
		return 5
	case Plan10Days:
		return 10
	case Plan30Days:
		return 30
	default:
		return 0
	}
}

// Unit returns the length of one plan time unit. The 3mins test plan
// accrues per minute, all other plans accrue per day.
func (p Plan) Unit() time.Duration {
	if p == Plan3Mins {
		return time.Minute
	}
	return 24 * time.Hour
}

// Category is a price band used to group coins in the auction pool.
type Category string

const (
	CategoryA Category = "Category A"
	CategoryB Category = "Category B"
	CategoryC Category = "Category C"
	CategoryD Category = "Category D"
)

// Categories lists every price band in ascending order.
var Categories = []Category{CategoryA, CategoryB, CategoryC, CategoryD}

// CategoryForPrice maps a price in minor units to its band. Prices
// outside all bands return an empty category.
func CategoryForPrice(price int64) Category {
	switch {
	case price >= 10_000 && price <= 100_000:
		return CategoryA
	case price > 100_000 && price <= 250_000:
		return CategoryB
	case price > 250_000 && price <= 500_000:
		return CategoryC
	case price > 500_000 && price <= 1_000_000:
		return CategoryD
	default:
		return ""
	}
}
