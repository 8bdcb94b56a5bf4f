package request

// AssignCoinRequest is the admin operation that awards a coin to a
// participant. Price is in minor units.
type AssignCoinRequest struct {
	OwnerID string `json:"ownerId"`
	Price   int64  `json:"price"`
	Plan    string `json:"plan"`
	IsBonus bool   `json:"isBonus"`
}

// ListCoinRequest puts an approved coin up for the next session. A zero
// price lists at the coin's currently accrued value; CollectProfit
// additionally pays accrued profit into the owner's balance and
// reprices at the principal.
type ListCoinRequest struct {
	Price         int64 `json:"price"`
	CollectProfit bool  `json:"collectProfit"`
}

// RegisterRequest creates a participant account. ReferralCode is
// optional and links the account to its referrer.
type RegisterRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	ReferralCode string `json:"referralCode"`
}

// SettlementDetailsRequest updates a participant's payout endpoints.
type SettlementDetailsRequest struct {
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
	USDTWallet    string `json:"usdtWallet"`
}

// BlockRequest toggles the trading block on an account.
type BlockRequest struct {
	Blocked bool `json:"blocked"`
}
