package model

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// BlockThreshold is the credit score at or below which a participant is
// blocked from trading. Blocking is a one-way latch: a later score
// above the threshold does not unblock the account.
const BlockThreshold = 30

// User is a marketplace participant. Balance and ReferralEarnings are
// minor units. CreditScore is clamped to [0,100].
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`

	Balance     int64 `json:"balance"`
	CreditScore int64 `json:"creditScore"`
	IsBlocked   bool  `json:"isBlocked"`

	ReferralCode     string `json:"referralCode"`
	ReferredByID     string `json:"referredBy,omitempty"`
	ReferralEarnings int64  `json:"referralEarnings"`

	BankDetails *BankDetails `json:"bankDetails,omitempty"`
	USDTWallet  string       `json:"usdtWallet,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// BankDetails is a participant's settlement account. Stored encrypted
// at rest; only decrypted when handed to a counterparty at reserve
// time.
type BankDetails struct {
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
}

// SellerContact is the subset of a seller's details shown to a buyer
// holding a reservation, so payment can be made out of band.
type SellerContact struct {
	Name        string       `json:"name"`
	Phone       string       `json:"phone"`
	BankDetails *BankDetails `json:"bankDetails,omitempty"`
	USDTWallet  string       `json:"usdtWallet,omitempty"`
}
