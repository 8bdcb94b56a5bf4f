package model

import "time"

// Transaction status values. Transitions are strictly forward
// (pending_payment -> payment_uploaded -> confirmed); failed and
// cancelled are terminal.
const (
	TxStatusPendingPayment  = "pending_payment"
	TxStatusPaymentUploaded = "payment_uploaded"
	TxStatusConfirmed       = "confirmed"
	TxStatusFailed          = "failed"
	TxStatusCancelled       = "cancelled"
)

// Payment methods accepted on a bid. PaymentMethodBalance is used
// internally for recommitment, which settles from the account balance.
const (
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCrypto       = "cryptocurrency"
	PaymentMethodBalance      = "balance"
)

// Transaction is one buyer's attempt to acquire one coin. Amount is a
// snapshot of the coin's accrued value at bid time and never changes
// afterwards, protecting both sides from mid-flow accrual drift.
type Transaction struct {
	ID            string `json:"id"`
	BuyerID       string `json:"buyerId"`
	SellerID      string `json:"sellerId,omitempty"`
	CoinID        string `json:"coinId"`
	SessionID     string `json:"sessionId,omitempty"`
	Amount        int64  `json:"amount"`
	Plan          Plan   `json:"plan"`
	PaymentMethod string `json:"paymentMethod"`
	PaymentProof  string `json:"paymentProof,omitempty"`
	Status        string `json:"status"`

	PaymentDeadline time.Time `json:"paymentDeadline"`
	ReleaseDeadline time.Time `json:"releaseDeadline,omitempty"`

	ReferralCommission int64  `json:"referralCommission,omitempty"`
	ReferralPaidTo     string `json:"referralPaidTo,omitempty"`

	CreatedAt   time.Time `json:"createdAt"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
}

// IsPaymentExpired reports whether the payment deadline has passed.
func (t *Transaction) IsPaymentExpired(now time.Time) bool {
	return now.After(t.PaymentDeadline)
}

// IsReleaseExpired reports whether the seller-action deadline has
// passed. Always false before proof upload sets the deadline.
func (t *Transaction) IsReleaseExpired(now time.Time) bool {
	return !t.ReleaseDeadline.IsZero() && now.After(t.ReleaseDeadline)
}
