package validation

import (
	"fmt"
	"strings"

	"github.com/Dev-Arnold/coinBackend/internal/api/request"
	"github.com/Dev-Arnold/coinBackend/internal/model"
)

// ValidPaymentMethod contains the payment methods a buyer may select at
// reserve time. Balance settlement is internal-only and not accepted
// from the API.
var ValidPaymentMethod = map[string]bool{
	model.PaymentMethodBankTransfer: true,
	model.PaymentMethodCrypto:       true,
}

// ValidateReserve validates a reservation request.
//
// Required fields:
//   - coinId: Must be a valid UUID
//   - paymentMethod: Must be one of: bank_transfer, cryptocurrency
func ValidateReserve(req request.ReserveRequest) error {
	if err := ValidateUUID(req.CoinID); err != nil {
		return err
	}

	errors := make(map[string]string)
	if strings.TrimSpace(req.PaymentMethod) == "" {
		errors["paymentMethod"] = "paymentMethod is required"
	} else if !ValidPaymentMethod[req.PaymentMethod] {
		errors["paymentMethod"] = fmt.Sprintf("invalid payment method: %s", req.PaymentMethod)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateSubmitProof validates a payment proof submission.
//
// Required fields:
//   - proof: Must be non-empty
func ValidateSubmitProof(req request.SubmitProofRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Proof) == "" {
		errors["proof"] = "proof is required"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
