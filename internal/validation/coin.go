package validation

import (
	"fmt"
	"strings"

	"github.com/Dev-Arnold/coinBackend/internal/api/request"
	"github.com/Dev-Arnold/coinBackend/internal/model"
)

// ValidateAssignCoin validates an admin coin assignment request.
//
// Required fields:
//   - ownerId: Must be a valid UUID
//   - price: Must fall inside a category band
//   - plan: Must be a known plan
func ValidateAssignCoin(req request.AssignCoinRequest) error {
	if err := ValidateUUID(req.OwnerID); err != nil {
		return err
	}

	errors := make(map[string]string)
	if model.CategoryForPrice(req.Price) == "" {
		errors["price"] = fmt.Sprintf("price %d is outside all category bands", req.Price)
	}
	if !model.Plan(req.Plan).IsValid() {
		errors["plan"] = fmt.Sprintf("invalid plan: %s", req.Plan)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateListCoin validates a listing request. A zero price means the
// coin is listed at its currently accrued value.
func ValidateListCoin(req request.ListCoinRequest) error {
	errors := make(map[string]string)

	if req.Price < 0 {
		errors["price"] = "price cannot be negative"
	} else if req.Price > 0 && model.CategoryForPrice(req.Price) == "" {
		errors["price"] = fmt.Sprintf("price %d is outside all category bands", req.Price)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateRegister validates an account registration request.
//
// Required fields:
//   - firstName, lastName, email, phone: Must be non-empty
func ValidateRegister(req request.RegisterRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.FirstName) == "" {
		errors["firstName"] = "firstName is required"
	}
	if strings.TrimSpace(req.LastName) == "" {
		errors["lastName"] = "lastName is required"
	}
	if strings.TrimSpace(req.Email) == "" {
		errors["email"] = "email is required"
	} else if !strings.Contains(req.Email, "@") {
		errors["email"] = fmt.Sprintf("invalid email: %s", req.Email)
	}
	if strings.TrimSpace(req.Phone) == "" {
		errors["phone"] = "phone is required"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
