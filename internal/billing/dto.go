package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/practice-gateway/internal"
)

type PaymentMethodDTO struct {
	Type        PaymentType `json:"type" validate:"required,oneof=credit_card boleto pix"`
	Last4       string      `json:"last4" validate:"required_if=Type credit_card,omitempty,len=4,numeric"`
	Brand       string      `json:"brand" validate:"required_if=Type credit_card,omitempty,max=30"`
	ExpiryMonth int         `json:"expiryMonth" validate:"required_if=Type credit_card,omitempty,min=1,max=12"`
	ExpiryYear  int         `json:"expiryYear" validate:"required_if=Type credit_card,omitempty,min=2000,max=2100"`
}

// check rejects cards that have already expired.
func (d PaymentMethodDTO) check(now time.Time) error {
	if d.Type != PaymentCreditCard {
		return nil
	}
	if d.ExpiryYear < now.Year() || (d.ExpiryYear == now.Year() && d.ExpiryMonth < int(now.Month())) {
		return internal.NewValidationFieldError("expiryYear", "card has expired", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (d PaymentMethodDTO) toPaymentMethod() PaymentMethod {
	pm := PaymentMethod{
		ID:        "pm_" + uuid.NewString(),
		Type:      d.Type,
		IsDefault: true,
	}
	if d.Type == PaymentCreditCard {
		pm.Last4 = d.Last4
		pm.Brand = d.Brand
		pm.ExpiryMonth = d.ExpiryMonth
		pm.ExpiryYear = d.ExpiryYear
	}
	return pm
}
