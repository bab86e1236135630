package enums

import "fmt"

// PaymentMethod is the settlement option picked at the kiosk.
type PaymentMethod string

const (
	PaymentMethodCardCredit PaymentMethod = "card_credit"
	PaymentMethodCardDebit  PaymentMethod = "card_debit"
	PaymentMethodPIX        PaymentMethod = "pix"
	PaymentMethodCash       PaymentMethod = "cash"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCardCredit,
	PaymentMethodCardDebit,
	PaymentMethodPIX,
	PaymentMethodCash,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}

// IsCard reports whether the method requires a card sub-type.
func (p PaymentMethod) IsCard() bool {
	return p == PaymentMethodCardCredit || p == PaymentMethodCardDebit
}

// CardType derives the card sub-type implied by a card method.
func (p PaymentMethod) CardType() CardType {
	switch p {
	case PaymentMethodCardCredit:
		return CardTypeCredit
	case PaymentMethodCardDebit:
		return CardTypeDebit
	}
	return ""
}

// Label returns the customer facing name shown on the kiosk.
func (p PaymentMethod) Label() string {
	switch p {
	case PaymentMethodCardCredit:
		return "Cartão de Crédito"
	case PaymentMethodCardDebit:
		return "Cartão de Débito"
	case PaymentMethodPIX:
		return "PIX"
	case PaymentMethodCash:
		return "Dinheiro"
	}
	return ""
}
