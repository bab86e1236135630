package session

import (
	"time"

	"github.com/angelmondragon/totem-backend/internal/pricing"
	"github.com/angelmondragon/totem-backend/pkg/cpf"
	"github.com/angelmondragon/totem-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Effective screens rendered over the regular flow.
const (
	OverlayError = "error"
	OverlayAdmin = "admin"
)

// View is the read model a kiosk front end renders.
type View struct {
	Session
	EffectiveScreen   string `json:"effective_screen"`
	CartTotal         string `json:"cart_total"`
	CartTotalLabel    string `json:"cart_total_label"`
	ItemCount         int    `json:"item_count"`
	CustomizePrice    string `json:"customize_price,omitempty"`
	CPFMask           string `json:"cpf_mask"`
	CPFStatus         string `json:"cpf_status"`
	CanConfirmCPF     bool   `json:"can_confirm_cpf"`
	ReadyToSubmit     bool   `json:"ready_to_submit"`
	AutoRetry         bool   `json:"auto_retry"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
	UpdatedAt         string `json:"updated_at"`
}

// EffectiveScreen applies overlay priority: system error, then admin, then
// the regular screen.
func EffectiveScreen(s Session) string {
	switch {
	case s.SystemError != "":
		return OverlayError
	case s.ShowAdmin:
		return OverlayAdmin
	}
	return s.Screen.String()
}

func buildView(s Session, touched time.Time) View {
	total := pricing.CartTotal(s.Cart)
	v := View{
		Session:         s,
		EffectiveScreen: EffectiveScreen(s),
		CartTotal:       total.StringFixed(2),
		CartTotalLabel:  pricing.FormatBRL(total),
		ItemCount:       pricing.ItemCount(s.Cart),
		CPFMask:         cpf.Mask(s.Customer.CPF),
		CPFStatus:       string(cpf.Check(s.Customer.CPF)),
		CanConfirmCPF:   cpf.IsComplete(s.Customer.CPF) && cpf.Validate(s.Customer.CPF),
		ReadyToSubmit:   readyToSubmit(&s),
		UpdatedAt:       touched.UTC().Format(time.RFC3339),
	}
	if s.SelectedProduct != nil {
		unit := pricing.ItemPrice(s.SelectedProduct.Price, s.ProductComplements)
		v.CustomizePrice = pricing.LineTotal(unit, s.Quantity).StringFixed(2)
	}
	if s.SystemError != "" {
		v.AutoRetry = s.SystemError.AutoRetry() && !s.AutoRetryPaused
		if s.SystemError == enums.SystemErrorNetwork {
			v.RetryAfterSeconds = enums.RetryAfterSeconds
		}
	}
	return v
}

// Total is a convenience for callers holding a Session copy.
func (s Session) Total() decimal.Decimal {
	return pricing.CartTotal(s.Cart)
}
