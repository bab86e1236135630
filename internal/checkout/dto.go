package checkout

import (
	"time"

	"github.com/angelmondragon/totem-backend/pkg/enums"
)

// Confirmation is what the kiosk shows once an order is submitted.
type Confirmation struct {
	OrderID        string               `json:"order_id,omitempty"`
	OrderNumber    string               `json:"order_number,omitempty"`
	DisplayNumber  string               `json:"display_number"`
	TicketCode     string               `json:"ticket_code"`
	TicketStrategy enums.TicketStrategy `json:"ticket_strategy"`
	OrderType      enums.OrderType      `json:"order_type"`
	OrderTypeLabel string               `json:"order_type_label"`
	CustomerName   string               `json:"customer_name"`
	CPF            string               `json:"cpf"`
	PaymentMethod  enums.PaymentMethod  `json:"payment_method"`
	CardType       enums.CardType       `json:"card_type,omitempty"`
	PaymentLabel   string               `json:"payment_label"`
	Total          string               `json:"total"`
	TotalLabel     string               `json:"total_label"`
	ItemCount      int                  `json:"item_count"`
	Persisted      bool                 `json:"persisted"`
	Queued         bool                 `json:"queued"`
	SubmittedAt    time.Time            `json:"submitted_at"`
}
