package orders

import (
	"github.com/angelmondragon/totem-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// OrderData is everything the kiosk knows about an order at submit time.
type OrderData struct {
	KioskID       string
	OrderType     enums.OrderType
	Customer      Customer
	PaymentMethod enums.PaymentMethod
	CardType      enums.CardType
	Lines         []Line
	Total         decimal.Decimal
	TicketCode    string
}

type Customer struct {
	Name         string
	CPF          string
	WantsReceipt bool
}

// Line is one cart line as stored with the order.
type Line struct {
	ProductID          string
	ProductName        string
	ProductPrice       decimal.Decimal
	Quantity           int
	Complements        []Complement
	RemovedIngredients []string
}

type Complement struct {
	Name  string
	Price decimal.Decimal
}

// CreatedOrder identifies a persisted order.
type CreatedOrder struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
}

// Stats summarises the current business day.
type Stats struct {
	TodayOrders    int64           `json:"today_orders"`
	TodayRevenue   decimal.Decimal `json:"today_revenue"`
	DineInOrders   int64           `json:"dine_in_orders"`
	TakeawayOrders int64           `json:"takeaway_orders"`
}
