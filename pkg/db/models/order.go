package models

import (
	"time"

	"github.com/angelmondragon/totem-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is a kiosk order as persisted for the kitchen.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber   string              `gorm:"column:order_number;not null;uniqueIndex"`
	KioskID       string              `gorm:"column:kiosk_id"`
	OrderType     enums.OrderType     `gorm:"column:order_type;not null"`
	CustomerName  *string             `gorm:"column:customer_name"`
	CustomerCPF   *string             `gorm:"column:customer_cpf"`
	WantsReceipt  bool                `gorm:"column:wants_receipt;not null;default:false"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	CardType      *enums.CardType     `gorm:"column:card_type"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	TicketCode    string              `gorm:"column:ticket_code"`
	Status        enums.OrderStatus   `gorm:"column:status;not null;default:pending"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is one cart line frozen at submit time.
type OrderItem struct {
	ID                 uuid.UUID                    `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID                    `gorm:"column:order_id;type:uuid;not null"`
	ProductID          string                       `gorm:"column:product_id;not null"`
	ProductName        string                       `gorm:"column:product_name;not null"`
	ProductPrice       decimal.Decimal              `gorm:"column:product_price;type:numeric(10,2);not null"`
	Quantity           int                          `gorm:"column:quantity;not null"`
	Complements        []OrderItemComplement        `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE"`
	RemovedIngredients []OrderItemRemovedIngredient `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time                    `gorm:"column:created_at;autoCreateTime"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type OrderItemComplement struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderItemID     uuid.UUID       `gorm:"column:order_item_id;type:uuid;not null"`
	ComplementName  string          `gorm:"column:complement_name;not null"`
	ComplementPrice decimal.Decimal `gorm:"column:complement_price;type:numeric(10,2);not null"`
}

func (OrderItemComplement) TableName() string { return "order_item_complements" }

func (c *OrderItemComplement) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type OrderItemRemovedIngredient struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderItemID    uuid.UUID `gorm:"column:order_item_id;type:uuid;not null"`
	IngredientName string    `gorm:"column:ingredient_name;not null"`
}

func (OrderItemRemovedIngredient) TableName() string { return "order_item_removed_ingredients" }

func (r *OrderItemRemovedIngredient) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// SystemSetting is a key/value row for runtime counters and toggles.
type SystemSetting struct {
	Key         string    `gorm:"column:key;primaryKey"`
	Value       string    `gorm:"column:value;not null"`
	Description string    `gorm:"column:description"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (SystemSetting) TableName() string { return "system_settings" }
