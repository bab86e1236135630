package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Restaurant holds the branding shown on the welcome screen.
type Restaurant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Address   string    `gorm:"column:address"`
	Logo      string    `gorm:"column:logo"`
	Phone     *string   `gorm:"column:phone"`
	Email     *string   `gorm:"column:email"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Restaurant) TableName() string { return "restaurants" }

func (r *Restaurant) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Category groups products on the menu rail.
type Category struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	IconName     string    `gorm:"column:icon_name"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Category) TableName() string { return "categories" }

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Product is a sellable menu entry.
type Product struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name          string              `gorm:"column:name;not null"`
	Description   string              `gorm:"column:description"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(10,2);not null"`
	OriginalPrice *decimal.Decimal    `gorm:"column:original_price;type:numeric(10,2)"`
	CategoryID    uuid.UUID           `gorm:"column:category_id;type:uuid;not null"`
	Category      *Category           `gorm:"foreignKey:CategoryID"`
	Image         string              `gorm:"column:image"`
	IsBestseller  bool                `gorm:"column:is_bestseller;not null;default:false"`
	IsActive      bool                `gorm:"column:is_active;not null;default:true"`
	Ingredients   []ProductIngredient `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductIngredient lists a base ingredient and whether customers may drop it.
type ProductIngredient struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	IngredientName string    `gorm:"column:ingredient_name;not null"`
	IsRemovable    bool      `gorm:"column:is_removable;not null"`
	Position       int       `gorm:"column:position;not null;default:0"`
}

func (ProductIngredient) TableName() string { return "product_ingredients" }

func (i *ProductIngredient) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Complement is a paid add-on offered during customization.
type Complement struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Complement) TableName() string { return "complements" }

func (c *Complement) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
