package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Origin records where a snapshot was loaded from.
type Origin string

const (
	OriginDatabase Origin = "database"
	OriginCache    Origin = "cache"
	OriginMock     Origin = "mock"
)

type Restaurant struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Logo    string `json:"logo"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	IconName     string `json:"icon_name"`
	DisplayOrder int    `json:"display_order"`
}

type Ingredient struct {
	Name      string `json:"name"`
	Removable bool   `json:"removable"`
}

// Product is immutable for the lifetime of a snapshot.
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	CategoryID    string           `json:"category_id"`
	Category      string           `json:"category"`
	Image         string           `json:"image"`
	Bestseller    bool             `json:"bestseller"`
	Ingredients   []Ingredient     `json:"ingredients"`
}

// RemovableIngredients lists the ingredients a customer may opt out of.
func (p Product) RemovableIngredients() []Ingredient {
	out := make([]Ingredient, 0, len(p.Ingredients))
	for _, ing := range p.Ingredients {
		if ing.Removable {
			out = append(out, ing)
		}
	}
	return out
}

// IsRemovable reports whether name is one of the product's removable ingredients.
func (p Product) IsRemovable(name string) bool {
	for _, ing := range p.Ingredients {
		if ing.Removable && ing.Name == name {
			return true
		}
	}
	return false
}

type Complement struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Snapshot is one consistent view of the menu.
type Snapshot struct {
	Restaurant  *Restaurant  `json:"restaurant,omitempty"`
	Categories  []Category   `json:"categories"`
	Products    []Product    `json:"products"`
	Complements []Complement `json:"complements"`
	Origin      Origin       `json:"origin"`
	FetchedAt   time.Time    `json:"fetched_at"`
}

// Empty reports whether the snapshot has nothing to sell.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Products) == 0
}

func (s *Snapshot) FindProduct(id string) (Product, bool) {
	if s == nil {
		return Product{}, false
	}
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func (s *Snapshot) FindComplement(id string) (Complement, bool) {
	if s == nil {
		return Complement{}, false
	}
	for _, c := range s.Complements {
		if c.ID == id {
			return c, true
		}
	}
	return Complement{}, false
}

func (s *Snapshot) FindCategory(id string) (Category, bool) {
	if s == nil {
		return Category{}, false
	}
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// DefaultCategory picks the category named bestsellerName when present,
// otherwise the first category.
func (s *Snapshot) DefaultCategory(bestsellerName string) (Category, bool) {
	if s == nil || len(s.Categories) == 0 {
		return Category{}, false
	}
	for _, c := range s.Categories {
		if strings.EqualFold(c.Name, bestsellerName) {
			return c, true
		}
	}
	return s.Categories[0], true
}

// ProductsForCategory returns every bestseller for the bestseller category and
// the products whose category name matches otherwise.
func (s *Snapshot) ProductsForCategory(categoryID, bestsellerName string) []Product {
	category, ok := s.FindCategory(categoryID)
	if !ok {
		return []Product{}
	}
	out := []Product{}
	bestsellers := strings.EqualFold(category.Name, bestsellerName)
	for _, p := range s.Products {
		switch {
		case bestsellers && p.Bestseller:
			out = append(out, p)
		case !bestsellers && (p.CategoryID == category.ID || p.Category == category.Name):
			out = append(out, p)
		}
	}
	return out
}
