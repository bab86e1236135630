// Package session holds the per kiosk order aggregate and the state machine
// that moves a customer from the welcome screen to payment.
package session

import (
	"github.com/angelmondragon/totem-backend/internal/catalog"
	"github.com/angelmondragon/totem-backend/internal/pricing"
	"github.com/angelmondragon/totem-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CartLine is a product frozen with its customization at add time.
type CartLine struct {
	ID                 string               `json:"id"`
	ProductID          string               `json:"product_id"`
	Name               string               `json:"name"`
	Description        string               `json:"description"`
	Image              string               `json:"image"`
	Category           string               `json:"category"`
	Price              decimal.Decimal      `json:"price"`
	Complements        []catalog.Complement `json:"complements"`
	RemovedIngredients []string             `json:"removed_ingredients"`
	Quantity           int                  `json:"quantity"`
	ItemPrice          decimal.Decimal      `json:"item_price"`
	TotalPrice         decimal.Decimal      `json:"total_price"`
}

func (l CartLine) UnitPrice() decimal.Decimal { return l.ItemPrice }
func (l CartLine) Units() int                 { return l.Quantity }

func newCartLine(id string, p catalog.Product, complements []catalog.Complement, removed []string, quantity int) CartLine {
	line := CartLine{
		ID:                 id,
		ProductID:          p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Image:              p.Image,
		Category:           p.Category,
		Price:              p.Price,
		Complements:        append([]catalog.Complement{}, complements...),
		RemovedIngredients: append([]string{}, removed...),
		ItemPrice:          pricing.ItemPrice(p.Price, complements),
	}
	line.setQuantity(quantity)
	return line
}

// setQuantity keeps TotalPrice equal to ItemPrice times Quantity.
func (l *CartLine) setQuantity(quantity int) {
	l.Quantity = quantity
	l.TotalPrice = pricing.LineTotal(l.ItemPrice, quantity)
}

// product rebuilds the catalog product a line was made from.
func (l CartLine) product() catalog.Product {
	return catalog.Product{
		ID:          l.ProductID,
		Name:        l.Name,
		Description: l.Description,
		Image:       l.Image,
		Category:    l.Category,
		Price:       l.Price,
		Ingredients: []catalog.Ingredient{},
	}
}

type CustomerData struct {
	Name         string `json:"name"`
	CPF          string `json:"cpf"`
	WantsReceipt bool   `json:"wants_receipt"`
}

// Session is the whole order aggregate for one kiosk. It is only mutated
// through Machine.
type Session struct {
	Screen             enums.Screen            `json:"screen"`
	OrderType          enums.OrderType         `json:"order_type"`
	SelectedCategory   string                  `json:"selected_category"`
	SelectedProduct    *catalog.Product        `json:"selected_product,omitempty"`
	ProductComplements []catalog.Complement    `json:"product_complements"`
	RemovedIngredients []string                `json:"removed_ingredients"`
	CustomizationStep  enums.CustomizationStep `json:"customization_step"`
	Quantity           int                     `json:"quantity"`
	EditingLineID      string                  `json:"editing_line_id,omitempty"`
	Cart               []CartLine              `json:"cart"`
	Customer           CustomerData            `json:"customer"`
	InputStep          enums.InputStep         `json:"input_step"`
	PaymentMethod      enums.PaymentMethod     `json:"payment_method"`
	CardType           enums.CardType          `json:"card_type"`
	ShowAdmin          bool                    `json:"show_admin"`
	SystemError        enums.SystemError       `json:"system_error"`
	AutoRetryPaused    bool                    `json:"auto_retry_paused"`
	Loading            bool                    `json:"loading"`
}

func newSession() Session {
	return Session{
		Screen:             enums.ScreenWelcome,
		ProductComplements: []catalog.Complement{},
		RemovedIngredients: []string{},
		CustomizationStep:  enums.CustomizationStepComplements,
		Quantity:           1,
		Cart:               []CartLine{},
		InputStep:          enums.InputStepReceipt,
	}
}

func (s *Session) clearSelection() {
	s.SelectedProduct = nil
	s.ProductComplements = []catalog.Complement{}
	s.RemovedIngredients = []string{}
	s.CustomizationStep = enums.CustomizationStepComplements
	s.Quantity = 1
	s.EditingLineID = ""
}

func (s *Session) lineIndex(id string) int {
	for i, line := range s.Cart {
		if line.ID == id {
			return i
		}
	}
	return -1
}

// clone returns a deep copy safe to hand out of the machine lock.
func (s Session) clone() Session {
	out := s
	if s.SelectedProduct != nil {
		p := *s.SelectedProduct
		out.SelectedProduct = &p
	}
	out.ProductComplements = append([]catalog.Complement{}, s.ProductComplements...)
	out.RemovedIngredients = append([]string{}, s.RemovedIngredients...)
	out.Cart = make([]CartLine, len(s.Cart))
	for i, line := range s.Cart {
		line.Complements = append([]catalog.Complement{}, line.Complements...)
		line.RemovedIngredients = append([]string{}, line.RemovedIngredients...)
		out.Cart[i] = line
	}
	return out
}
