package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category ids of the built in menu.
const (
	MockCategoryBestsellers = "bestsellers"
	MockCategoryBurgers     = "burgers"
	MockCategoryDrinks      = "drinks"
	MockCategoryDesserts    = "desserts"
	MockCategoryPromotions  = "promotions"
)

var mockRemovable = []string{"cebola", "tomate", "alface", "molho", "picles"}

// MockSource serves the built in menu used when no backend is reachable.
type MockSource struct{}

func NewMockSource() *MockSource {
	return &MockSource{}
}

func (MockSource) GetRestaurant(context.Context) (*Restaurant, error) {
	return &Restaurant{ID: "mock", Name: "fcrazybossburgers", Address: "Vila Sanja", Logo: "🍔"}, nil
}

func (MockSource) GetCategories(context.Context) ([]Category, error) {
	return []Category{
		{ID: MockCategoryBestsellers, Name: "Mais Vendidos", IconName: "Star", DisplayOrder: 0},
		{ID: MockCategoryBurgers, Name: "Lanches", IconName: "Utensils", DisplayOrder: 1},
		{ID: MockCategoryDrinks, Name: "Bebidas", IconName: "Coffee", DisplayOrder: 2},
		{ID: MockCategoryDesserts, Name: "Sobremesas", IconName: "IceCream2", DisplayOrder: 3},
		{ID: MockCategoryPromotions, Name: "Promoções", IconName: "Tag", DisplayOrder: 4},
	}, nil
}

func (MockSource) GetProducts(context.Context) ([]Product, error) {
	original := decimal.RequireFromString("30.40")
	return []Product{
		{
			ID:          "1",
			Name:        "X-Burger Clássico",
			Description: "Hambúrguer artesanal, alface, tomate, cebola e molho especial",
			Price:       decimal.RequireFromString("18.90"),
			CategoryID:  MockCategoryBurgers,
			Category:    "Lanches",
			Image:       "🍔",
			Bestseller:  true,
			Ingredients: mockIngredients("Hambúrguer", "Alface", "Tomate", "Cebola", "Molho especial"),
		},
		{
			ID:          "2",
			Name:        "X-Bacon Supremo",
			Description: "Hambúrguer artesanal, bacon crocante, queijo cheddar, alface e tomate",
			Price:       decimal.RequireFromString("22.90"),
			CategoryID:  MockCategoryBurgers,
			Category:    "Lanches",
			Image:       "🥓",
			Bestseller:  true,
			Ingredients: mockIngredients("Hambúrguer", "Bacon", "Queijo cheddar", "Alface", "Tomate"),
		},
		{
			ID:          "3",
			Name:        "Coca-Cola Lata",
			Description: "Refrigerante Coca-Cola 350ml gelado",
			Price:       decimal.RequireFromString("5.00"),
			CategoryID:  MockCategoryDrinks,
			Category:    "Bebidas",
			Image:       "🥤",
			Ingredients: []Ingredient{},
		},
		{
			ID:          "4",
			Name:        "Sorvete Artesanal",
			Description: "Sorvete cremoso sabor chocolate ou baunilha",
			Price:       decimal.RequireFromString("8.50"),
			CategoryID:  MockCategoryDesserts,
			Category:    "Sobremesas",
			Image:       "🍦",
			Ingredients: []Ingredient{},
		},
		{
			ID:            "5",
			Name:          "Combo X-Burger",
			Description:   "X-Burger + Batata + Refrigerante",
			Price:         decimal.RequireFromString("24.90"),
			OriginalPrice: &original,
			CategoryID:    MockCategoryPromotions,
			Category:      "Promoções",
			Image:         "🍟",
			Ingredients:   mockIngredients("X-Burger", "Batata frita", "Refrigerante"),
		},
	}, nil
}

func (MockSource) GetComplements(context.Context) ([]Complement, error) {
	return []Complement{
		{ID: "1", Name: "Bacon Extra", Price: decimal.RequireFromString("4.50")},
		{ID: "2", Name: "Cheddar Cremoso", Price: decimal.RequireFromString("3.00")},
		{ID: "3", Name: "Queijo Suíço", Price: decimal.RequireFromString("3.50")},
		{ID: "4", Name: "Molho Especial", Price: decimal.RequireFromString("1.00")},
		{ID: "5", Name: "Alface Extra", Price: decimal.RequireFromString("1.50")},
		{ID: "6", Name: "Tomate Extra", Price: decimal.RequireFromString("1.50")},
	}, nil
}

// MockSnapshot assembles the built in menu as one snapshot.
func MockSnapshot(now time.Time) *Snapshot {
	ctx := context.Background()
	src := MockSource{}
	restaurant, _ := src.GetRestaurant(ctx)
	categories, _ := src.GetCategories(ctx)
	products, _ := src.GetProducts(ctx)
	complements, _ := src.GetComplements(ctx)
	return &Snapshot{
		Restaurant:  restaurant,
		Categories:  categories,
		Products:    products,
		Complements: complements,
		Origin:      OriginMock,
		FetchedAt:   now,
	}
}

func mockIngredients(names ...string) []Ingredient {
	out := make([]Ingredient, 0, len(names))
	for _, name := range names {
		out = append(out, Ingredient{Name: name, Removable: mockIsRemovable(name)})
	}
	return out
}

// mockIsRemovable matches "Molho especial" against "molho" by its first word.
func mockIsRemovable(name string) bool {
	lower := strings.ToLower(name)
	for _, candidate := range mockRemovable {
		if lower == candidate || strings.HasPrefix(lower, candidate+" ") {
			return true
		}
	}
	return false
}
