package catalog

import (
	"context"
	"errors"

	"github.com/angelmondragon/totem-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Source fetches the menu from a backing store.
type Source interface {
	GetRestaurant(ctx context.Context) (*Restaurant, error)
	GetCategories(ctx context.Context) ([]Category, error)
	GetProducts(ctx context.Context) ([]Product, error)
	GetComplements(ctx context.Context) ([]Complement, error)
}

// Repository reads active catalog rows through GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// GetRestaurant returns the active restaurant or nil when none is configured.
func (r *Repository) GetRestaurant(ctx context.Context) (*Restaurant, error) {
	var row models.Restaurant
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return restaurantFromModel(row), nil
}

func (r *Repository) GetCategories(ctx context.Context) ([]Category, error) {
	var rows []models.Category
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, Category{
			ID:           row.ID.String(),
			Name:         row.Name,
			IconName:     row.IconName,
			DisplayOrder: row.DisplayOrder,
		})
	}
	return out, nil
}

// GetProducts loads active products with their category name and ingredients.
func (r *Repository) GetProducts(ctx context.Context) ([]Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, productFromModel(row))
	}
	return out, nil
}

func (r *Repository) GetComplements(ctx context.Context) ([]Complement, error) {
	var rows []models.Complement
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Complement, 0, len(rows))
	for _, row := range rows {
		out = append(out, Complement{ID: row.ID.String(), Name: row.Name, Price: row.Price})
	}
	return out, nil
}

func restaurantFromModel(row models.Restaurant) *Restaurant {
	out := &Restaurant{
		ID:      row.ID.String(),
		Name:    row.Name,
		Address: row.Address,
		Logo:    row.Logo,
	}
	if row.Phone != nil {
		out.Phone = *row.Phone
	}
	if row.Email != nil {
		out.Email = *row.Email
	}
	return out
}

func productFromModel(row models.Product) Product {
	p := Product{
		ID:            row.ID.String(),
		Name:          row.Name,
		Description:   row.Description,
		Price:         row.Price,
		OriginalPrice: row.OriginalPrice,
		CategoryID:    row.CategoryID.String(),
		Image:         row.Image,
		Bestseller:    row.IsBestseller,
		Ingredients:   make([]Ingredient, 0, len(row.Ingredients)),
	}
	if row.Category != nil {
		p.Category = row.Category.Name
	}
	for _, ing := range row.Ingredients {
		p.Ingredients = append(p.Ingredients, Ingredient{Name: ing.IngredientName, Removable: ing.IsRemovable})
	}
	return p
}
