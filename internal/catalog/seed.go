package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/totem-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeedResult counts the rows written by Seed.
type SeedResult struct {
	Skipped     bool
	Categories  int
	Products    int
	Complements int
}

// Seed writes the built in menu into an empty catalog. A catalog that already
// has products is left untouched.
func Seed(ctx context.Context, db *gorm.DB) (SeedResult, error) {
	var existing int64
	if err := db.WithContext(ctx).Model(&models.Product{}).Count(&existing).Error; err != nil {
		return SeedResult{}, fmt.Errorf("count products: %w", err)
	}
	if existing > 0 {
		return SeedResult{Skipped: true}, nil
	}

	snapshot := MockSnapshot(time.Now().UTC())
	result := SeedResult{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r := snapshot.Restaurant; r != nil {
			row := models.Restaurant{Name: r.Name, Address: r.Address, Logo: r.Logo, IsActive: true}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create restaurant: %w", err)
			}
		}

		categoryIDs := make(map[string]uuid.UUID, len(snapshot.Categories))
		for _, c := range snapshot.Categories {
			row := models.Category{Name: c.Name, IconName: c.IconName, DisplayOrder: c.DisplayOrder, IsActive: true}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create category %s: %w", c.Name, err)
			}
			categoryIDs[c.ID] = row.ID
			result.Categories++
		}

		for _, p := range snapshot.Products {
			categoryID, ok := categoryIDs[p.CategoryID]
			if !ok {
				return fmt.Errorf("product %s references unknown category %s", p.Name, p.CategoryID)
			}
			row := models.Product{
				Name:          p.Name,
				Description:   p.Description,
				Price:         p.Price,
				OriginalPrice: p.OriginalPrice,
				CategoryID:    categoryID,
				Image:         p.Image,
				IsBestseller:  p.Bestseller,
				IsActive:      true,
			}
			for i, ing := range p.Ingredients {
				row.Ingredients = append(row.Ingredients, models.ProductIngredient{
					IngredientName: ing.Name,
					IsRemovable:    ing.Removable,
					Position:       i,
				})
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create product %s: %w", p.Name, err)
			}
			result.Products++
		}

		for _, c := range snapshot.Complements {
			row := models.Complement{Name: c.Name, Price: c.Price, IsActive: true}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create complement %s: %w", c.Name, err)
			}
			result.Complements++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	return result, nil
}
