package catalog

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/angelmondragon/totem-backend/pkg/db/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(
		&models.Restaurant{},
		&models.Category{},
		&models.Product{},
		&models.ProductIngredient{},
		&models.Complement{},
	))
	return conn
}

func TestSeedThenRead(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	result, err := Seed(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Categories)
	assert.Equal(t, 5, result.Products)
	assert.Equal(t, 6, result.Complements)

	again, err := Seed(ctx, db)
	require.NoError(t, err)
	assert.True(t, again.Skipped)

	repo := NewRepository(db)

	restaurant, err := repo.GetRestaurant(ctx)
	require.NoError(t, err)
	require.NotNil(t, restaurant)
	assert.Equal(t, "fcrazybossburgers", restaurant.Name)

	categories, err := repo.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 5)
	assert.Equal(t, "Mais Vendidos", categories[0].Name)
	assert.Equal(t, "Promoções", categories[4].Name)

	complements, err := repo.GetComplements(ctx)
	require.NoError(t, err)
	require.Len(t, complements, 6)
	assert.Equal(t, "Alface Extra", complements[0].Name)

	products, err := repo.GetProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 5)

	var classic Product
	for _, p := range products {
		if p.Name == "X-Burger Clássico" {
			classic = p
		}
	}
	require.NotEmpty(t, classic.ID)
	assert.Equal(t, "Lanches", classic.Category)
	assert.True(t, classic.Price.Equal(decimal.RequireFromString("18.90")))
	require.Len(t, classic.Ingredients, 5)
	assert.Equal(t, "Hambúrguer", classic.Ingredients[0].Name)
	assert.False(t, classic.Ingredients[0].Removable)
	assert.True(t, classic.IsRemovable("Cebola"))
}

func TestRepositorySkipsInactiveRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := Seed(ctx, db)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Complement{}).Where("name = ?", "Bacon Extra").Update("is_active", false).Error)
	require.NoError(t, db.Model(&models.Product{}).Where("name = ?", "Coca-Cola Lata").Update("is_active", false).Error)

	repo := NewRepository(db)
	complements, err := repo.GetComplements(ctx)
	require.NoError(t, err)
	assert.Len(t, complements, 5)

	products, err := repo.GetProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 4)
}

func TestGetRestaurantReturnsNilWhenMissing(t *testing.T) {
	db := openTestDB(t)
	restaurant, err := NewRepository(db).GetRestaurant(context.Background())
	require.NoError(t, err)
	assert.Nil(t, restaurant)
}
