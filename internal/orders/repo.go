package orders

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/angelmondragon/totem-backend/pkg/db/models"
	"github.com/angelmondragon/totem-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderCounterKey is the system_settings row backing order numbers.
const OrderCounterKey = "order_counter"

// Repository defines persistence operations for kiosk orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextCounter(ctx context.Context) (int, error)
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrder(ctx context.Context, id string) (*models.Order, error)
	StatsSince(ctx context.Context, since time.Time) (Stats, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// NextCounter returns the current counter value and stores the next one.
// A missing or unparsable row counts as 1.
func (r *repository) NextCounter(ctx context.Context) (int, error) {
	var setting models.SystemSetting
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(map[string]any{"key": OrderCounterKey}).
		First(&setting).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	counter := 1
	if n, convErr := strconv.Atoi(setting.Value); convErr == nil && n > 0 {
		counter = n
	}

	next := models.SystemSetting{
		Key:         OrderCounterKey,
		Value:       strconv.Itoa(counter + 1),
		Description: "Contador de pedidos",
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_at"}),
		}).
		Create(&next).Error; err != nil {
		return 0, err
	}
	return counter, nil
}

// CreateOrder inserts the order with its items, complements and removed
// ingredients.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Complements").
		Preload("Items.RemovedIngredients").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type statsRow struct {
	Orders   int64
	Revenue  decimal.Decimal
	DineIn   int64
	Takeaway int64
}

// StatsSince aggregates every order created at or after since.
func (r *repository) StatsSince(ctx context.Context, since time.Time) (Stats, error) {
	var row statsRow
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select(
			"COUNT(*) AS orders, "+
				"COALESCE(SUM(total_amount), 0) AS revenue, "+
				"COALESCE(SUM(CASE WHEN order_type = ? THEN 1 ELSE 0 END), 0) AS dine_in, "+
				"COALESCE(SUM(CASE WHEN order_type = ? THEN 1 ELSE 0 END), 0) AS takeaway",
			enums.OrderTypeDineIn, enums.OrderTypeTakeaway,
		).
		Where("created_at >= ?", since).
		Scan(&row).Error
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TodayOrders:    row.Orders,
		TodayRevenue:   row.Revenue,
		DineInOrders:   row.DineIn,
		TakeawayOrders: row.Takeaway,
	}, nil
}
