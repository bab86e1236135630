package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/totem-backend/pkg/db"
	"github.com/angelmondragon/totem-backend/pkg/db/models"
	"github.com/angelmondragon/totem-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/angelmondragon/totem-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemComplement{},
		&models.OrderItemRemovedIngredient{},
		&models.SystemSetting{},
	))
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB, now func() time.Time) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), db.NewFromGorm(conn), logger.Nop(), time.UTC, now)
	require.NoError(t, err)
	return svc
}

func sampleOrder() OrderData {
	return OrderData{
		KioskID:       "kiosk-1",
		OrderType:     enums.OrderTypeDineIn,
		Customer:      Customer{Name: "Maria", CPF: "529.982.247-25", WantsReceipt: true},
		PaymentMethod: enums.PaymentMethodCardCredit,
		CardType:      enums.CardTypeCredit,
		Total:         decimal.RequireFromString("52.80"),
		TicketCode:    "455",
		Lines: []Line{{
			ProductID:    "1",
			ProductName:  "X-Burger Clássico",
			ProductPrice: decimal.RequireFromString("18.90"),
			Quantity:     2,
			Complements: []Complement{
				{Name: "Bacon Extra", Price: decimal.RequireFromString("4.50")},
				{Name: "Cheddar Cremoso", Price: decimal.RequireFromString("3.00")},
			},
			RemovedIngredients: []string{"Cebola"},
		}},
	}
}

func TestCreateOrderPersistsTree(t *testing.T) {
	conn := openTestDB(t)
	day := time.Date(2024, 12, 27, 15, 0, 0, 0, time.UTC)
	svc := newTestService(t, conn, func() time.Time { return day })
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, "271224-001", created.OrderNumber)

	second, err := svc.CreateOrder(ctx, sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, "271224-002", second.OrderNumber)

	stored, err := NewRepository(conn).FindOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "kiosk-1", stored.KioskID)
	assert.Equal(t, enums.OrderStatusPending, stored.Status)
	require.NotNil(t, stored.CardType)
	assert.Equal(t, enums.CardTypeCredit, *stored.CardType)
	require.NotNil(t, stored.CustomerCPF)
	assert.Equal(t, "529.982.247-25", *stored.CustomerCPF)
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("52.80")))
	require.Len(t, stored.Items, 1)
	assert.Len(t, stored.Items[0].Complements, 2)
	require.Len(t, stored.Items[0].RemovedIngredients, 1)
	assert.Equal(t, "Cebola", stored.Items[0].RemovedIngredients[0].IngredientName)
}

func TestCreateOrderStoresAnonymousCustomerAsNull(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn, nil)
	data := sampleOrder()
	data.Customer = Customer{}
	data.PaymentMethod = enums.PaymentMethodPIX
	data.CardType = ""

	created, err := svc.CreateOrder(context.Background(), data)
	require.NoError(t, err)

	stored, err := NewRepository(conn).FindOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CustomerName)
	assert.Nil(t, stored.CustomerCPF)
	assert.Nil(t, stored.CardType)
}

func TestCreateOrderDropsInvalidCPF(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn, nil)
	data := sampleOrder()
	data.Customer.CPF = "123.456.789-00"

	created, err := svc.CreateOrder(context.Background(), data)
	require.NoError(t, err)

	stored, err := NewRepository(conn).FindOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CustomerCPF)
	require.NotNil(t, stored.CustomerName)
}

func TestCreateOrderValidation(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn, nil)

	cases := map[string]func(*OrderData){
		"missing order type": func(d *OrderData) { d.OrderType = "" },
		"missing payment":    func(d *OrderData) { d.PaymentMethod = "" },
		"no lines":           func(d *OrderData) { d.Lines = nil },
		"zero quantity":      func(d *OrderData) { d.Lines[0].Quantity = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			data := sampleOrder()
			mutate(&data)
			_, err := svc.CreateOrder(context.Background(), data)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestTodayStats(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn, time.Now)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, sampleOrder())
	require.NoError(t, err)
	takeaway := sampleOrder()
	takeaway.OrderType = enums.OrderTypeTakeaway
	takeaway.Total = decimal.RequireFromString("5.00")
	_, err = svc.CreateOrder(ctx, takeaway)
	require.NoError(t, err)

	old := &models.Order{
		OrderNumber:   "010101-001",
		OrderType:     enums.OrderTypeDineIn,
		PaymentMethod: enums.PaymentMethodCash,
		TotalAmount:   decimal.NewFromInt(100),
		Status:        enums.OrderStatusDelivered,
		CreatedAt:     time.Now().UTC().AddDate(0, 0, -3),
	}
	require.NoError(t, conn.Create(old).Error)

	stats := svc.TodayStats(ctx)
	assert.Equal(t, int64(2), stats.TodayOrders)
	assert.True(t, stats.TodayRevenue.Equal(decimal.RequireFromString("57.80")), "revenue %s", stats.TodayRevenue)
	assert.Equal(t, int64(1), stats.DineInOrders)
	assert.Equal(t, int64(1), stats.TakeawayOrders)
}

type failingRepo struct {
	Repository
}

func (f failingRepo) WithTx(tx *gorm.DB) Repository {
	return failingRepo{Repository: f.Repository.WithTx(tx)}
}

func (failingRepo) NextCounter(context.Context) (int, error) {
	return 0, errors.New("counter locked")
}

func (failingRepo) StatsSince(context.Context, time.Time) (Stats, error) {
	return Stats{}, errors.New("db down")
}

func TestCounterFailureFallsBackToRandomNumber(t *testing.T) {
	conn := openTestDB(t)
	repo := failingRepo{Repository: NewRepository(conn)}
	svc, err := NewService(repo, db.NewFromGorm(conn), logger.Nop(), nil, nil)
	require.NoError(t, err)

	created, err := svc.CreateOrder(context.Background(), sampleOrder())
	require.NoError(t, err)
	assert.Len(t, created.OrderNumber, 8)
	assert.Equal(t, strings.ToUpper(created.OrderNumber), created.OrderNumber)

	assert.Equal(t, Stats{}, svc.TodayStats(context.Background()))
}

func TestDuplicateOrderNumberRetriesWithFallback(t *testing.T) {
	conn := openTestDB(t)
	day := time.Date(2024, 12, 27, 15, 0, 0, 0, time.UTC)
	svc := newTestService(t, conn, func() time.Time { return day })
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, "271224-001", first.OrderNumber)

	require.NoError(t, conn.Model(&models.SystemSetting{}).
		Where("key = ?", OrderCounterKey).
		Update("value", "1").Error)

	second, err := svc.CreateOrder(ctx, sampleOrder())
	require.NoError(t, err)
	assert.NotEqual(t, first.OrderNumber, second.OrderNumber)
	assert.Len(t, second.OrderNumber, 8)

	var count int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil, nil)
	require.Error(t, err)
}
