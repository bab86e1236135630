package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/totem-backend/pkg/cpf"
	"github.com/angelmondragon/totem-backend/pkg/db"
	"github.com/angelmondragon/totem-backend/pkg/db/models"
	"github.com/angelmondragon/totem-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/angelmondragon/totem-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service persists kiosk orders and reports the day's totals.
type Service interface {
	CreateOrder(ctx context.Context, data OrderData) (CreatedOrder, error)
	TodayStats(ctx context.Context) Stats
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
	loc  *time.Location
	now  func() time.Time
}

// NewService builds an order service. loc decides where the business day
// starts and how order numbers are dated.
func NewService(repo Repository, tx txRunner, logg *logger.Logger, loc *time.Location, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, tx: tx, logg: logg, loc: loc, now: now}, nil
}

func (s *service) CreateOrder(ctx context.Context, data OrderData) (CreatedOrder, error) {
	if err := validateOrder(data); err != nil {
		return CreatedOrder{}, err
	}

	order := buildOrder(s.orderNumber(ctx), data)
	err := s.insert(ctx, order)
	if db.IsUniqueViolation(err, "order_number") {
		s.logg.Warn(s.logg.WithField(ctx, "order_number", order.OrderNumber), "order number taken, retrying with fallback")
		order = buildOrder(FallbackOrderNumber(), data)
		err = s.insert(ctx, order)
	}
	if err != nil {
		return CreatedOrder{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	created := CreatedOrder{ID: order.ID.String(), OrderNumber: order.OrderNumber}
	s.logg.Info(s.logg.WithFields(s.logg.WithOrderID(ctx, created.ID), map[string]any{
		"order_number": created.OrderNumber,
		"kiosk_id":     data.KioskID,
		"total":        data.Total.StringFixed(2),
	}), "order created")
	return created, nil
}

func (s *service) insert(ctx context.Context, order *models.Order) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).CreateOrder(ctx, order)
		return err
	})
}

// orderNumber renders DDMMYY-NNN from the shared counter. When the counter is
// unavailable it falls back to a short random id.
func (s *service) orderNumber(ctx context.Context) string {
	var counter int
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.WithTx(tx).NextCounter(ctx)
		if err != nil {
			return err
		}
		counter = n
		return nil
	})
	if err != nil {
		s.logg.Error(ctx, "order counter unavailable", err)
		return FallbackOrderNumber()
	}
	return FormatOrderNumber(s.now().In(s.loc), counter)
}

// FormatOrderNumber renders the dated order number, e.g. 271224-001.
func FormatOrderNumber(day time.Time, counter int) string {
	return fmt.Sprintf("%s-%03d", day.Format("020106"), counter)
}

// FallbackOrderNumber is the first 8 characters of a random uuid, uppercased.
func FallbackOrderNumber() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// TodayStats never fails: errors are logged and reported as zeroes.
func (s *service) TodayStats(ctx context.Context) Stats {
	now := s.now().In(s.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	stats, err := s.repo.StatsSince(ctx, midnight.UTC())
	if err != nil {
		s.logg.Error(ctx, "load today stats", err)
		return Stats{}
	}
	return stats
}

func validateOrder(data OrderData) error {
	switch {
	case !data.OrderType.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "order type is required")
	case !data.PaymentMethod.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	case len(data.Lines) == 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	for _, line := range data.Lines {
		if line.Quantity <= 0 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "item %s has no quantity", line.ProductName)
		}
	}
	return nil
}

func buildOrder(number string, data OrderData) *models.Order {
	order := &models.Order{
		OrderNumber:   number,
		KioskID:       data.KioskID,
		OrderType:     data.OrderType,
		CustomerName:  optional(data.Customer.Name),
		CustomerCPF:   validCPF(data.Customer.CPF),
		WantsReceipt:  data.Customer.WantsReceipt,
		PaymentMethod: data.PaymentMethod,
		TotalAmount:   data.Total,
		TicketCode:    data.TicketCode,
		Status:        enums.OrderStatusPending,
		Items:         make([]models.OrderItem, 0, len(data.Lines)),
	}
	if data.CardType.IsValid() {
		cardType := data.CardType
		order.CardType = &cardType
	}
	for _, line := range data.Lines {
		item := models.OrderItem{
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			ProductPrice: line.ProductPrice,
			Quantity:     line.Quantity,
		}
		for _, c := range line.Complements {
			item.Complements = append(item.Complements, models.OrderItemComplement{
				ComplementName:  c.Name,
				ComplementPrice: c.Price,
			})
		}
		for _, name := range line.RemovedIngredients {
			item.RemovedIngredients = append(item.RemovedIngredients, models.OrderItemRemovedIngredient{
				IngredientName: name,
			})
		}
		order.Items = append(order.Items, item)
	}
	return order
}

// validCPF keeps a typed CPF only when it passes the check digits.
func validCPF(value string) *string {
	if !cpf.Validate(value) {
		return nil
	}
	return optional(value)
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
