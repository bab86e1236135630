package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/totem-backend/internal/orders"
	"github.com/angelmondragon/totem-backend/internal/pricing"
	"github.com/angelmondragon/totem-backend/internal/session"
	"github.com/angelmondragon/totem-backend/internal/ticket"
	"github.com/angelmondragon/totem-backend/pkg/cpf"
	"github.com/angelmondragon/totem-backend/pkg/enums"
	"github.com/angelmondragon/totem-backend/pkg/logger"
	"github.com/angelmondragon/totem-backend/pkg/metrics"
)

const (
	labelNotInformed  = "Não informado"
	labelNotRequested = "Não solicitado"
	defaultTimeout    = 5 * time.Second
)

type machineSource interface {
	Machine(kioskID string) (*session.Machine, error)
}

type orderCreator interface {
	CreateOrder(ctx context.Context, data orders.OrderData) (orders.CreatedOrder, error)
}

// Service submits a ready kiosk session as an order.
type Service interface {
	Submit(ctx context.Context, kioskID string) (Confirmation, error)
	Close(ctx context.Context) error
}

// Params wires the checkout service.
type Params struct {
	Sessions machineSource
	Orders   orderCreator
	Tickets  *ticket.Generator
	Logger   *logger.Logger
	Metrics  *metrics.CheckoutMetrics
	Timeout  time.Duration
	Async    bool
	Now      func() time.Time
}

type service struct {
	sessions machineSource
	orders   orderCreator
	tickets  *ticket.Generator
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics
	timeout  time.Duration
	async    bool
	now      func() time.Time

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup
}

// NewService builds the checkout service.
func NewService(p Params) (Service, error) {
	if p.Sessions == nil {
		return nil, fmt.Errorf("session source required")
	}
	if p.Orders == nil {
		return nil, fmt.Errorf("order creator required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if p.Timeout <= 0 {
		p.Timeout = defaultTimeout
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Tickets == nil {
		gen, err := ticket.NewGenerator("", time.UTC, p.Now)
		if err != nil {
			return nil, err
		}
		p.Tickets = gen
	}
	return &service{
		sessions: p.Sessions,
		orders:   p.Orders,
		tickets:  p.Tickets,
		logg:     p.Logger,
		metrics:  p.Metrics,
		timeout:  p.Timeout,
		async:    p.Async,
		now:      p.Now,
	}, nil
}

// Submit takes the kiosk's order, resets the session and reports a
// confirmation. A failure to persist the order is logged and counted but the
// customer always gets a confirmation.
func (s *service) Submit(ctx context.Context, kioskID string) (Confirmation, error) {
	machine, err := s.sessions.Machine(kioskID)
	if err != nil {
		return Confirmation{}, err
	}
	draft, err := machine.Finalize()
	if err != nil {
		return Confirmation{}, err
	}

	ctx = s.logg.WithKioskID(ctx, kioskID)
	data := orderData(kioskID, draft)
	data.TicketCode = s.tickets.Next(firstCategory(draft))
	s.metrics.AddRevenue(draft.Total.InexactFloat64())

	if s.async && s.track() {
		go func() {
			defer s.pending.Done()
			bg := s.logg.WithKioskID(context.Background(), kioskID)
			_, _ = s.create(bg, data)
		}()
		s.metrics.IncOutcome(metrics.OutcomeQueued)
		return s.confirmation(draft, data.TicketCode, orders.CreatedOrder{}, true), nil
	}

	created, _ := s.create(ctx, data)
	return s.confirmation(draft, data.TicketCode, created, false), nil
}

func (s *service) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.pending.Add(1)
	return true
}

func (s *service) create(ctx context.Context, data orders.OrderData) (orders.CreatedOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.now()
	created, err := s.orders.CreateOrder(ctx, data)
	s.metrics.ObserveCreate(s.now().Sub(start))
	if err != nil {
		s.metrics.IncOutcome(metrics.OutcomeFailed)
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{
			"ticket_code": data.TicketCode,
			"total":       data.Total.StringFixed(2),
		}), "order creation failed", err)
		return orders.CreatedOrder{}, err
	}
	s.metrics.IncOutcome(metrics.OutcomePersisted)
	return created, nil
}

// Close stops accepting background submissions and waits for the ones in
// flight or for ctx to end.
func (s *service) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *service) confirmation(draft session.Draft, ticketCode string, created orders.CreatedOrder, queued bool) Confirmation {
	now := s.now()
	c := Confirmation{
		OrderID:        created.ID,
		OrderNumber:    created.OrderNumber,
		DisplayNumber:  DisplayNumber(created.ID, now),
		TicketCode:     ticketCode,
		TicketStrategy: s.tickets.Strategy(),
		OrderType:      draft.OrderType,
		OrderTypeLabel: draft.OrderType.Label(),
		CustomerName:   labelNotInformed,
		CPF:            labelNotRequested,
		PaymentMethod:  draft.PaymentMethod,
		CardType:       draft.CardType,
		PaymentLabel:   draft.PaymentMethod.Label(),
		Total:          draft.Total.StringFixed(2),
		TotalLabel:     pricing.FormatBRL(draft.Total),
		ItemCount:      draft.ItemCount,
		Persisted:      created.ID != "",
		Queued:         queued,
		SubmittedAt:    now.UTC(),
	}
	if name := strings.TrimSpace(draft.Customer.Name); name != "" {
		c.CustomerName = name
	}
	if value := receiptCPF(draft.Customer); value != "" {
		c.CPF = value
	}
	return c
}

// DisplayNumber is the number shown on the confirmation screen: the first 8
// characters of the order id, uppercased, or LOCAL- plus the last 6 digits of
// the unix millisecond clock when there is no id.
func DisplayNumber(orderID string, now time.Time) string {
	if orderID != "" {
		if len(orderID) > 8 {
			orderID = orderID[:8]
		}
		return strings.ToUpper(orderID)
	}
	millis := fmt.Sprintf("%d", now.UnixMilli())
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	return "LOCAL-" + millis
}

func orderData(kioskID string, draft session.Draft) orders.OrderData {
	data := orders.OrderData{
		KioskID:   kioskID,
		OrderType: draft.OrderType,
		Customer: orders.Customer{
			Name:         draft.Customer.Name,
			WantsReceipt: draft.Customer.WantsReceipt,
		},
		PaymentMethod: draft.PaymentMethod,
		CardType:      draft.CardType,
		Total:         draft.Total,
		Lines:         make([]orders.Line, 0, len(draft.Lines)),
	}
	data.Customer.CPF = receiptCPF(draft.Customer)
	if !data.PaymentMethod.IsCard() {
		data.CardType = enums.CardType("")
	}
	for _, line := range draft.Lines {
		out := orders.Line{
			ProductID:          line.ProductID,
			ProductName:        line.Name,
			ProductPrice:       line.Price,
			Quantity:           line.Quantity,
			RemovedIngredients: append([]string{}, line.RemovedIngredients...),
		}
		for _, c := range line.Complements {
			out.Complements = append(out.Complements, orders.Complement{Name: c.Name, Price: c.Price})
		}
		data.Lines = append(data.Lines, out)
	}
	return data
}

// receiptCPF is the formatted CPF when a receipt was requested with a valid
// number, otherwise empty. A skipped step may leave a partial number behind.
func receiptCPF(customer session.CustomerData) string {
	if !customer.WantsReceipt || !cpf.Validate(customer.CPF) {
		return ""
	}
	return cpf.Format(customer.CPF)
}

func firstCategory(draft session.Draft) string {
	if len(draft.Lines) == 0 {
		return ""
	}
	return draft.Lines[0].Category
}
