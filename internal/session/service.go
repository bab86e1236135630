package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/totem-backend/internal/catalog"
	"github.com/angelmondragon/totem-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/angelmondragon/totem-backend/pkg/logger"
)

// ActionType names a customer or operator input.
type ActionType string

const (
	ActionStart                 ActionType = "start"
	ActionSelectOrderType       ActionType = "select_order_type"
	ActionChangeOrderType       ActionType = "change_order_type"
	ActionSelectCategory        ActionType = "select_category"
	ActionSelectProduct         ActionType = "select_product"
	ActionEditLine              ActionType = "edit_line"
	ActionToggleComplement      ActionType = "toggle_complement"
	ActionToggleIngredient      ActionType = "toggle_ingredient"
	ActionSetCustomizationStep  ActionType = "set_customization_step"
	ActionNextCustomizationStep ActionType = "next_customization_step"
	ActionPrevCustomizationStep ActionType = "prev_customization_step"
	ActionSetQuantity           ActionType = "set_quantity"
	ActionAddToCart             ActionType = "add_to_cart"
	ActionCancelCustomization   ActionType = "cancel_customization"
	ActionOpenCart              ActionType = "open_cart"
	ActionBackToMenu            ActionType = "back_to_menu"
	ActionChangeQuantity        ActionType = "change_quantity"
	ActionRemoveLine            ActionType = "remove_line"
	ActionClearCart             ActionType = "clear_cart"
	ActionCheckout              ActionType = "checkout"
	ActionBackToCart            ActionType = "back_to_cart"
	ActionChooseReceipt         ActionType = "choose_receipt"
	ActionCPFDigit              ActionType = "cpf_digit"
	ActionCPFBackspace          ActionType = "cpf_backspace"
	ActionCPFClear              ActionType = "cpf_clear"
	ActionConfirmCPF            ActionType = "confirm_cpf"
	ActionSkipCPF               ActionType = "skip_cpf"
	ActionNameType              ActionType = "name_type"
	ActionNameSpace             ActionType = "name_space"
	ActionNameBackspace         ActionType = "name_backspace"
	ActionNameClear             ActionType = "name_clear"
	ActionConfirmName           ActionType = "confirm_name"
	ActionPreviousStep          ActionType = "previous_step"
	ActionSelectPayment         ActionType = "select_payment"
	ActionOpenAdmin             ActionType = "open_admin"
	ActionCloseAdmin            ActionType = "close_admin"
	ActionRaiseError            ActionType = "raise_error"
	ActionRetry                 ActionType = "retry"
	ActionPauseRetry            ActionType = "pause_retry"
	ActionResumeRetry           ActionType = "resume_retry"
	ActionReset                 ActionType = "reset"
)

// Action carries one input. Only the fields its type needs are read.
type Action struct {
	Type          ActionType `json:"type"`
	OrderType     string     `json:"order_type,omitempty"`
	CategoryID    string     `json:"category_id,omitempty"`
	ProductID     string     `json:"product_id,omitempty"`
	ComplementID  string     `json:"complement_id,omitempty"`
	Ingredient    string     `json:"ingredient,omitempty"`
	Step          string     `json:"step,omitempty"`
	Quantity      int        `json:"quantity,omitempty"`
	LineID        string     `json:"line_id,omitempty"`
	Delta         int        `json:"delta,omitempty"`
	Digit         string     `json:"digit,omitempty"`
	Text          string     `json:"text,omitempty"`
	WantsReceipt  *bool      `json:"wants_receipt,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	ErrorKind     string     `json:"error_kind,omitempty"`
}

// Service resolves catalog references and drives the per kiosk machines.
type Service interface {
	View(ctx context.Context, kioskID string) (View, error)
	Apply(ctx context.Context, kioskID string, action Action) (View, error)
	Reset(ctx context.Context, kioskID string) (View, error)
	Machine(kioskID string) (*Machine, error)
	SweepIdle(ctx context.Context) []string
}

type service struct {
	registry *Registry
	catalog  catalog.Service
	logg     *logger.Logger
	idle     time.Duration
}

// NewService builds a session service over a registry and the catalog.
func NewService(registry *Registry, catalogSvc catalog.Service, logg *logger.Logger, idle time.Duration) (Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("session registry required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{registry: registry, catalog: catalogSvc, logg: logg, idle: idle}, nil
}

func (s *service) Machine(kioskID string) (*Machine, error) {
	return s.registry.Machine(kioskID)
}

func (s *service) View(_ context.Context, kioskID string) (View, error) {
	m, err := s.registry.Machine(kioskID)
	if err != nil {
		return View{}, err
	}
	return m.View(), nil
}

func (s *service) Reset(ctx context.Context, kioskID string) (View, error) {
	m, err := s.registry.Machine(kioskID)
	if err != nil {
		return View{}, err
	}
	m.Reset()
	s.logg.Info(s.logg.WithKioskID(ctx, kioskID), "session reset")
	return m.View(), nil
}

// SweepIdle resets sessions abandoned mid order and forgets kiosks that have
// been dormant for the idle window.
func (s *service) SweepIdle(ctx context.Context) []string {
	if s.idle <= 0 {
		return nil
	}
	reset, evicted := s.registry.Sweep(s.idle)
	for _, id := range reset {
		s.logg.Info(s.logg.WithKioskID(ctx, id), "idle session reset")
	}
	if len(evicted) > 0 {
		s.logg.Debug(s.logg.WithField(ctx, "evicted", len(evicted)), "dormant kiosk sessions dropped")
	}
	return reset
}

func (s *service) Apply(ctx context.Context, kioskID string, action Action) (View, error) {
	m, err := s.registry.Machine(kioskID)
	if err != nil {
		return View{}, err
	}
	if err := s.apply(ctx, m, action); err != nil {
		ctx = s.logg.WithFields(s.logg.WithKioskID(ctx, kioskID), map[string]any{
			"action": string(action.Type),
			"error":  err.Error(),
		})
		s.logg.Debug(ctx, "session action rejected")
		return m.View(), err
	}
	return m.View(), nil
}

func (s *service) apply(ctx context.Context, m *Machine, a Action) error {
	snapshot := s.catalog.Snapshot()

	switch a.Type {
	case ActionStart:
		return m.Start()
	case ActionSelectOrderType:
		orderType, err := enums.ParseOrderType(strings.TrimSpace(a.OrderType))
		if err != nil {
			return invalid(err.Error())
		}
		defaultCategory := ""
		if c, ok := s.catalog.DefaultCategory(); ok {
			defaultCategory = c.ID
		}
		return m.SelectOrderType(orderType, defaultCategory)
	case ActionChangeOrderType:
		return m.ChangeOrderType()
	case ActionSelectCategory:
		if _, ok := snapshot.FindCategory(a.CategoryID); !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return m.SelectCategory(a.CategoryID)
	case ActionSelectProduct:
		p, ok := snapshot.FindProduct(a.ProductID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return m.SelectProduct(p)
	case ActionEditLine:
		state := m.State()
		idx := state.lineIndex(a.LineID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		var current *catalog.Product
		if p, ok := snapshot.FindProduct(state.Cart[idx].ProductID); ok {
			current = &p
		}
		return m.EditLine(a.LineID, current)
	case ActionToggleComplement:
		c, ok := snapshot.FindComplement(a.ComplementID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "complement not found")
		}
		return m.ToggleComplement(c)
	case ActionToggleIngredient:
		return m.ToggleIngredient(a.Ingredient)
	case ActionSetCustomizationStep:
		step, err := enums.ParseCustomizationStep(a.Step)
		if err != nil {
			return invalid(err.Error())
		}
		return m.SetCustomizationStep(step)
	case ActionNextCustomizationStep:
		return m.NextCustomizationStep()
	case ActionPrevCustomizationStep:
		return m.PrevCustomizationStep()
	case ActionSetQuantity:
		return m.SetQuantity(a.Quantity)
	case ActionAddToCart:
		_, err := m.AddToCart()
		return err
	case ActionCancelCustomization:
		return m.CancelCustomization()
	case ActionOpenCart:
		return m.OpenCart()
	case ActionBackToMenu:
		return m.BackToMenu()
	case ActionChangeQuantity:
		return m.ChangeQuantity(a.LineID, a.Delta)
	case ActionRemoveLine:
		return m.RemoveLine(a.LineID)
	case ActionClearCart:
		return m.ClearCart()
	case ActionCheckout:
		return m.Checkout()
	case ActionBackToCart:
		return m.BackToCart()
	case ActionChooseReceipt:
		if a.WantsReceipt == nil {
			return invalid("wants_receipt is required")
		}
		return m.ChooseReceipt(*a.WantsReceipt)
	case ActionCPFDigit:
		return m.CPFDigit(a.Digit)
	case ActionCPFBackspace:
		return m.CPFBackspace()
	case ActionCPFClear:
		return m.CPFClear()
	case ActionConfirmCPF:
		return m.ConfirmCPF()
	case ActionSkipCPF:
		return m.SkipCPF()
	case ActionNameType:
		return m.NameType(a.Text)
	case ActionNameSpace:
		return m.NameSpace()
	case ActionNameBackspace:
		return m.NameBackspace()
	case ActionNameClear:
		return m.NameClear()
	case ActionConfirmName:
		return m.ConfirmName()
	case ActionPreviousStep:
		return m.PreviousStep()
	case ActionSelectPayment:
		method, err := enums.ParsePaymentMethod(strings.TrimSpace(a.PaymentMethod))
		if err != nil {
			return invalid(err.Error())
		}
		return m.SelectPayment(method)
	case ActionOpenAdmin:
		m.OpenAdmin()
		return nil
	case ActionCloseAdmin:
		m.CloseAdmin()
		return nil
	case ActionRaiseError:
		kind, err := enums.ParseSystemError(a.ErrorKind)
		if err != nil {
			return invalid(err.Error())
		}
		return m.RaiseError(kind)
	case ActionRetry:
		m.ClearError()
		m.SetLoading(true)
		defer m.SetLoading(false)
		if _, err := s.catalog.Refresh(ctx); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog refresh on retry degraded")
		}
		return nil
	case ActionPauseRetry:
		return m.SetAutoRetryPaused(true)
	case ActionResumeRetry:
		return m.SetAutoRetryPaused(false)
	case ActionReset:
		m.Reset()
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown action %q", a.Type)
}
