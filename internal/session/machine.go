package session

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/totem-backend/internal/catalog"
	"github.com/angelmondragon/totem-backend/internal/pricing"
	"github.com/angelmondragon/totem-backend/pkg/cpf"
	"github.com/angelmondragon/totem-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Limits bound what a session may accumulate and how many kiosks a registry
// serves.
type Limits struct {
	MaxCartItems int
	MaxNameLen   int
	// MaxKiosks caps how many kiosk sessions one registry holds.
	MaxKiosks int
}

// DefaultLimits matches the kiosk keypad and cart badge.
var DefaultLimits = Limits{MaxCartItems: 50, MaxNameLen: 50, MaxKiosks: 64}

// Draft is the order payload taken from a session at submit time.
type Draft struct {
	OrderType     enums.OrderType     `json:"order_type"`
	Customer      CustomerData        `json:"customer"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	CardType      enums.CardType      `json:"card_type"`
	Lines         []CartLine          `json:"lines"`
	Total         decimal.Decimal     `json:"total"`
	ItemCount     int                 `json:"item_count"`
}

// Machine serializes every mutation of one kiosk session.
type Machine struct {
	mu      sync.Mutex
	state   Session
	limits  Limits
	newID   func() string
	now     func() time.Time
	touched time.Time
	retired bool
}

// NewMachine returns a machine parked on the welcome screen.
func NewMachine(limits Limits, now func() time.Time) *Machine {
	if limits.MaxCartItems <= 0 {
		limits.MaxCartItems = DefaultLimits.MaxCartItems
	}
	if limits.MaxNameLen <= 0 {
		limits.MaxNameLen = DefaultLimits.MaxNameLen
	}
	if now == nil {
		now = time.Now
	}
	return &Machine{
		state:   newSession(),
		limits:  limits,
		newID:   uuid.NewString,
		now:     now,
		touched: now(),
	}
}

// State returns a copy of the aggregate.
func (m *Machine) State() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// View renders the aggregate for a front end.
func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return buildView(m.state.clone(), m.touched)
}

// LastTouched reports when the session last changed.
func (m *Machine) LastTouched() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.touched
}

// Idle reports whether the session is away from the welcome screen and has
// not changed for at least d.
func (m *Machine) Idle(d time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idleLocked(d)
}

func (m *Machine) idleLocked(d time.Duration) bool {
	if m.state.Screen == enums.ScreenWelcome && len(m.state.Cart) == 0 {
		return false
	}
	return m.now().Sub(m.touched) >= d
}

// ResetIfIdle resets an idle session and reports whether it did.
func (m *Machine) ResetIfIdle(d time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.idleLocked(d) {
		return false
	}
	m.state = newSession()
	m.touched = m.now()
	return true
}

// dormant is true for a machine parked on the welcome screen with nothing in
// it and untouched for at least d.
func (m *Machine) dormantLocked(d time.Duration) bool {
	s := m.state
	parked := s.Screen == enums.ScreenWelcome && len(s.Cart) == 0 && s.SystemError == "" && !s.ShowAdmin
	return parked && m.now().Sub(m.touched) >= d
}

// retireIfDormant marks a dormant machine as removed from its registry.
func (m *Machine) retireIfDormant(d time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dormantLocked(d) {
		return false
	}
	m.retired = true
	return true
}

// mutate runs fn under the lock and stamps the touch time on success.
func (m *Machine) mutate(fn func(s *Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.retired {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "kiosk session expired, retry")
	}
	if err := fn(&m.state); err != nil {
		return err
	}
	m.touched = m.now()
	return nil
}

// onScreen rejects the action while an overlay is up or when the current
// screen is not one of screens.
func onScreen(s *Session, action string, screens ...enums.Screen) error {
	if s.SystemError != "" || s.ShowAdmin {
		return overlayError(action)
	}
	for _, screen := range screens {
		if s.Screen == screen {
			return nil
		}
	}
	return transitionError(action, s.Screen)
}

func onStep(s *Session, action string, steps ...enums.InputStep) error {
	if err := onScreen(s, action, enums.ScreenCustomerData); err != nil {
		return err
	}
	for _, step := range steps {
		if s.InputStep == step {
			return nil
		}
	}
	return stepError(action, s.InputStep)
}

// Start leaves the welcome screen.
func (m *Machine) Start() error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "start", enums.ScreenWelcome); err != nil {
			return err
		}
		s.Screen = enums.ScreenOrderType
		return nil
	})
}

// SelectOrderType records dine-in or takeaway and opens the menu. The
// category is only applied when none is selected yet.
func (m *Machine) SelectOrderType(orderType enums.OrderType, defaultCategory string) error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "select_order_type", enums.ScreenOrderType); err != nil {
			return err
		}
		if !orderType.IsValid() {
			return invalid("order type must be dine-in or takeaway")
		}
		s.OrderType = orderType
		if s.SelectedCategory == "" {
			s.SelectedCategory = defaultCategory
		}
		s.Screen = enums.ScreenMain
		return nil
	})
}

// ChangeOrderType goes back to the order type screen keeping the cart.
func (m *Machine) ChangeOrderType() error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "change_order_type", enums.ScreenMain, enums.ScreenCart, enums.ScreenCustomize); err != nil {
			return err
		}
		s.clearSelection()
		s.Screen = enums.ScreenOrderType
		return nil
	})
}

func (m *Machine) SelectCategory(categoryID string) error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "select_category", enums.ScreenMain); err != nil {
			return err
		}
		if strings.TrimSpace(categoryID) == "" {
			return invalid("category is required")
		}
		s.SelectedCategory = categoryID
		return nil
	})
}

// SelectProduct opens customization with a clean selection.
func (m *Machine) SelectProduct(p catalog.Product) error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "select_product", enums.ScreenMain); err != nil {
			return err
		}
		s.clearSelection()
		product := p
		s.SelectedProduct = &product
		s.Screen = enums.ScreenCustomize
		return nil
	})
}

// EditLine reopens customization prefilled from a cart line. Adding replaces
// the line instead of appending a new one.
func (m *Machine) EditLine(lineID string, p *catalog.Product) error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "edit_line", enums.ScreenCart, enums.ScreenMain); err != nil {
			return err
		}
		idx := s.lineIndex(lineID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		line := s.Cart[idx]
		product := line.product()
		if p != nil {
			product = *p
		}
		s.clearSelection()
		s.SelectedProduct = &product
		s.ProductComplements = append([]catalog.Complement{}, line.Complements...)
		s.RemovedIngredients = append([]string{}, line.RemovedIngredients...)
		s.Quantity = line.Quantity
		s.EditingLineID = line.ID
		s.Screen = enums.ScreenCustomize
		return nil
	})
}

func (m *Machine) ToggleComplement(c catalog.Complement) error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "toggle_complement", enums.ScreenCustomize); err != nil {
			return err
		}
		for i, existing := range s.ProductComplements {
			if existing.ID == c.ID {
				s.ProductComplements = append(s.ProductComplements[:i:i], s.ProductComplements[i+1:]...)
				return nil
			}
		}
		s.ProductComplements = append(s.ProductComplements, c)
		return nil
	})
}

// ToggleIngredient removes or restores a removable ingredient.
func (m *Machine) ToggleIngredient(name string) error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "toggle_ingredient", enums.ScreenCustomize); err != nil {
			return err
		}
		if s.SelectedProduct == nil || !s.SelectedProduct.IsRemovable(name) {
			return invalid("ingredient is not removable")
		}
		for i, existing := range s.RemovedIngredients {
			if existing == name {
				s.RemovedIngredients = append(s.RemovedIngredients[:i:i], s.RemovedIngredients[i+1:]...)
				return nil
			}
		}
		s.RemovedIngredients = append(s.RemovedIngredients, name)
		return nil
	})
}

func (m *Machine) SetCustomizationStep(step enums.CustomizationStep) error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "set_customization_step", enums.ScreenCustomize); err != nil {
			return err
		}
		if !step.IsValid() {
			return invalid("unknown customization step")
		}
		s.CustomizationStep = step
		return nil
	})
}

func (m *Machine) NextCustomizationStep() error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "next_customization_step", enums.ScreenCustomize); err != nil {
			return err
		}
		if s.CustomizationStep != enums.CustomizationStepComplements {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "already on the last customization step")
		}
		s.CustomizationStep = enums.CustomizationStepIngredients
		return nil
	})
}

func (m *Machine) PrevCustomizationStep() error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "prev_customization_step", enums.ScreenCustomize); err != nil {
			return err
		}
		if s.CustomizationStep != enums.CustomizationStepIngredients {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "already on the first customization step")
		}
		s.CustomizationStep = enums.CustomizationStepComplements
		return nil
	})
}

func (m *Machine) SetQuantity(n int) error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "set_quantity", enums.ScreenCustomize); err != nil {
			return err
		}
		if n < 1 {
			return invalid("quantity must be at least 1")
		}
		if n > m.limits.MaxCartItems {
			return invalid("quantity exceeds the cart limit")
		}
		s.Quantity = n
		return nil
	})
}

// AddToCart freezes the current customization into a cart line and returns
// to the menu.
func (m *Machine) AddToCart() (CartLine, error) {
	var added CartLine
	err := m.mutate(func(s *Session) error {
		if err := onScreen(s, "add_to_cart", enums.ScreenCustomize); err != nil {
			return err
		}
		if s.SelectedProduct == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no product selected")
		}

		idx := -1
		id := m.newID()
		if s.EditingLineID != "" {
			idx = s.lineIndex(s.EditingLineID)
			if idx >= 0 {
				id = s.EditingLineID
			}
		}
		line := newCartLine(id, *s.SelectedProduct, s.ProductComplements, s.RemovedIngredients, s.Quantity)

		units := pricing.ItemCount(s.Cart) + line.Quantity
		if idx >= 0 {
			units -= s.Cart[idx].Quantity
		}
		if units > m.limits.MaxCartItems {
			return invalid("cart item limit reached")
		}

		if idx >= 0 {
			s.Cart[idx] = line
		} else {
			s.Cart = append(s.Cart, line)
		}
		s.clearSelection()
		s.Screen = enums.ScreenMain
		added = line
		return nil
	})
	return added, err
}

// CancelCustomization drops the current selection and returns to the menu.
func (m *Machine) CancelCustomization() error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "cancel_customization", enums.ScreenCustomize); err != nil {
			return err
		}
		s.clearSelection()
		s.Screen = enums.ScreenMain
		return nil
	})
}

func (m *Machine) OpenCart() error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "open_cart", enums.ScreenMain, enums.ScreenCustomize); err != nil {
			return err
		}
		if len(s.Cart) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
		}
		s.clearSelection()
		s.Screen = enums.ScreenCart
		return nil
	})
}

func (m *Machine) BackToMenu() error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "back_to_menu", enums.ScreenCart); err != nil {
			return err
		}
		s.Screen = enums.ScreenMain
		return nil
	})
}

// ChangeQuantity adds delta to a line; a line reaching zero is removed.
func (m *Machine) ChangeQuantity(lineID string, delta int) error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "change_quantity", enums.ScreenCart, enums.ScreenMain); err != nil {
			return err
		}
		idx := s.lineIndex(lineID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		next := s.Cart[idx].Quantity + delta
		if next <= 0 {
			removeLine(s, idx)
			return nil
		}
		if delta > 0 && pricing.ItemCount(s.Cart)+delta > m.limits.MaxCartItems {
			return invalid("cart item limit reached")
		}
		s.Cart[idx].setQuantity(next)
		return nil
	})
}

func (m *Machine) RemoveLine(lineID string) error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "remove_line", enums.ScreenCart, enums.ScreenMain); err != nil {
			return err
		}
		idx := s.lineIndex(lineID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		removeLine(s, idx)
		return nil
	})
}

func (m *Machine) ClearCart() error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "clear_cart", enums.ScreenCart, enums.ScreenMain); err != nil {
			return err
		}
		s.Cart = []CartLine{}
		if s.Screen == enums.ScreenCart {
			s.Screen = enums.ScreenMain
		}
		return nil
	})
}

// removeLine drops the line at idx and leaves an emptied cart screen.
func removeLine(s *Session, idx int) {
	s.Cart = append(s.Cart[:idx:idx], s.Cart[idx+1:]...)
	if len(s.Cart) == 0 && s.Screen == enums.ScreenCart {
		s.Screen = enums.ScreenMain
	}
}

// Checkout moves a non-empty cart to the customer data screen.
func (m *Machine) Checkout() error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "checkout", enums.ScreenCart); err != nil {
			return err
		}
		if len(s.Cart) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
		}
		s.InputStep = enums.InputStepReceipt
		s.Screen = enums.ScreenCustomerData
		return nil
	})
}

// BackToCart leaves customer data entry without losing what was typed.
func (m *Machine) BackToCart() error {
	return m.mutate(func(s *Session) error {
		if err := onScreen(s, "back_to_cart", enums.ScreenCustomerData); err != nil {
			return err
		}
		s.InputStep = enums.InputStepReceipt
		s.Screen = enums.ScreenCart
		return nil
	})
}

// ChooseReceipt answers the receipt question; only a receipt asks for a CPF.
func (m *Machine) ChooseReceipt(wantsReceipt bool) error {
	return m.mutate(func(s *Session) error {
		if err := onStep(s, "choose_receipt", enums.InputStepReceipt); err != nil {
			return err
		}
		s.Customer.WantsReceipt = wantsReceipt
		if wantsReceipt {
			s.InputStep = enums.InputStepCPF
		} else {
			s.InputStep = enums.InputStepName
		}
		return nil
	})
}

func (m *Machine) CPFDigit(d string) error {
	return m.mutate(func(s *Session) error {
		if err := onStep(s, "cpf_digit", enums.InputStepCPF); err != nil {
			return err
		}
		if len(d) != 1 || d[0] < '0' || d[0] > '9' {
			return invalid("cpf input must be a single digit")
		}
		s.Customer.CPF = cpf.AppendDigit(s.Customer.CPF, d)
		return nil
	})
}

func (m *Machine) CPFBackspace() error {
	return m.mutate(func(s *Session) error {
		if err := onStep(s, "cpf_backspace", enums.InputStepCPF); err != nil {
			return err
		}
		s.Customer.CPF = cpf.Backspace(s.Customer.CPF)
		return nil
	})
}

func (m *Machine) CPFClear() error {
	return m.mutate(func(s *Session) error {
		if err := onStep(s, "cpf_clear", enums.InputStepCPF); err != nil {
			return err
		}
		s.Customer.CPF = ""
		return nil
	})
}

// ConfirmCPF advances only with a complete and valid CPF.
func (m *Machine) ConfirmCPF() error {
	return m.mutate(func(s *Session) error {
		if err := onStep(s, "confirm_cpf", enums.InputStepCPF); err != nil {
			return err
		}
		if !cpf.IsComplete(s.Customer.CPF) || !cpf.Validate(s.Customer.CPF) {
			return pkgerrors.New(pkgerrors.CodeValidation, "cpf is incomplete or invalid").
				WithDetails(map[string]string{"cpf_status": string(cpf.Check(s.Customer.CPF))})
		}
		s.InputStep = enums.InputStepName
		return nil
	})
}

// SkipCPF moves on to the name step regardless of what was typed.
func (m *Machine) SkipCPF() error {
	return m.mutate(func(s *Session) error {
		if err := onStep(s, "skip_cpf", enums.InputStepCPF); err != nil {
			return err
		}
		s.InputStep = enums.InputStepName
		return nil
	})
}

// NameType appends keyboard input up to the configured length.
func (m *Machine) NameType(text string) error {
	return m.mutate(func(s *Session) error {
		if err := onStep(s, "name_type", enums.InputStepName); err != nil {
			return err
		}
		for _, r := range text {
			if utf8.RuneCountInString(s.Customer.Name) >= m.limits.MaxNameLen {
				break
			}
			if r == ' ' {
				if s.Customer.Name == "" || strings.HasSuffix(s.Customer.Name, " ") {
					continue
				}
			}
			s.Customer.Name += string(r)
		}
		return nil
	})
}

// NameSpace adds a single separating space.
func (m *Machine) NameSpace() error {
	return m.NameType(" ")
}

func (m *Machine) NameBackspace() error {
	return m.mutate(func(s *Session) error {
		if err := onStep(s, "name_backspace", enums.InputStepName); err != nil {
			return err
		}
		if s.Customer.Name == "" {
			return nil
		}
		_, size := utf8.DecodeLastRuneInString(s.Customer.Name)
		s.Customer.Name = s.Customer.Name[:len(s.Customer.Name)-size]
		return nil
	})
}

func (m *Machine) NameClear() error {
	return m.mutate(func(s *Session) error {
		if err := onStep(s, "name_clear", enums.InputStepName); err != nil {
			return err
		}
		s.Customer.Name = ""
		return nil
	})
}

func (m *Machine) ConfirmName() error {
	return m.mutate(func(s *Session) error {
		if err := onStep(s, "confirm_name", enums.InputStepName); err != nil {
			return err
		}
		s.Customer.Name = strings.TrimSpace(s.Customer.Name)
		s.InputStep = enums.InputStepPayment
		return nil
	})
}

// PreviousStep walks the customer data steps backwards.
func (m *Machine) PreviousStep() error {
	return m.mutate(func(s *Session) error {
		if err := onStep(s, "previous_step", enums.InputStepCPF, enums.InputStepName, enums.InputStepPayment); err != nil {
			return err
		}
		switch s.InputStep {
		case enums.InputStepPayment:
			s.InputStep = enums.InputStepName
		case enums.InputStepName:
			if s.Customer.WantsReceipt {
				s.InputStep = enums.InputStepCPF
			} else {
				s.InputStep = enums.InputStepReceipt
			}
		default:
			s.InputStep = enums.InputStepReceipt
		}
		return nil
	})
}

// SelectPayment records the method and derives the card type from it.
func (m *Machine) SelectPayment(method enums.PaymentMethod) error {
	return m.mutate(func(s *Session) error {
		if err := onStep(s, "select_payment", enums.InputStepPayment); err != nil {
			return err
		}
		if !method.IsValid() {
			return invalid("unknown payment method")
		}
		s.PaymentMethod = method
		s.CardType = method.CardType()
		return nil
	})
}

// ReadyToSubmit reports whether the payment step may be submitted.
func (m *Machine) ReadyToSubmit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return readyToSubmit(&m.state)
}

func readyToSubmit(s *Session) bool {
	if s.Screen != enums.ScreenCustomerData || s.InputStep != enums.InputStepPayment {
		return false
	}
	if len(s.Cart) == 0 || !s.OrderType.IsValid() || !s.PaymentMethod.IsValid() {
		return false
	}
	if s.PaymentMethod.IsCard() && !s.CardType.IsValid() {
		return false
	}
	return true
}

// Finalize takes the order draft and resets the session in one step, before
// any persistence starts.
func (m *Machine) Finalize() (Draft, error) {
	var draft Draft
	err := m.mutate(func(s *Session) error {
		if s.SystemError != "" || s.ShowAdmin {
			return overlayError("submit")
		}
		if !readyToSubmit(s) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not ready to submit")
		}
		snapshot := s.clone()
		draft = Draft{
			OrderType:     snapshot.OrderType,
			Customer:      snapshot.Customer,
			PaymentMethod: snapshot.PaymentMethod,
			CardType:      snapshot.CardType,
			Lines:         snapshot.Cart,
			Total:         pricing.CartTotal(snapshot.Cart),
			ItemCount:     pricing.ItemCount(snapshot.Cart),
		}
		*s = newSession()
		return nil
	})
	return draft, err
}

// Reset wipes the aggregate back to the welcome screen.
func (m *Machine) Reset() {
	_ = m.mutate(func(s *Session) error {
		*s = newSession()
		return nil
	})
}

func (m *Machine) OpenAdmin() {
	_ = m.mutate(func(s *Session) error {
		s.ShowAdmin = true
		return nil
	})
}

func (m *Machine) CloseAdmin() {
	_ = m.mutate(func(s *Session) error {
		s.ShowAdmin = false
		return nil
	})
}

// RaiseError puts the error overlay over whatever screen is active.
func (m *Machine) RaiseError(kind enums.SystemError) error {
	return m.mutate(func(s *Session) error {
		if !kind.IsValid() {
			return invalid("unknown system error")
		}
		s.SystemError = kind
		s.AutoRetryPaused = false
		return nil
	})
}

func (m *Machine) ClearError() {
	_ = m.mutate(func(s *Session) error {
		s.SystemError = ""
		s.AutoRetryPaused = false
		return nil
	})
}

// SetAutoRetryPaused pauses or resumes the network retry countdown.
func (m *Machine) SetAutoRetryPaused(paused bool) error {
	return m.mutate(func(s *Session) error {
		if s.SystemError == "" {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no error overlay is open")
		}
		s.AutoRetryPaused = paused
		return nil
	})
}

func (m *Machine) SetLoading(loading bool) {
	_ = m.mutate(func(s *Session) error {
		s.Loading = loading
		return nil
	})
}
