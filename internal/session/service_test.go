package session

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/totem-backend/internal/catalog"
	"github.com/angelmondragon/totem-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/angelmondragon/totem-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, now func() time.Time) Service {
	t.Helper()
	catalogSvc, err := catalog.NewService(catalog.ServiceParams{
		Primary: catalog.NewMockSource(),
		Logger:  logger.Nop(),
	})
	require.NoError(t, err)
	_, err = catalogSvc.Refresh(context.Background())
	require.NoError(t, err)

	svc, err := NewService(NewRegistry(DefaultLimits, now), catalogSvc, logger.Nop(), 3*time.Minute)
	require.NoError(t, err)
	return svc
}

func apply(t *testing.T, svc Service, kiosk string, action Action) View {
	t.Helper()
	view, err := svc.Apply(context.Background(), kiosk, action)
	require.NoError(t, err, "action %s", action.Type)
	return view
}

func TestServiceFullOrderFlow(t *testing.T) {
	svc := newTestService(t, nil)
	yes := true

	apply(t, svc, "kiosk-1", Action{Type: ActionStart})
	view := apply(t, svc, "kiosk-1", Action{Type: ActionSelectOrderType, OrderType: "dine-in"})
	assert.Equal(t, catalog.MockCategoryBestsellers, view.SelectedCategory)

	apply(t, svc, "kiosk-1", Action{Type: ActionSelectCategory, CategoryID: catalog.MockCategoryBurgers})
	apply(t, svc, "kiosk-1", Action{Type: ActionSelectProduct, ProductID: "1"})
	apply(t, svc, "kiosk-1", Action{Type: ActionToggleComplement, ComplementID: "1"})
	apply(t, svc, "kiosk-1", Action{Type: ActionToggleComplement, ComplementID: "2"})
	view = apply(t, svc, "kiosk-1", Action{Type: ActionSetQuantity, Quantity: 2})
	assert.Equal(t, "52.80", view.CustomizePrice)

	view = apply(t, svc, "kiosk-1", Action{Type: ActionAddToCart})
	assert.Equal(t, "main", view.EffectiveScreen)
	assert.Equal(t, 2, view.ItemCount)

	apply(t, svc, "kiosk-1", Action{Type: ActionOpenCart})
	apply(t, svc, "kiosk-1", Action{Type: ActionCheckout})
	apply(t, svc, "kiosk-1", Action{Type: ActionChooseReceipt, WantsReceipt: &yes})
	for _, d := range "52998224725" {
		apply(t, svc, "kiosk-1", Action{Type: ActionCPFDigit, Digit: string(d)})
	}
	apply(t, svc, "kiosk-1", Action{Type: ActionConfirmCPF})
	apply(t, svc, "kiosk-1", Action{Type: ActionNameType, Text: "Maria"})
	apply(t, svc, "kiosk-1", Action{Type: ActionConfirmName})
	view = apply(t, svc, "kiosk-1", Action{Type: ActionSelectPayment, PaymentMethod: "pix"})
	assert.True(t, view.ReadyToSubmit)
	assert.Equal(t, "529.982.247-25", view.Customer.CPF)

	other, err := svc.View(context.Background(), "kiosk-2")
	require.NoError(t, err)
	assert.Equal(t, enums.ScreenWelcome, other.Screen)
}

func TestServiceRejectsUnknownReferences(t *testing.T) {
	svc := newTestService(t, nil)
	apply(t, svc, "k", Action{Type: ActionStart})
	apply(t, svc, "k", Action{Type: ActionSelectOrderType, OrderType: "takeaway"})

	_, err := svc.Apply(context.Background(), "k", Action{Type: ActionSelectProduct, ProductID: "999"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Apply(context.Background(), "k", Action{Type: ActionSelectCategory, CategoryID: "nope"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Apply(context.Background(), "k", Action{Type: "dance"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Apply(context.Background(), "k", Action{Type: ActionChooseReceipt})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) || pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Apply(context.Background(), "bad id!", Action{Type: ActionStart})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceEditLineUsesCurrentCatalog(t *testing.T) {
	svc := newTestService(t, nil)
	apply(t, svc, "k", Action{Type: ActionStart})
	apply(t, svc, "k", Action{Type: ActionSelectOrderType, OrderType: "takeaway"})
	apply(t, svc, "k", Action{Type: ActionSelectProduct, ProductID: "2"})
	view := apply(t, svc, "k", Action{Type: ActionAddToCart})
	lineID := view.Cart[0].ID

	apply(t, svc, "k", Action{Type: ActionOpenCart})
	view = apply(t, svc, "k", Action{Type: ActionEditLine, LineID: lineID})
	require.NotNil(t, view.SelectedProduct)
	assert.NotEmpty(t, view.SelectedProduct.Ingredients)
	view = apply(t, svc, "k", Action{Type: ActionToggleIngredient, Ingredient: "Alface"})
	assert.Equal(t, []string{"Alface"}, view.RemovedIngredients)
}

func TestServiceErrorOverlayRetry(t *testing.T) {
	svc := newTestService(t, nil)
	view := apply(t, svc, "k", Action{Type: ActionRaiseError, ErrorKind: "network"})
	assert.Equal(t, OverlayError, view.EffectiveScreen)
	view = apply(t, svc, "k", Action{Type: ActionPauseRetry})
	assert.False(t, view.AutoRetry)
	view = apply(t, svc, "k", Action{Type: ActionRetry})
	assert.Equal(t, "welcome", view.EffectiveScreen)
	assert.False(t, view.Loading)
}

func TestServiceSweepIdle(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return now })
	apply(t, svc, "busy", Action{Type: ActionStart})
	_, err := svc.View(context.Background(), "fresh")
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	assert.Equal(t, []string{"busy"}, svc.SweepIdle(context.Background()))

	view, err := svc.View(context.Background(), "busy")
	require.NoError(t, err)
	assert.Equal(t, enums.ScreenWelcome, view.Screen)
}
