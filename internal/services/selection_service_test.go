package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagesAdvanceOnlyWhenValid(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.Equal(t, StageCrust, h.selection.Stage())
	assert.True(t, models.IsValidation(h.selection.Next()))

	require.NoError(t, h.selection.SelectCrust(ctx, 1))
	require.NoError(t, h.selection.Next())
	assert.Equal(t, StageSauce, h.selection.Stage())
	assert.False(t, h.selection.StageValid())
	assert.True(t, models.IsValidation(h.selection.Next()))

	require.NoError(t, h.selection.ToggleSauce(ctx, 10))
	require.NoError(t, h.selection.Next())
	assert.Equal(t, StageToppings, h.selection.Stage())

	require.NoError(t, h.selection.ToggleTopping(ctx, 24))
	assert.False(t, h.selection.StageValid(), "one topping is not enough")
	require.NoError(t, h.selection.ToggleTopping(ctx, 42))
	assert.True(t, h.selection.StageValid())

	h.selection.Back()
	assert.Equal(t, StageSauce, h.selection.Stage())
	h.selection.Back()
	h.selection.Back()
	assert.Equal(t, StageCrust, h.selection.Stage())
	assert.Len(t, h.selection.Selection().Toppings, 2, "going back keeps choices")
}

func TestSelectionRejectsWrongIngredients(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{name: "sauce as crust", call: func() error { return h.selection.SelectCrust(ctx, 10) }},
		{name: "unavailable crust", call: func() error { return h.selection.SelectCrust(ctx, 4) }},
		{name: "topping as sauce", call: func() error { return h.selection.ToggleSauce(ctx, 24) }},
		{name: "unavailable sauce", call: func() error { return h.selection.ToggleSauce(ctx, 16) }},
		{name: "crust as topping", call: func() error { return h.selection.ToggleTopping(ctx, 1) }},
		{name: "unknown id", call: func() error { return h.selection.ToggleTopping(ctx, 999) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, models.IsValidation(tt.call()))
		})
	}
	assert.Equal(t, models.PizzaSelection{}, h.selection.Selection())
}

func TestSauceFamilyRuleThroughService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.selection.ToggleSauce(ctx, 10)) // Regular Marinara
	require.NoError(t, h.selection.ToggleSauce(ctx, 13)) // Regular Pesto
	require.NoError(t, h.selection.ToggleSauce(ctx, 11)) // Extra Marinara replaces Regular Marinara

	sauces := h.selection.Selection().Sauces
	require.Len(t, sauces, 2)
	assert.Equal(t, "Extra Marinara", sauces[0].Name)
	assert.Equal(t, "Regular Pesto", sauces[1].Name)

	err := h.selection.ToggleSauce(ctx, 15) // a third family
	assert.True(t, models.IsValidation(err))
	assert.Len(t, h.selection.Selection().Sauces, 2)

	require.NoError(t, h.selection.ToggleSauce(ctx, 11))
	assert.Len(t, h.selection.Selection().Sauces, 1, "same variant deselects")
}

func TestValidateUsesServerPrice(t *testing.T) {
	h := newHarness(t)
	h.buildPizza(t, 1, []int{10}, []int{24, 42})

	result, err := h.selection.Validate(context.Background())
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.True(t, decimal.RequireFromString("8.00").Equal(result.TotalPrice))
	assert.True(t, h.selection.LocalPrice().Equal(result.TotalPrice))
	require.NotNil(t, h.selection.LastValidation())

	require.NoError(t, h.selection.ToggleTopping(context.Background(), 26))
	assert.Nil(t, h.selection.LastValidation(), "changing the pizza drops the old verdict")
}

func TestValidateIncompleteSelectionStaysLocal(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.selection.SelectCrust(context.Background(), 1))

	_, err := h.selection.Validate(context.Background())
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "sauce", vErr.Field)
	assert.Zero(t, h.fake.Calls("POST", "/ingredients/validate"))
}

func TestCommitAddsToCartAndResets(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.buildPizza(t, 2, []int{13}, []int{26, 56})

	require.NoError(t, h.selection.Commit(context.Background()))

	items := h.cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, []int{2, 13, 26, 56}, items[0].IngredientIDs())
	assert.Equal(t, models.PizzaSelection{}, h.selection.Selection())
	assert.Equal(t, StageCrust, h.selection.Stage())
}

func TestCommitWhenAnonymousKeepsSelection(t *testing.T) {
	h := newHarness(t)
	h.buildPizza(t, 2, []int{13}, []int{26, 56})

	err := h.selection.Commit(context.Background())
	assert.ErrorIs(t, err, models.ErrLoginRequired)
	assert.True(t, h.cart.LoginPromptVisible())
	assert.Len(t, h.selection.Selection().Toppings, 2)

	h.login(t)
	require.NoError(t, h.selection.Commit(context.Background()))
	assert.Len(t, h.cart.Items(), 1)
}

func TestCommitRejectedByServer(t *testing.T) {
	catalog := []models.Ingredient{
		{ID: 1, Name: "Classic", Price: decimal.RequireFromString("5"), Available: true, Category: models.CategoryCrust},
		{ID: 10, Name: "Regular Marinara", Price: decimal.RequireFromString("1"), Available: true, Category: models.CategorySauce},
		{ID: 24, Name: "Regular Mushrooms", Price: decimal.RequireFromString("1"), Available: true, Category: models.CategoryTopping},
		{ID: 25, Name: "Regular Onions", Price: decimal.RequireFromString("1"), Available: true, Category: models.CategoryTopping},
	}
	backend := &stubBackend{
		listIngredients: func(context.Context) ([]models.Ingredient, error) { return catalog, nil },
		validateSelection: func(context.Context, []int) (*models.ValidationResult, error) {
			return &models.ValidationResult{IsValid: false, Error: "Mushrooms are sold out"}, nil
		},
	}
	session := &stubSession{authenticated: true}
	logger := testLogger()
	menu := NewMenuService(backend, logger)
	cart := NewCartService(backend, session, nil, logger)
	selection := NewSelectionService(backend, menu, cart, logger)

	ctx := context.Background()
	require.NoError(t, selection.SelectCrust(ctx, 1))
	require.NoError(t, selection.ToggleSauce(ctx, 10))
	require.NoError(t, selection.ToggleTopping(ctx, 24))
	require.NoError(t, selection.ToggleTopping(ctx, 25))

	err := selection.Commit(ctx)
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Mushrooms are sold out", vErr.Message)
	assert.True(t, selection.Selection().Complete(), "rejected pizza is kept for editing")
}

func TestCommitRejectsSelectionChangedDuringValidation(t *testing.T) {
	catalog := []models.Ingredient{
		{ID: 1, Name: "Classic", Price: decimal.RequireFromString("5"), Available: true, Category: models.CategoryCrust},
		{ID: 10, Name: "Regular Marinara", Price: decimal.RequireFromString("1"), Available: true, Category: models.CategorySauce},
		{ID: 24, Name: "Regular Mushrooms", Price: decimal.RequireFromString("1"), Available: true, Category: models.CategoryTopping},
		{ID: 25, Name: "Regular Onions", Price: decimal.RequireFromString("1"), Available: true, Category: models.CategoryTopping},
		{ID: 26, Name: "Regular Peppers", Price: decimal.RequireFromString("1"), Available: true, Category: models.CategoryTopping},
	}
	var selection SelectionService
	var validated []int
	backend := &stubBackend{
		listIngredients: func(context.Context) ([]models.Ingredient, error) { return catalog, nil },
		validateSelection: func(ctx context.Context, ids []int) (*models.ValidationResult, error) {
			validated = ids
			// a concurrent request drops a topping while the backend is checking
			require.NoError(t, selection.ToggleTopping(ctx, 24))
			return &models.ValidationResult{IsValid: true, TotalPrice: decimal.RequireFromString("9")}, nil
		},
	}
	session := &stubSession{authenticated: true}
	logger := testLogger()
	menu := NewMenuService(backend, logger)
	cart := NewCartService(backend, session, nil, logger)
	selection = NewSelectionService(backend, menu, cart, logger)

	ctx := context.Background()
	require.NoError(t, selection.SelectCrust(ctx, 1))
	require.NoError(t, selection.ToggleSauce(ctx, 10))
	for _, id := range []int{24, 25, 26} {
		require.NoError(t, selection.ToggleTopping(ctx, id))
	}

	err := selection.Commit(ctx)
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "selection", vErr.Field)
	assert.Equal(t, []int{1, 10, 24, 25, 26}, validated)
	assert.Empty(t, cart.Items(), "nothing reaches the cart")
	assert.Equal(t, []int{1, 10, 25, 26}, selection.Selection().IngredientIDs(), "the changed pizza is kept for review")
	assert.Nil(t, selection.LastValidation())
}
