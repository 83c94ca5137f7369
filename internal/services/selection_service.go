package services

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/franciscosanchezn/pizza-storefront/internal/client"
	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// BuildStage is a step of the pizza builder
type BuildStage int

const (
	StageCrust BuildStage = iota
	StageSauce
	StageToppings
)

func (s BuildStage) String() string {
	switch s {
	case StageSauce:
		return "sauce"
	case StageToppings:
		return "toppings"
	default:
		return "crust"
	}
}

// MarshalText renders the stage by name in JSON
func (s BuildStage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SelectionService assembles one pizza before it goes to the cart
type SelectionService interface {
	// Selection returns a copy of the current selection
	Selection() models.PizzaSelection
	// Stage returns the current builder stage
	Stage() BuildStage
	// StageValid reports whether the current stage is satisfied
	StageValid() bool
	// Next advances to the next stage when the current one is satisfied
	Next() error
	// Back returns to the previous stage
	Back()
	// SelectCrust sets the crust
	SelectCrust(ctx context.Context, id int) error
	// ToggleSauce applies the family rule to a sauce
	ToggleSauce(ctx context.Context, id int) error
	// ToggleTopping applies the family rule to a topping
	ToggleTopping(ctx context.Context, id int) error
	// Validate asks the backend to validate and price the selection
	Validate(ctx context.Context) (*models.ValidationResult, error)
	// LastValidation returns the backend verdict for the current selection, if any
	LastValidation() *models.ValidationResult
	// Commit validates the selection and adds it to the cart
	Commit(ctx context.Context) error
	// Reset abandons the selection
	Reset()
	// LocalPrice is the advisory price computed from the catalog
	LocalPrice() decimal.Decimal
}

type selectionService struct {
	backend client.Backend
	menu    MenuService
	cart    CartService
	log     *logrus.Entry

	mu         sync.RWMutex
	selection  models.PizzaSelection
	stage      BuildStage
	validation *models.ValidationResult
}

// NewSelectionService creates a new instance of SelectionService
func NewSelectionService(backend client.Backend, menu MenuService, cart CartService, logger *logrus.Logger) SelectionService {
	return &selectionService{
		backend: backend,
		menu:    menu,
		cart:    cart,
		log:     logger.WithField("component", "selection"),
	}
}

func (s *selectionService) Selection() models.PizzaSelection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySelection(s.selection)
}

func copySelection(sel models.PizzaSelection) models.PizzaSelection {
	out := models.PizzaSelection{
		Sauces:   append([]models.Ingredient(nil), sel.Sauces...),
		Toppings: append([]models.Ingredient(nil), sel.Toppings...),
	}
	if sel.Crust != nil {
		crust := *sel.Crust
		out.Crust = &crust
	}
	return out
}

func (s *selectionService) Stage() BuildStage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stage
}

func (s *selectionService) StageValid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stageValid(s.selection, s.stage)
}

func stageValid(sel models.PizzaSelection, stage BuildStage) bool {
	switch stage {
	case StageCrust:
		return sel.HasCrust()
	case StageSauce:
		return sel.SaucesValid()
	default:
		return sel.ToppingsValid()
	}
}

func stageError(stage BuildStage) error {
	switch stage {
	case StageCrust:
		return models.NewValidationError("crust", "choose a crust")
	case StageSauce:
		return models.NewValidationError("sauce", fmt.Sprintf("choose one or %d sauces", models.MaxSauces))
	default:
		return models.NewValidationError("toppings", fmt.Sprintf("choose at least %d toppings", models.MinToppings))
	}
}

func (s *selectionService) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !stageValid(s.selection, s.stage) {
		return stageError(s.stage)
	}
	if s.stage == StageToppings {
		return models.NewValidationError("stage", "already at the last stage")
	}
	s.stage++
	return nil
}

func (s *selectionService) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage > StageCrust {
		s.stage--
	}
}

// resolve looks up id and checks it belongs to category and can be ordered
func (s *selectionService) resolve(ctx context.Context, id int, category models.Category) (models.Ingredient, error) {
	ing, err := s.menu.Lookup(ctx, id)
	if err != nil {
		return models.Ingredient{}, err
	}
	if ing.Category != category {
		return models.Ingredient{}, models.NewValidationError(string(category), fmt.Sprintf("%s is not a %s", ing.Name, category))
	}
	if !ing.Available {
		return models.Ingredient{}, models.NewValidationError(string(category), fmt.Sprintf("%s is not available", ing.Name))
	}
	return ing, nil
}

func (s *selectionService) SelectCrust(ctx context.Context, id int) error {
	crust, err := s.resolve(ctx, id, models.CategoryCrust)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.SetCrust(crust)
	s.validation = nil
	return nil
}

func (s *selectionService) ToggleSauce(ctx context.Context, id int) error {
	sauce, err := s.resolve(ctx, id, models.CategorySauce)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.selection.ToggleSauce(sauce); err != nil {
		return err
	}
	s.validation = nil
	return nil
}

func (s *selectionService) ToggleTopping(ctx context.Context, id int) error {
	topping, err := s.resolve(ctx, id, models.CategoryTopping)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.selection.ToggleTopping(topping); err != nil {
		return err
	}
	s.validation = nil
	return nil
}

func (s *selectionService) Validate(ctx context.Context) (*models.ValidationResult, error) {
	_, result, err := s.validate(ctx)
	return result, err
}

// validate checks a snapshot of the selection and returns that snapshot with the verdict
func (s *selectionService) validate(ctx context.Context) (models.PizzaSelection, *models.ValidationResult, error) {
	sel := s.Selection()
	for _, stage := range []BuildStage{StageCrust, StageSauce, StageToppings} {
		if !stageValid(sel, stage) {
			return sel, nil, stageError(stage)
		}
	}

	result, err := s.backend.ValidateSelection(ctx, sel.IngredientIDs())
	if err != nil {
		return sel, nil, fmt.Errorf("validating selection: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// the selection may have changed while the request was in flight
	if slices.Equal(sel.IngredientIDs(), s.selection.IngredientIDs()) {
		s.validation = result
	}
	if result.IsValid && !result.TotalPrice.Equal(sel.LocalPrice()) {
		s.log.WithFields(logrus.Fields{
			"local_price":  sel.LocalPrice().StringFixed(2),
			"server_price": result.TotalPrice.StringFixed(2),
		}).Info("Local price differs from validated price")
	}
	return sel, result, nil
}

func (s *selectionService) LastValidation() *models.ValidationResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.validation == nil {
		return nil
	}
	v := *s.validation
	return &v
}

func (s *selectionService) Commit(ctx context.Context) error {
	sel, result, err := s.validate(ctx)
	if err != nil {
		return err
	}
	if !result.IsValid {
		reason := result.Error
		if reason == "" {
			reason = "the backend rejected this pizza"
		}
		return models.NewValidationError("selection", reason)
	}

	// only the pizza the backend just approved may reach the cart
	if !slices.Equal(sel.IngredientIDs(), s.Selection().IngredientIDs()) {
		return models.NewValidationError("selection", "the pizza changed while it was being validated, please review it")
	}

	// on failure, including a login prompt, the pizza stays for a later commit
	if err := s.cart.AddPizza(ctx, *sel.Crust, sel.Sauces, sel.Toppings); err != nil {
		return err
	}
	s.log.WithField("ingredient_ids", sel.IngredientIDs()).Debug("Selection committed to cart")
	s.Reset()
	return nil
}

func (s *selectionService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = models.PizzaSelection{}
	s.stage = StageCrust
	s.validation = nil
}

func (s *selectionService) LocalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.LocalPrice()
}
