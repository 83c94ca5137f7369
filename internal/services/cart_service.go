package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/franciscosanchezn/pizza-storefront/internal/client"
	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const loginPromptMessage = "Please log in to add pizzas to your cart"

// CartService keeps a local copy of the backend cart. Every write is followed
// by a full reload, so the local copy is always a backend snapshot.
type CartService interface {
	// AddPizza adds one pizza; anonymous users get the login prompt instead
	AddPizza(ctx context.Context, crust models.Ingredient, sauces, toppings []models.Ingredient) error
	// UpdateQuantity sets the quantity of a line; quantities below 1 are rejected
	UpdateQuantity(ctx context.Context, pizzaID string, quantity int) error
	// RemovePizza deletes one line
	RemovePizza(ctx context.Context, pizzaID string) error
	// ClearCart deletes every line
	ClearCart(ctx context.Context) error
	// Reload replaces the local copy with the backend cart
	Reload(ctx context.Context) error
	// Items returns the cart lines
	Items() []models.CartPizza
	// TotalItems sums the line quantities
	TotalItems() int
	// TotalPrice sums unit price times quantity over every line
	TotalPrice() decimal.Decimal
	// IsLoading reports whether a reload is in flight
	IsLoading() bool
	// LoginPromptVisible reports whether the login prompt is raised
	LoginPromptVisible() bool
	// DismissLoginPrompt lowers the login prompt
	DismissLoginPrompt()
}

type cartService struct {
	backend  client.Backend
	session  SessionService
	notifier Notifier
	log      *logrus.Entry

	mu          sync.RWMutex
	items       []models.CartPizza
	generation  int
	loading     bool
	loginPrompt bool
}

// NewCartService creates a new instance of CartService bound to the session
func NewCartService(backend client.Backend, session SessionService, notifier Notifier, logger *logrus.Logger) CartService {
	s := &cartService{
		backend:  backend,
		session:  session,
		notifier: notifier,
		log:      logger.WithField("component", "cart"),
	}
	session.Subscribe(s.onSessionChange)
	return s
}

func (s *cartService) onSessionChange(ctx context.Context, change SessionChange) {
	switch change.State {
	case SessionAuthenticated:
		s.mu.Lock()
		s.loginPrompt = false
		s.mu.Unlock()
		if err := s.Reload(ctx); err != nil {
			s.log.WithError(err).Warn("Failed to load cart after login")
		}
	case SessionAnonymous:
		s.reset()
	}
}

// reset empties the local cart and supersedes any in-flight reload
func (s *cartService) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.items = nil
	s.loading = false
}

func (s *cartService) AddPizza(ctx context.Context, crust models.Ingredient, sauces, toppings []models.Ingredient) error {
	if !s.session.IsAuthenticated() {
		s.mu.Lock()
		s.loginPrompt = true
		s.mu.Unlock()
		notify(s.notifier, NotifyLoginRequired, loginPromptMessage)
		return models.ErrLoginRequired
	}

	req := models.AddCartItemRequest{
		CrustID:    crust.ID,
		SauceIDs:   ids(sauces),
		ToppingIDs: ids(toppings),
		Quantity:   1,
	}
	if _, err := s.backend.AddCartItem(ctx, req); err != nil {
		return fmt.Errorf("adding pizza to cart: %w", err)
	}
	s.log.WithField("crust_id", crust.ID).Debug("Pizza added to cart")
	return s.Reload(ctx)
}

func (s *cartService) UpdateQuantity(ctx context.Context, pizzaID string, quantity int) error {
	if quantity < 1 {
		return models.NewValidationError("quantity", "quantity must be at least 1")
	}
	if err := s.requireSession(); err != nil {
		return err
	}
	if err := s.backend.UpdateCartItem(ctx, pizzaID, quantity); err != nil {
		return fmt.Errorf("updating cart item %s: %w", pizzaID, err)
	}
	return s.Reload(ctx)
}

func (s *cartService) RemovePizza(ctx context.Context, pizzaID string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	if err := s.backend.DeleteCartItem(ctx, pizzaID); err != nil {
		return fmt.Errorf("removing cart item %s: %w", pizzaID, err)
	}
	return s.Reload(ctx)
}

func (s *cartService) ClearCart(ctx context.Context) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	if err := s.backend.ClearCart(ctx); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return s.Reload(ctx)
}

func (s *cartService) requireSession() error {
	if !s.session.IsAuthenticated() {
		return models.ErrLoginRequired
	}
	return nil
}

func (s *cartService) Reload(ctx context.Context) error {
	if !s.session.IsAuthenticated() {
		s.reset()
		return nil
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.loading = true
	s.mu.Unlock()

	lines, err := s.backend.ListCart(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if gen == s.generation {
			s.loading = false
		}
		return fmt.Errorf("loading cart: %w", err)
	}
	if gen != s.generation {
		s.log.WithField("generation", gen).Debug("Discarding superseded cart load")
		return nil
	}
	s.loading = false
	s.items = s.sanitize(lines)
	return nil
}

// sanitize drops crust-less lines and fills in missing ids and quantities
func (s *cartService) sanitize(lines []models.CartPizza) []models.CartPizza {
	items := make([]models.CartPizza, 0, len(lines))
	for _, line := range lines {
		if line.Crust == nil {
			s.log.WithField("pizza_id", line.ID).Warn("Dropping cart line without a crust")
			continue
		}
		if line.Quantity < 1 {
			line.Quantity = 1
		}
		if line.ID == "" {
			line.ID = "PIZZA-" + uuid.NewString()
		}
		items = append(items, line)
	}
	return items
}

func (s *cartService) Items() []models.CartPizza {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CartPizza(nil), s.items...)
}

func (s *cartService) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

func (s *cartService) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (s *cartService) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *cartService) LoginPromptVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loginPrompt
}

func (s *cartService) DismissLoginPrompt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginPrompt = false
}

func ids(ingredients []models.Ingredient) []int {
	out := make([]int, 0, len(ingredients))
	for _, ing := range ingredients {
		out = append(out, ing.ID)
	}
	return out
}
