package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/franciscosanchezn/pizza-storefront/internal/client"
	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OrderService turns the cart into orders and keeps the order history
type OrderService interface {
	// Checkout places the whole cart as one order and returns its id
	Checkout(ctx context.Context) (string, error)
	// History reloads the order history
	History(ctx context.Context) ([]models.Order, error)
	// Orders returns the last loaded order history
	Orders() []models.Order
	// IsLoading reports whether a history load is in flight
	IsLoading() bool
	// IsPlacing reports whether a checkout is in progress
	IsPlacing() bool
}

type orderService struct {
	backend  client.Backend
	session  SessionService
	cart     CartService
	notifier Notifier
	log      *logrus.Entry

	mu         sync.RWMutex
	orders     []models.Order
	generation int
	loading    bool
	placing    bool
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(backend client.Backend, session SessionService, cart CartService, notifier Notifier, logger *logrus.Logger) OrderService {
	s := &orderService{
		backend:  backend,
		session:  session,
		cart:     cart,
		notifier: notifier,
		log:      logger.WithField("component", "orders"),
	}
	session.Subscribe(s.onSessionChange)
	return s
}

func (s *orderService) onSessionChange(_ context.Context, change SessionChange) {
	if change.State != SessionAnonymous {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.orders = nil
	s.loading = false
}

func (s *orderService) Checkout(ctx context.Context) (string, error) {
	if !s.session.IsAuthenticated() {
		notify(s.notifier, NotifyLoginRequired, "Please log in to place an order")
		return "", models.ErrLoginRequired
	}
	items := s.cart.Items()
	if len(items) == 0 {
		return "", models.NewValidationError("cart", "your cart is empty")
	}

	s.mu.Lock()
	if s.placing {
		s.mu.Unlock()
		return "", models.NewValidationError("cart", "a checkout is already in progress")
	}
	s.placing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.placing = false
		s.mu.Unlock()
	}()

	orderID := "ORD-" + uuid.NewString()
	logger := s.log.WithField("order_id", orderID)
	logger.WithField("lines", len(items)).Info("Placing order")

	created := 0
	cartItemID := 0
	for _, line := range items {
		for unit := 0; unit < line.Quantity; unit++ {
			cartItemID++
			for _, ingredientID := range line.IngredientIDs() {
				err := s.backend.CreateOrder(ctx, models.CreateOrderRequest{
					OrderID:      orderID,
					CartItemID:   cartItemID,
					IngredientID: ingredientID,
				})
				if err != nil {
					logger.WithError(err).WithField("created", created).Warn("Checkout failed")
					notify(s.notifier, NotifyFailure, fmt.Sprintf("Checkout failed: %v", err))
					return orderID, &models.PartialCheckoutFailure{OrderID: orderID, Created: created, Err: err}
				}
				created++
			}
		}
	}

	logger.WithFields(logrus.Fields{"pizzas": cartItemID, "rows": created}).Info("Order placed")
	notify(s.notifier, NotifySuccess, fmt.Sprintf("%d pizza(s) ordered successfully (order %s)", cartItemID, orderID))

	var clearErr error
	if err := s.cart.ClearCart(ctx); err != nil {
		logger.WithError(err).Warn("Order placed but the cart could not be cleared")
		clearErr = fmt.Errorf("order %s placed but clearing the cart failed: %w", orderID, err)
	}
	if _, err := s.History(ctx); err != nil {
		logger.WithError(err).Warn("Failed to refresh order history")
	}
	return orderID, clearErr
}

func (s *orderService) History(ctx context.Context) ([]models.Order, error) {
	if !s.session.IsAuthenticated() {
		return nil, models.ErrLoginRequired
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.loading = true
	s.mu.Unlock()

	orders, err := s.backend.ListOrders(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if gen == s.generation {
			s.loading = false
		}
		return nil, fmt.Errorf("loading order history: %w", err)
	}
	if gen != s.generation {
		s.log.WithField("generation", gen).Debug("Discarding superseded order history load")
		return append([]models.Order(nil), s.orders...), nil
	}
	s.loading = false
	s.orders = orders
	return append([]models.Order(nil), orders...), nil
}

func (s *orderService) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Order(nil), s.orders...)
}

func (s *orderService) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *orderService) IsPlacing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.placing
}
