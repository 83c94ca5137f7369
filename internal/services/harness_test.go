package services

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/franciscosanchezn/pizza-storefront/internal/auth"
	"github.com/franciscosanchezn/pizza-storefront/internal/client"
	"github.com/franciscosanchezn/pizza-storefront/internal/fakebackend"
	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "secret123"
)

// harness wires every service against a fake backend, the way cmd/main.go does
type harness struct {
	fake      *fakebackend.Server
	server    *httptest.Server
	store     *auth.MemoryTokenStore
	tokens    *auth.TokenHolder
	backend   client.Backend
	inbox     *Inbox
	session   SessionService
	menu      MenuService
	cart      CartService
	selection SelectionService
	orders    OrderService
	userID    int
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newHarness(t *testing.T, opts ...fakebackend.Option) *harness {
	return newHarnessWithToken(t, "", opts...)
}

func newHarnessWithToken(t *testing.T, storedToken string, opts ...fakebackend.Option) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake, err := fakebackend.New(opts...)
	require.NoError(t, err)
	server := httptest.NewServer(fake.Handler())
	t.Cleanup(func() {
		server.Close()
		_ = fake.Close()
	})

	user, err := fake.CreateUser(context.Background(), "alice", testEmail, testPassword)
	require.NoError(t, err)

	h := &harness{fake: fake, server: server, userID: user.ID}
	h.wire(t, storedToken)
	return h
}

func (h *harness) wire(t *testing.T, storedToken string) {
	t.Helper()
	logger := testLogger()

	h.store = auth.NewMemoryTokenStore(storedToken)
	tokens, err := auth.NewTokenHolder(context.Background(), h.store, logger)
	require.NoError(t, err)
	h.tokens = tokens

	h.backend = client.NewBackend(h.server.URL, tokens, client.WithTimeout(5*time.Second), client.WithLogger(logger))
	h.inbox = NewInbox(20)
	h.session = NewSessionService(h.backend, tokens, logger)
	h.menu = NewMenuService(h.backend, logger)
	h.cart = NewCartService(h.backend, h.session, h.inbox, logger)
	h.selection = NewSelectionService(h.backend, h.menu, h.cart, logger)
	h.orders = NewOrderService(h.backend, h.session, h.cart, h.inbox, logger)
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	_, err := h.session.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
}

// buildPizza drives the selection service through every stage
func (h *harness) buildPizza(t *testing.T, crust int, sauces []int, toppings []int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.selection.SelectCrust(ctx, crust))
	require.NoError(t, h.selection.Next())
	for _, id := range sauces {
		require.NoError(t, h.selection.ToggleSauce(ctx, id))
	}
	require.NoError(t, h.selection.Next())
	for _, id := range toppings {
		require.NoError(t, h.selection.ToggleTopping(ctx, id))
	}
}

// addPizza puts a pizza straight into the cart
func (h *harness) addPizza(t *testing.T, ids ...int) {
	t.Helper()
	ctx := context.Background()
	var crust models.Ingredient
	var sauces, toppings []models.Ingredient
	for _, id := range ids {
		ing, err := h.menu.Lookup(ctx, id)
		require.NoError(t, err)
		switch ing.Category {
		case models.CategoryCrust:
			crust = ing
		case models.CategorySauce:
			sauces = append(sauces, ing)
		default:
			toppings = append(toppings, ing)
		}
	}
	require.NoError(t, h.cart.AddPizza(ctx, crust, sauces, toppings))
}

func (h *harness) notifications(kind NotificationKind) []Notification {
	var out []Notification
	for _, n := range h.inbox.Drain() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// stubSession is a fixed session for services tested against a stub backend
type stubSession struct {
	authenticated bool
	listeners     []SessionListener
}

func (s *stubSession) Login(context.Context, string, string) (*models.User, error) { return nil, nil }
func (s *stubSession) Register(context.Context, models.RegisterRequest) (*models.User, error) {
	return nil, nil
}
func (s *stubSession) Logout(context.Context) error  { return nil }
func (s *stubSession) Restore(context.Context) error { return nil }
func (s *stubSession) State() SessionState {
	if s.authenticated {
		return SessionAuthenticated
	}
	return SessionAnonymous
}
func (s *stubSession) User() *models.User                 { return nil }
func (s *stubSession) IsAuthenticated() bool              { return s.authenticated }
func (s *stubSession) Subscribe(listener SessionListener) { s.listeners = append(s.listeners, listener) }
func (s *stubSession) LastError() error                   { return nil }
func (s *stubSession) ClearError()                        {}

func (s *stubSession) emit(state SessionState) {
	s.authenticated = state == SessionAuthenticated
	for _, l := range s.listeners {
		l(context.Background(), SessionChange{State: state})
	}
}

// stubBackend overrides selected Backend methods; unset methods panic
type stubBackend struct {
	client.Backend
	listCart          func(ctx context.Context) ([]models.CartPizza, error)
	listOrders        func(ctx context.Context) ([]models.Order, error)
	validateSelection func(ctx context.Context, ids []int) (*models.ValidationResult, error)
	listIngredients   func(ctx context.Context) ([]models.Ingredient, error)
}

func (b *stubBackend) ListCart(ctx context.Context) ([]models.CartPizza, error) {
	return b.listCart(ctx)
}

func (b *stubBackend) ListOrders(ctx context.Context) ([]models.Order, error) {
	return b.listOrders(ctx)
}

func (b *stubBackend) ValidateSelection(ctx context.Context, ids []int) (*models.ValidationResult, error) {
	return b.validateSelection(ctx, ids)
}

func (b *stubBackend) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	return b.listIngredients(ctx)
}
