// Package client is the typed wrapper around the pizza backend REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/sirupsen/logrus"
)

// Credentials supplies the bearer token and is told when the backend rejects it
type Credentials interface {
	Token() string
	Revoke(ctx context.Context)
}

// Backend is one method per backend operation
type Backend interface {
	// Login exchanges credentials for a token and the user record
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	// Register creates an account and logs it in
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	// CurrentUser resolves the bearer token to a user
	CurrentUser(ctx context.Context) (*models.User, error)
	// ListIngredients returns the ingredient catalog
	ListIngredients(ctx context.Context) ([]models.Ingredient, error)
	// ValidateSelection asks the backend to validate and price a selection
	ValidateSelection(ctx context.Context, ingredientIDs []int) (*models.ValidationResult, error)
	// ListCart returns the lines of the user's cart
	ListCart(ctx context.Context) ([]models.CartPizza, error)
	// AddCartItem persists a new cart line
	AddCartItem(ctx context.Context, req models.AddCartItemRequest) (*models.CartPizza, error)
	// UpdateCartItem changes the quantity of a cart line
	UpdateCartItem(ctx context.Context, pizzaID string, quantity int) error
	// DeleteCartItem removes one cart line
	DeleteCartItem(ctx context.Context, pizzaID string) error
	// ClearCart removes every cart line
	ClearCart(ctx context.Context) error
	// ListOrders returns the user's order history
	ListOrders(ctx context.Context) ([]models.Order, error)
	// CreateOrder records one ingredient of one pizza of an order
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) error
}

// Option configures the HTTP backend
type Option func(*httpBackend)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(b *httpBackend) { b.http = c }
}

// WithTimeout bounds every request; zero means no timeout
func WithTimeout(d time.Duration) Option {
	return func(b *httpBackend) { b.http.Timeout = d }
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *logrus.Logger) Option {
	return func(b *httpBackend) { b.log = logger.WithField("component", "backend_client") }
}

type httpBackend struct {
	baseURL string
	http    *http.Client
	creds   Credentials
	log     *logrus.Entry
}

// NewBackend creates a Backend talking to baseURL
func NewBackend(baseURL string, creds Credentials, opts ...Option) Backend {
	b := &httpBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		creds:   creds,
		log:     logrus.StandardLogger().WithField("component", "backend_client"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *httpBackend) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := b.do(ctx, "login", http.MethodPost, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *httpBackend) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := b.do(ctx, "register", http.MethodPost, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *httpBackend) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := b.do(ctx, "current user", http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (b *httpBackend) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := b.do(ctx, "list ingredients", http.MethodGet, "/ingredients", nil, &ingredients); err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (b *httpBackend) ValidateSelection(ctx context.Context, ingredientIDs []int) (*models.ValidationResult, error) {
	body := struct {
		IngredientIDs []int `json:"ingredientIds"`
	}{IngredientIDs: ingredientIDs}

	var result models.ValidationResult
	if err := b.do(ctx, "validate selection", http.MethodPost, "/ingredients/validate", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (b *httpBackend) ListCart(ctx context.Context) ([]models.CartPizza, error) {
	var lines []cartLine
	if err := b.do(ctx, "list cart", http.MethodGet, "/cart", nil, &lines); err != nil {
		return nil, err
	}
	pizzas := make([]models.CartPizza, 0, len(lines))
	for _, line := range lines {
		pizzas = append(pizzas, line.toModel())
	}
	return pizzas, nil
}

func (b *httpBackend) AddCartItem(ctx context.Context, req models.AddCartItemRequest) (*models.CartPizza, error) {
	var line cartLine
	if err := b.do(ctx, "add cart item", http.MethodPost, "/cart", req, &line); err != nil {
		return nil, err
	}
	pizza := line.toModel()
	return &pizza, nil
}

func (b *httpBackend) UpdateCartItem(ctx context.Context, pizzaID string, quantity int) error {
	body := models.UpdateCartItemRequest{Quantity: quantity}
	return b.do(ctx, "update cart item", http.MethodPut, "/cart/"+url.PathEscape(pizzaID), body, nil)
}

func (b *httpBackend) DeleteCartItem(ctx context.Context, pizzaID string) error {
	return b.do(ctx, "delete cart item", http.MethodDelete, "/cart/"+url.PathEscape(pizzaID), nil, nil)
}

func (b *httpBackend) ClearCart(ctx context.Context) error {
	return b.do(ctx, "clear cart", http.MethodDelete, "/cart", nil, nil)
}

func (b *httpBackend) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := b.do(ctx, "list orders", http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (b *httpBackend) CreateOrder(ctx context.Context, req models.CreateOrderRequest) error {
	return b.do(ctx, "create order", http.MethodPost, "/orders", req, nil)
}

// isAuthPath reports whether an authentication rejection on path is a login
// failure rather than an expired session
func isAuthPath(path string) bool {
	return path == "/auth/login" || path == "/auth/register"
}

// do issues one request and decodes the response into out (when non-nil)
func (b *httpBackend) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := b.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := b.http.Do(req)
	if err != nil {
		b.log.WithFields(logrus.Fields{"op": op, "path": path}).WithError(err).Warn("Backend unreachable")
		return &models.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.NetworkError{Op: op, Err: err}
	}

	b.log.WithFields(logrus.Fields{
		"op":       op,
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("Backend call")

	if resp.StatusCode == http.StatusUnauthorized && !isAuthPath(path) {
		b.log.WithField("op", op).Info("Backend rejected the session token")
		b.creds.Revoke(ctx)
		return fmt.Errorf("%s: %w", op, models.ErrSessionExpired)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeFailure(op, path, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &models.ServerError{Op: op, Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}

// errorBody covers the error shapes the backend is known to send
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func (e errorBody) reason() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func decodeFailure(op, path string, status int, data []byte) error {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		body.Message = strings.TrimSpace(string(data))
	}

	if isAuthPath(path) && status >= 400 && status < 500 {
		return classifyAuthError(status, body)
	}
	return &models.ServerError{Op: op, Status: status, Code: body.Code, Message: body.reason()}
}

// classifyAuthError maps a login/register rejection onto the recovery the UI offers
func classifyAuthError(status int, body errorBody) *models.AuthError {
	authErr := &models.AuthError{Kind: models.AuthOther, Status: status, Reason: body.reason()}

	switch strings.ToUpper(body.Code) {
	case "NO_SUCH_ACCOUNT", "USER_NOT_FOUND":
		authErr.Kind = models.AuthNoSuchAccount
		return authErr
	case "WRONG_PASSWORD", "INVALID_PASSWORD":
		authErr.Kind = models.AuthWrongPassword
		return authErr
	}

	if status == http.StatusNotFound {
		authErr.Kind = models.AuthNoSuchAccount
		return authErr
	}

	reason := strings.ToLower(authErr.Reason)
	switch {
	case strings.Contains(reason, "not found"), strings.Contains(reason, "no account"), strings.Contains(reason, "does not exist"):
		authErr.Kind = models.AuthNoSuchAccount
	case strings.Contains(reason, "password"):
		authErr.Kind = models.AuthWrongPassword
	}
	return authErr
}

// IsSessionExpired reports whether err came from an authentication rejection
func IsSessionExpired(err error) bool {
	return errors.Is(err, models.ErrSessionExpired)
}
