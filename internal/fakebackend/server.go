// Package fakebackend is an in-process implementation of the pizza backend REST API.
// It backs the client and service tests and the local development script.
package fakebackend

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.WarnLevel)
}

// SetLevel sets the fake backend's log level
func SetLevel(level logrus.Level) {
	log.SetLevel(level)
}

// Option configures a Server
type Option func(*Server)

// WithTokenTTL sets the lifetime of issued tokens
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// WithCatalog replaces the default ingredient catalog
func WithCatalog(ingredients []models.Ingredient) Option {
	return func(s *Server) { s.catalog = ingredients }
}

// WithLegacyCatalog serves ingredients without category and group, the way
// older backends did
func WithLegacyCatalog() Option {
	return func(s *Server) { s.legacy = true }
}

// Server is the fake backend. Its zero value is not usable; call New.
type Server struct {
	db       *gorm.DB
	router   *gin.Engine
	tokenTTL time.Duration
	catalog  []models.Ingredient
	legacy   bool

	mu          sync.Mutex
	secret      []byte
	orderBudget int
	calls       map[string]int
}

// New creates a fake backend on a private in-memory sqlite database
func New(opts ...Option) (*Server, error) {
	s := &Server{
		tokenTTL:    24 * time.Hour,
		catalog:     DefaultCatalog(),
		secret:      []byte(uuid.NewString()),
		orderBudget: -1,
		calls:       make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("file:fakebackend-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open fake backend database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// a shared in-memory database lives as long as one connection stays open
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.AutoMigrate(&userRecord{}, &ingredientRecord{}, &cartRecord{}, &orderRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate fake backend database: %w", err)
	}
	s.db = db

	if err := s.seedCatalog(); err != nil {
		return nil, err
	}
	s.router = s.setupRoutes()
	return s, nil
}

func (s *Server) seedCatalog() error {
	records := make([]ingredientRecord, 0, len(s.catalog))
	for _, ing := range s.catalog {
		records = append(records, ingredientFromModel(ing))
	}
	if len(records) == 0 {
		return nil
	}
	if err := s.db.Create(&records).Error; err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	return nil
}

func (s *Server) setupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.countCalls())

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)
		authGroup.GET("/me", bearerAuth(s.currentSecret), s.me)
	}

	router.GET("/ingredients", s.listIngredients)
	router.POST("/ingredients/validate", s.validateSelection)

	protected := router.Group("/")
	protected.Use(bearerAuth(s.currentSecret))
	{
		protected.GET("/cart", s.listCart)
		protected.POST("/cart", s.addCartItem)
		protected.PUT("/cart/:pizzaId", s.updateCartItem)
		protected.DELETE("/cart/:pizzaId", s.deleteCartItem)
		protected.DELETE("/cart", s.clearCart)

		protected.GET("/orders", s.listOrders)
		protected.POST("/orders", s.createOrder)
	}

	return router
}

func (s *Server) countCalls() gin.HandlerFunc {
	return func(c *gin.Context) {
		if route := c.FullPath(); route != "" {
			s.mu.Lock()
			s.calls[c.Request.Method+" "+route]++
			s.mu.Unlock()
		}
		log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Debug("Fake backend request")
		c.Next()
	}
}

// Handler returns the HTTP handler serving the REST API
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database
func (s *Server) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Server) currentSecret() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secret
}

// RotateSecret invalidates every token issued so far
func (s *Server) RotateSecret() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = []byte(uuid.NewString())
}

// FailOrdersAfter lets n more POST /orders succeed and fails every one after that.
// A negative n removes the limit.
func (s *Server) FailOrdersAfter(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderBudget = n
}

func (s *Server) takeOrderSlot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orderBudget == 0 {
		return false
	}
	if s.orderBudget > 0 {
		s.orderBudget--
	}
	return true
}

// Calls returns how often a route was hit, e.g. Calls("POST", "/cart")
func (s *Server) Calls(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+route]
}

// ResetCalls zeroes every call counter
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

// CreateUser registers an account directly
func (s *Server) CreateUser(ctx context.Context, username, email, password string) (models.User, error) {
	user := userRecord{Username: username, Email: email}
	if err := user.HashPassword(password); err != nil {
		return models.User{}, err
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return models.User{}, err
	}
	return user.toModel(), nil
}

// IssueToken signs a token for userID valid for ttl; a negative ttl yields an expired token
func (s *Server) IssueToken(userID int, ttl time.Duration) (string, error) {
	return issueToken(s.currentSecret(), uint(userID), ttl)
}

// OrderRows counts the order rows stored for orderID
func (s *Server) OrderRows(ctx context.Context, orderID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&orderRecord{}).Where("order_id = ?", orderID).Count(&count).Error
	return count, err
}

// CartLines counts the cart lines stored for userID
func (s *Server) CartLines(ctx context.Context, userID int) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&cartRecord{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
