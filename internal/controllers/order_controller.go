package controllers

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/franciscosanchezn/pizza-storefront/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// CheckoutResult is returned by a successful checkout
type CheckoutResult struct {
	OrderID string         `json:"orderId" example:"ORD-6f1c2a9b-3d4e-4b5a-9c8d-1e2f3a4b5c6d"`
	Orders  []models.Order `json:"orders"`
}

// OrderController places orders and lists the order history
type OrderController struct {
	orders services.OrderService
}

// NewOrderController creates a new instance of OrderController
func NewOrderController(orders services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// GetOrders godoc
// @Summary Order history
// @Description Reload and return the order history, newest first
// @Tags orders
// @Produce json
// @Success 200 {array} models.Order
// @Failure 401 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/orders [get]
func (oc *OrderController) GetOrders(c *gin.Context) {
	orders, err := oc.orders.History(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// Checkout godoc
// @Summary Place the cart as an order
// @Description Create one order row per ingredient of every pizza unit, then empty the cart
// @Tags orders
// @Produce json
// @Success 201 {object} CheckoutResult
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/checkout [post]
func (oc *OrderController) Checkout(c *gin.Context) {
	orderID, err := oc.orders.Checkout(c.Request.Context())
	var partial *models.PartialCheckoutFailure
	if err != nil && (orderID == "" || errors.As(err, &partial)) {
		respondError(c, err)
		return
	}
	if err != nil {
		// the order exists, only emptying the cart failed
		log.WithError(err).WithField("order_id", orderID).Warn("Checkout left items in the cart")
	}
	c.JSON(http.StatusCreated, CheckoutResult{OrderID: orderID, Orders: oc.orders.Orders()})
}
