package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/franciscosanchezn/pizza-storefront/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CartView is the cart with its derived totals
type CartView struct {
	Items              []models.CartPizza `json:"items"`
	TotalItems         int                `json:"totalItems"`
	TotalPrice         decimal.Decimal    `json:"totalPrice" swaggertype:"string" example:"16.00"`
	LoginPromptVisible bool               `json:"loginPromptVisible"`
}

// QuantityUpdate is the body of PUT /api/v1/cart/{id}
type QuantityUpdate struct {
	Quantity int `json:"quantity" example:"2"`
}

// CartController exposes the cart
type CartController struct {
	cart services.CartService
}

// NewCartController creates a new instance of CartController
func NewCartController(cart services.CartService) *CartController {
	return &CartController{cart: cart}
}

func (cc *CartController) view() CartView {
	items := cc.cart.Items()
	if items == nil {
		items = []models.CartPizza{}
	}
	return CartView{
		Items:              items,
		TotalItems:         cc.cart.TotalItems(),
		TotalPrice:         cc.cart.TotalPrice(),
		LoginPromptVisible: cc.cart.LoginPromptVisible(),
	}
}

func (cc *CartController) respond(c *gin.Context, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cc.view())
}

// GetCart godoc
// @Summary Cart
// @Description Get the cart. Pass reload=true to fetch it from the backend first.
// @Tags cart
// @Produce json
// @Param reload query bool false "Reload from the backend"
// @Success 200 {object} CartView
// @Failure 401 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Router /api/v1/cart [get]
func (cc *CartController) GetCart(c *gin.Context) {
	if c.Query("reload") == "true" {
		if err := cc.cart.Reload(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, cc.view())
}

// UpdateQuantity godoc
// @Summary Change a quantity
// @Tags cart
// @Accept json
// @Produce json
// @Param id path string true "Cart line ID"
// @Param update body QuantityUpdate true "New quantity"
// @Success 200 {object} CartView
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Router /api/v1/cart/{id} [put]
func (cc *CartController) UpdateQuantity(c *gin.Context) {
	var update QuantityUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	cc.respond(c, cc.cart.UpdateQuantity(c.Request.Context(), c.Param("id"), update.Quantity))
}

// RemovePizza godoc
// @Summary Remove a cart line
// @Tags cart
// @Produce json
// @Param id path string true "Cart line ID"
// @Success 200 {object} CartView
// @Failure 401 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Router /api/v1/cart/{id} [delete]
func (cc *CartController) RemovePizza(c *gin.Context) {
	cc.respond(c, cc.cart.RemovePizza(c.Request.Context(), c.Param("id")))
}

// ClearCart godoc
// @Summary Empty the cart
// @Tags cart
// @Produce json
// @Success 200 {object} CartView
// @Failure 401 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Router /api/v1/cart [delete]
func (cc *CartController) ClearCart(c *gin.Context) {
	cc.respond(c, cc.cart.ClearCart(c.Request.Context()))
}

// DismissLoginPrompt godoc
// @Summary Dismiss the login prompt
// @Tags cart
// @Produce json
// @Success 200 {object} CartView
// @Router /api/v1/cart/login-prompt/dismiss [post]
func (cc *CartController) DismissLoginPrompt(c *gin.Context) {
	cc.cart.DismissLoginPrompt()
	c.JSON(http.StatusOK, cc.view())
}
