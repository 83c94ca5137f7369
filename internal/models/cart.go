package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartPizza is a persisted, quantity-bearing cart line
type CartPizza struct {
	ID       string       `json:"id"`
	Crust    *Ingredient  `json:"crust"`
	Sauces   []Ingredient `json:"sauces"`
	Toppings []Ingredient `json:"toppings"`
	Quantity int          `json:"quantity"`
}

// TotalPrice is the unit price of the pizza: crust + sauces + toppings.
// A line without a crust is worth nothing.
func (p CartPizza) TotalPrice() decimal.Decimal {
	if p.Crust == nil {
		return decimal.Zero
	}
	return p.Crust.Price.Add(SumPrices(p.Sauces...)).Add(SumPrices(p.Toppings...))
}

// LineTotal is the unit price times the quantity
func (p CartPizza) LineTotal() decimal.Decimal {
	return p.TotalPrice().Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// IngredientIDs lists crust, sauce and topping ids in that order
func (p CartPizza) IngredientIDs() []int {
	ids := make([]int, 0, 1+len(p.Sauces)+len(p.Toppings))
	if p.Crust != nil {
		ids = append(ids, p.Crust.ID)
	}
	for _, s := range p.Sauces {
		ids = append(ids, s.ID)
	}
	for _, t := range p.Toppings {
		ids = append(ids, t.ID)
	}
	return ids
}

// AddCartItemRequest is the body of POST /cart
type AddCartItemRequest struct {
	CrustID    int   `json:"crustId"`
	SauceIDs   []int `json:"sauceIds"`
	ToppingIDs []int `json:"toppingIds"`
	Quantity   int   `json:"quantity"`
}

// UpdateCartItemRequest is the body of PUT /cart/{pizzaId}
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// OrderPizza is one pizza inside a placed order
type OrderPizza struct {
	CartItemID int          `json:"cartItemId"`
	Crust      *Ingredient  `json:"crust"`
	Sauces     []Ingredient `json:"sauces"`
	Toppings   []Ingredient `json:"toppings"`
}

// Order is immutable once created
type Order struct {
	OrderID   string       `json:"orderId"`
	OrderDate time.Time    `json:"orderDate"`
	Pizzas    []OrderPizza `json:"pizzas"`
}

// CreateOrderRequest is the body of POST /orders: one row per ingredient
type CreateOrderRequest struct {
	OrderID      string `json:"orderId"`
	CartItemID   int    `json:"cartItemId"`
	IngredientID int    `json:"ingredientId"`
}
