package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxSauces caps the number of sauce families on one pizza
const MaxSauces = 2

// MinToppings is the number of toppings needed to finish a pizza
const MinToppings = 2

// PizzaSelection is the in-progress composition of a pizza
type PizzaSelection struct {
	Crust    *Ingredient  `json:"crust"`
	Sauces   []Ingredient `json:"sauces"`
	Toppings []Ingredient `json:"toppings"`
}

// SetCrust replaces the crust
func (s *PizzaSelection) SetCrust(crust Ingredient) {
	s.Crust = &crust
}

// ToggleSauce applies the family rule to the sauces and enforces the sauce cap.
// The selection is left untouched when an error is returned.
func (s *PizzaSelection) ToggleSauce(sauce Ingredient) error {
	next, err := toggleVariant(s.Sauces, sauce, MaxSauces)
	if err != nil {
		return err
	}
	s.Sauces = next
	return nil
}

// ToggleTopping applies the family rule to the toppings
func (s *PizzaSelection) ToggleTopping(topping Ingredient) error {
	next, err := toggleVariant(s.Toppings, topping, 0)
	if err != nil {
		return err
	}
	s.Toppings = next
	return nil
}

// toggleVariant deselects an exact match, swaps a sibling variant in place,
// or appends a new family when limit allows it (limit 0 means unbounded).
func toggleVariant(selected []Ingredient, ing Ingredient, limit int) ([]Ingredient, error) {
	family := ing.Family()
	for i, cur := range selected {
		if cur.ID == ing.ID {
			next := make([]Ingredient, 0, len(selected)-1)
			next = append(next, selected[:i]...)
			return append(next, selected[i+1:]...), nil
		}
		if cur.Family() == family {
			next := append([]Ingredient(nil), selected...)
			next[i] = ing
			return next, nil
		}
	}
	if limit > 0 && len(selected) >= limit {
		return selected, NewValidationError(string(ing.Category), fmt.Sprintf("you can choose at most %d sauces", limit))
	}
	return append(append([]Ingredient(nil), selected...), ing), nil
}

// HasCrust reports whether exactly one crust is chosen
func (s PizzaSelection) HasCrust() bool {
	return s.Crust != nil
}

// SaucesValid reports whether 1 to MaxSauces sauces are chosen
func (s PizzaSelection) SaucesValid() bool {
	return len(s.Sauces) >= 1 && len(s.Sauces) <= MaxSauces
}

// ToppingsValid reports whether at least MinToppings toppings are chosen
func (s PizzaSelection) ToppingsValid() bool {
	return len(s.Toppings) >= MinToppings
}

// Complete reports whether every stage is satisfied
func (s PizzaSelection) Complete() bool {
	return s.HasCrust() && s.SaucesValid() && s.ToppingsValid()
}

// IngredientIDs lists crust, sauce and topping ids in that order
func (s PizzaSelection) IngredientIDs() []int {
	return CartPizza{Crust: s.Crust, Sauces: s.Sauces, Toppings: s.Toppings}.IngredientIDs()
}

// LocalPrice is an advisory sum; the backend's validated price is authoritative
func (s PizzaSelection) LocalPrice() decimal.Decimal {
	return CartPizza{Crust: s.Crust, Sauces: s.Sauces, Toppings: s.Toppings}.TotalPrice()
}
