package fakebackend

import (
	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/shopspring/decimal"
)

func ingredient(id int, name, price string, available bool) models.Ingredient {
	return models.Ingredient{
		ID:        id,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Available: available,
	}.Normalize()
}

// DefaultCatalog is the ingredient list the fake backend serves unless told otherwise.
// Ids follow the legacy ranges: crusts 1-9, sauces 10-23, toppings from 24.
func DefaultCatalog() []models.Ingredient {
	return []models.Ingredient{
		ingredient(1, "Classic", "5.00", true),
		ingredient(2, "Thin", "4.50", true),
		ingredient(3, "Gluten-Free", "6.00", true),
		ingredient(4, "Stuffed", "7.00", false),

		ingredient(10, "Regular Marinara", "1.00", true),
		ingredient(11, "Extra Marinara", "1.50", true),
		ingredient(12, "Light Marinara", "0.75", true),
		ingredient(13, "Regular Pesto", "1.25", true),
		ingredient(14, "Extra Pesto", "1.75", true),
		ingredient(15, "Regular Alfredo", "1.50", true),
		ingredient(16, "Regular BBQ", "1.25", false),

		ingredient(24, "Regular Mushrooms", "0.75", true),
		ingredient(25, "Extra Mushrooms", "1.00", true),
		ingredient(26, "Regular Onions", "0.50", true),
		ingredient(27, "Regular Peppers", "0.60", true),
		ingredient(30, "Regular Olives", "0.70", true),
		ingredient(42, "Regular Pepperoni", "1.25", true),
		ingredient(43, "Extra Pepperoni", "1.75", true),
		ingredient(44, "Regular Sausage", "1.25", true),
		ingredient(56, "Regular Mozzarella", "1.00", true),
		ingredient(57, "Extra Mozzarella", "1.50", true),
	}
}
