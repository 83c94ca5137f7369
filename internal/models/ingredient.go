package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Category partitions ingredients into the three build stages
type Category string

const (
	CategoryCrust   Category = "crust"
	CategorySauce   Category = "sauce"
	CategoryTopping Category = "topping"
)

// Topping display groups
const (
	GroupVeggies = "Veggies"
	GroupMeats   = "Meats"
	GroupCheese  = "Cheese"
)

// Ingredient is immutable reference data fetched from the backend
type Ingredient struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
	Category  Category        `json:"category,omitempty"`
	Group     string          `json:"group,omitempty"`
}

// Portion returns the leading portion-size token of the name ("Extra" for "Extra Marinara").
// Single-word names have no portion.
func (i Ingredient) Portion() string {
	portion, _, found := strings.Cut(strings.TrimSpace(i.Name), " ")
	if !found {
		return ""
	}
	return portion
}

// Family returns the base name shared by all portion variants of an ingredient
func (i Ingredient) Family() string {
	name := strings.TrimSpace(i.Name)
	_, base, found := strings.Cut(name, " ")
	if !found {
		return name
	}
	return strings.TrimSpace(base)
}

// LegacyCategory maps an ingredient id onto the id ranges the backend used before it
// started sending an explicit category.
func LegacyCategory(id int) Category {
	switch {
	case id >= 1 && id <= 9:
		return CategoryCrust
	case id >= 10 && id <= 23:
		return CategorySauce
	case id >= 24:
		return CategoryTopping
	default:
		return ""
	}
}

// LegacyToppingGroup maps a topping id onto its display group
func LegacyToppingGroup(id int) string {
	switch {
	case id >= 42 && id <= 55:
		return GroupMeats
	case id >= 56 && id <= 65:
		return GroupCheese
	default:
		return GroupVeggies
	}
}

// Normalize fills in Category and Group when the backend omitted them
func (i Ingredient) Normalize() Ingredient {
	if i.Category == "" {
		i.Category = LegacyCategory(i.ID)
	}
	if i.Category == CategoryTopping && i.Group == "" {
		i.Group = LegacyToppingGroup(i.ID)
	}
	return i
}

// Family groups the portion variants of one ingredient
type Family struct {
	Name     string       `json:"name"`
	Variants []Ingredient `json:"variants"`
}

// GroupFamilies groups ingredients by base name, keeping first-appearance order
func GroupFamilies(ingredients []Ingredient) []Family {
	var families []Family
	index := make(map[string]int)
	for _, ing := range ingredients {
		name := ing.Family()
		pos, ok := index[name]
		if !ok {
			pos = len(families)
			index[name] = pos
			families = append(families, Family{Name: name})
		}
		families[pos].Variants = append(families[pos].Variants, ing)
	}
	return families
}

// ValidationResult is the backend's verdict on a selection
type ValidationResult struct {
	IsValid    bool            `json:"isValid"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Error      string          `json:"error,omitempty"`
}

// SumPrices adds up the price of every ingredient
func SumPrices(ingredients ...Ingredient) decimal.Decimal {
	total := decimal.Zero
	for _, ing := range ingredients {
		total = total.Add(ing.Price)
	}
	return total
}
