package client

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/franciscosanchezn/pizza-storefront/internal/models"
)

// flexID accepts a JSON string or number
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// cartLine is a cart entry as the backend sends it. Older backends key the
// line by "pizzaId", newer ones by "id".
type cartLine struct {
	ID       flexID              `json:"id"`
	PizzaID  flexID              `json:"pizzaId"`
	Crust    *models.Ingredient  `json:"crust"`
	Sauces   []models.Ingredient `json:"sauces"`
	Toppings []models.Ingredient `json:"toppings"`
	Quantity int                 `json:"quantity"`
}

func (l cartLine) toModel() models.CartPizza {
	id := strings.TrimSpace(string(l.PizzaID))
	if id == "" {
		id = strings.TrimSpace(string(l.ID))
	}
	return models.CartPizza{
		ID:       id,
		Crust:    l.Crust,
		Sauces:   l.Sauces,
		Toppings: l.Toppings,
		Quantity: l.Quantity,
	}
}
