package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/franciscosanchezn/pizza-storefront/internal/services"
	"github.com/gin-gonic/gin"
)

// MenuView is the ingredient catalog arranged for the three build stages
type MenuView struct {
	Crusts        []models.Ingredient     `json:"crusts"`
	SauceFamilies []models.Family         `json:"sauceFamilies"`
	ToppingGroups []services.ToppingGroup `json:"toppingGroups"`
}

// MenuController serves the ingredient catalog
type MenuController struct {
	menu services.MenuService
}

// NewMenuController creates a new instance of MenuController
func NewMenuController(menu services.MenuService) *MenuController {
	return &MenuController{menu: menu}
}

// GetMenu godoc
// @Summary Ingredient catalog
// @Description Get crusts, sauce families and topping groups. Pass refresh=true to reload from the backend.
// @Tags menu
// @Produce json
// @Param refresh query bool false "Reload the catalog"
// @Success 200 {object} MenuView
// @Failure 502 {object} models.APIError
// @Router /api/v1/menu [get]
func (mc *MenuController) GetMenu(c *gin.Context) {
	ctx := c.Request.Context()
	var err error
	if c.Query("refresh") == "true" {
		err = mc.menu.Refresh(ctx)
	} else {
		_, err = mc.menu.Ingredients(ctx)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MenuView{
		Crusts:        mc.menu.Crusts(),
		SauceFamilies: mc.menu.Families(models.CategorySauce),
		ToppingGroups: mc.menu.ToppingGroups(),
	})
}
