package controllers

import (
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/franciscosanchezn/pizza-storefront/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BuilderView is the pizza being assembled
type BuilderView struct {
	Stage      services.BuildStage      `json:"stage" swaggertype:"string" example:"sauce"`
	StageValid bool                     `json:"stageValid"`
	Selection  models.PizzaSelection    `json:"selection"`
	LocalPrice decimal.Decimal          `json:"localPrice" swaggertype:"string" example:"8.00"`
	Validation *models.ValidationResult `json:"validation,omitempty"`
}

// CrustChoice is the body of POST /api/v1/builder/crust
type CrustChoice struct {
	ID int `json:"id" binding:"required" example:"1"`
}

// BuilderController drives the three-stage pizza builder
type BuilderController struct {
	selection services.SelectionService
}

// NewBuilderController creates a new instance of BuilderController
func NewBuilderController(selection services.SelectionService) *BuilderController {
	return &BuilderController{selection: selection}
}

func (bc *BuilderController) view() BuilderView {
	return BuilderView{
		Stage:      bc.selection.Stage(),
		StageValid: bc.selection.StageValid(),
		Selection:  bc.selection.Selection(),
		LocalPrice: bc.selection.LocalPrice(),
		Validation: bc.selection.LastValidation(),
	}
}

// respond writes the builder view, or the mapped error when err is set
func (bc *BuilderController) respond(c *gin.Context, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bc.view())
}

func ingredientParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid ingredient ID format")
		return 0, false
	}
	return id, true
}

// GetBuilder godoc
// @Summary Current pizza
// @Description Get the stage, the selection and its advisory price
// @Tags builder
// @Produce json
// @Success 200 {object} BuilderView
// @Router /api/v1/builder [get]
func (bc *BuilderController) GetBuilder(c *gin.Context) {
	c.JSON(http.StatusOK, bc.view())
}

// SelectCrust godoc
// @Summary Choose a crust
// @Tags builder
// @Accept json
// @Produce json
// @Param crust body CrustChoice true "Crust ingredient"
// @Success 200 {object} BuilderView
// @Failure 400 {object} models.APIError
// @Router /api/v1/builder/crust [post]
func (bc *BuilderController) SelectCrust(c *gin.Context) {
	var choice CrustChoice
	if err := c.ShouldBindJSON(&choice); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	bc.respond(c, bc.selection.SelectCrust(c.Request.Context(), choice.ID))
}

// ToggleSauce godoc
// @Summary Toggle a sauce
// @Description Select, deselect or swap the portion of a sauce. At most two sauce families.
// @Tags builder
// @Produce json
// @Param id path int true "Sauce ingredient ID"
// @Success 200 {object} BuilderView
// @Failure 400 {object} models.APIError
// @Router /api/v1/builder/sauces/{id} [post]
func (bc *BuilderController) ToggleSauce(c *gin.Context) {
	id, ok := ingredientParam(c)
	if !ok {
		return
	}
	bc.respond(c, bc.selection.ToggleSauce(c.Request.Context(), id))
}

// ToggleTopping godoc
// @Summary Toggle a topping
// @Description Select, deselect or swap the portion of a topping
// @Tags builder
// @Produce json
// @Param id path int true "Topping ingredient ID"
// @Success 200 {object} BuilderView
// @Failure 400 {object} models.APIError
// @Router /api/v1/builder/toppings/{id} [post]
func (bc *BuilderController) ToggleTopping(c *gin.Context) {
	id, ok := ingredientParam(c)
	if !ok {
		return
	}
	bc.respond(c, bc.selection.ToggleTopping(c.Request.Context(), id))
}

// Next godoc
// @Summary Next stage
// @Tags builder
// @Produce json
// @Success 200 {object} BuilderView
// @Failure 400 {object} models.APIError
// @Router /api/v1/builder/next [post]
func (bc *BuilderController) Next(c *gin.Context) {
	bc.respond(c, bc.selection.Next())
}

// Back godoc
// @Summary Previous stage
// @Tags builder
// @Produce json
// @Success 200 {object} BuilderView
// @Router /api/v1/builder/back [post]
func (bc *BuilderController) Back(c *gin.Context) {
	bc.selection.Back()
	c.JSON(http.StatusOK, bc.view())
}

// Validate godoc
// @Summary Validate the pizza
// @Description Ask the backend to validate and price the complete selection
// @Tags builder
// @Produce json
// @Success 200 {object} BuilderView
// @Failure 400 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Router /api/v1/builder/validate [post]
func (bc *BuilderController) Validate(c *gin.Context) {
	_, err := bc.selection.Validate(c.Request.Context())
	bc.respond(c, err)
}

// Commit godoc
// @Summary Add the pizza to the cart
// @Description Validate the selection and add it to the cart. The builder resets on success.
// @Tags builder
// @Produce json
// @Success 200 {object} BuilderView
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Router /api/v1/builder/commit [post]
func (bc *BuilderController) Commit(c *gin.Context) {
	bc.respond(c, bc.selection.Commit(c.Request.Context()))
}

// Reset godoc
// @Summary Abandon the pizza
// @Tags builder
// @Produce json
// @Success 200 {object} BuilderView
// @Router /api/v1/builder [delete]
func (bc *BuilderController) Reset(c *gin.Context) {
	bc.selection.Reset()
	c.JSON(http.StatusOK, bc.view())
}
