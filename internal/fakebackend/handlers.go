package fakebackend

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"code": code, "message": message})
}

func (s *Server) register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Phone    string `json:"phone"`
		Address  string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	ctx := c.Request.Context()
	var existing userRecord
	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error; err == nil {
		fail(c, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists")
		return
	}

	user := userRecord{Username: req.Username, Email: req.Email, Phone: req.Phone, Address: req.Address}
	if err := user.HashPassword(req.Password); err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "password hashing failed")
		return
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to create user")
		return
	}

	s.respondWithToken(c, http.StatusCreated, user)
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var user userRecord
	err := s.db.WithContext(c.Request.Context()).Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, "NO_SUCH_ACCOUNT", "No account found for this email")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to look up user")
		return
	}
	if !user.CheckPassword(req.Password) {
		fail(c, http.StatusUnauthorized, "WRONG_PASSWORD", "Incorrect password")
		return
	}

	s.respondWithToken(c, http.StatusOK, user)
}

func (s *Server) respondWithToken(c *gin.Context, status int, user userRecord) {
	token, err := issueToken(s.currentSecret(), user.ID, s.tokenTTL)
	if err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "token generation failed")
		return
	}
	u := user.toModel()
	c.JSON(status, models.AuthResponse{Token: token, User: &u})
}

func (s *Server) me(c *gin.Context) {
	var user userRecord
	if err := s.db.WithContext(c.Request.Context()).First(&user, currentUserID(c)).Error; err != nil {
		// a valid signature for a deleted user is still an authentication failure
		respondUnauthorized(c, "user no longer exists")
		return
	}
	c.JSON(http.StatusOK, user.toModel())
}

// catalogByID loads the catalog keyed by id
func (s *Server) catalogByID(c *gin.Context) (map[int]models.Ingredient, []models.Ingredient, error) {
	var records []ingredientRecord
	if err := s.db.WithContext(c.Request.Context()).Order("id").Find(&records).Error; err != nil {
		return nil, nil, err
	}
	byID := make(map[int]models.Ingredient, len(records))
	list := make([]models.Ingredient, 0, len(records))
	for _, r := range records {
		ing := r.toModel()
		byID[ing.ID] = ing
		list = append(list, ing)
	}
	return byID, list, nil
}

// present strips the fields legacy backends did not send
func (s *Server) present(ing models.Ingredient) models.Ingredient {
	if s.legacy {
		ing.Category = ""
		ing.Group = ""
	}
	return ing
}

func (s *Server) presentAll(ings []models.Ingredient) []models.Ingredient {
	out := make([]models.Ingredient, 0, len(ings))
	for _, ing := range ings {
		out = append(out, s.present(ing))
	}
	return out
}

func (s *Server) listIngredients(c *gin.Context) {
	_, list, err := s.catalogByID(c)
	if err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load ingredients")
		return
	}
	c.JSON(http.StatusOK, s.presentAll(list))
}

func (s *Server) validateSelection(c *gin.Context) {
	var req struct {
		IngredientIDs []int `json:"ingredientIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	byID, _, err := s.catalogByID(c)
	if err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load ingredients")
		return
	}
	c.JSON(http.StatusOK, evaluateSelection(byID, req.IngredientIDs))
}

// evaluateSelection applies the pizza rules to a list of ingredient ids
func evaluateSelection(byID map[int]models.Ingredient, ids []int) models.ValidationResult {
	total := decimal.Zero
	counts := map[models.Category]int{}
	for _, id := range ids {
		ing, ok := byID[id]
		if !ok {
			return models.ValidationResult{Error: "Unknown ingredient"}
		}
		if !ing.Available {
			return models.ValidationResult{Error: ing.Name + " is not available"}
		}
		counts[ing.Category]++
		total = total.Add(ing.Price)
	}

	switch {
	case counts[models.CategoryCrust] != 1:
		return models.ValidationResult{Error: "A pizza needs exactly one crust"}
	case counts[models.CategorySauce] < 1:
		return models.ValidationResult{Error: "A pizza needs at least one sauce"}
	case counts[models.CategorySauce] > models.MaxSauces:
		return models.ValidationResult{Error: "A pizza takes at most two sauces"}
	case counts[models.CategoryTopping] < models.MinToppings:
		return models.ValidationResult{Error: "A pizza needs at least two toppings"}
	}
	return models.ValidationResult{IsValid: true, TotalPrice: total}
}

// cartLineResponse is the wire shape of a cart line
type cartLineResponse struct {
	PizzaID  string              `json:"pizzaId"`
	Crust    *models.Ingredient  `json:"crust"`
	Sauces   []models.Ingredient `json:"sauces"`
	Toppings []models.Ingredient `json:"toppings"`
	Quantity int                 `json:"quantity"`
}

func (s *Server) lineResponse(byID map[int]models.Ingredient, r cartRecord) cartLineResponse {
	line := cartLineResponse{PizzaID: r.ID, Quantity: r.Quantity, Sauces: []models.Ingredient{}, Toppings: []models.Ingredient{}}
	if crust, ok := byID[r.CrustID]; ok {
		crust = s.present(crust)
		line.Crust = &crust
	}
	for _, id := range splitIDs(r.SauceIDs) {
		if ing, ok := byID[id]; ok {
			line.Sauces = append(line.Sauces, s.present(ing))
		}
	}
	for _, id := range splitIDs(r.ToppingIDs) {
		if ing, ok := byID[id]; ok {
			line.Toppings = append(line.Toppings, s.present(ing))
		}
	}
	return line
}

func (s *Server) listCart(c *gin.Context) {
	byID, _, err := s.catalogByID(c)
	if err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load ingredients")
		return
	}

	var records []cartRecord
	if err := s.db.WithContext(c.Request.Context()).
		Where("user_id = ?", currentUserID(c)).
		Order("created_at, id").
		Find(&records).Error; err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load cart")
		return
	}

	lines := make([]cartLineResponse, 0, len(records))
	for _, r := range records {
		lines = append(lines, s.lineResponse(byID, r))
	}
	c.JSON(http.StatusOK, lines)
}

func (s *Server) addCartItem(c *gin.Context) {
	var req models.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	byID, _, err := s.catalogByID(c)
	if err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load ingredients")
		return
	}

	if crust, ok := byID[req.CrustID]; !ok || crust.Category != models.CategoryCrust {
		fail(c, http.StatusBadRequest, "BAD_REQUEST", "crustId does not name a crust")
		return
	}
	for _, id := range append(append([]int{}, req.SauceIDs...), req.ToppingIDs...) {
		if _, ok := byID[id]; !ok {
			fail(c, http.StatusBadRequest, "BAD_REQUEST", "unknown ingredient id")
			return
		}
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}
	record := cartRecord{
		ID:         uuid.NewString(),
		UserID:     currentUserID(c),
		CrustID:    req.CrustID,
		SauceIDs:   joinIDs(req.SauceIDs),
		ToppingIDs: joinIDs(req.ToppingIDs),
		Quantity:   quantity,
	}
	if err := s.db.WithContext(c.Request.Context()).Create(&record).Error; err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to add cart item")
		return
	}
	c.JSON(http.StatusCreated, s.lineResponse(byID, record))
}

func (s *Server) findCartRecord(c *gin.Context) (*cartRecord, bool) {
	var record cartRecord
	err := s.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", c.Param("pizzaId"), currentUserID(c)).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Cart item not found")
		return nil, false
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load cart item")
		return nil, false
	}
	return &record, true
}

func (s *Server) updateCartItem(c *gin.Context) {
	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if req.Quantity < 1 {
		fail(c, http.StatusBadRequest, "BAD_REQUEST", "quantity must be at least 1")
		return
	}

	record, ok := s.findCartRecord(c)
	if !ok {
		return
	}
	if err := s.db.WithContext(c.Request.Context()).Model(record).Update("quantity", req.Quantity).Error; err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to update cart item")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteCartItem(c *gin.Context) {
	record, ok := s.findCartRecord(c)
	if !ok {
		return
	}
	if err := s.db.WithContext(c.Request.Context()).Delete(record).Error; err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to delete cart item")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) clearCart(c *gin.Context) {
	if err := s.db.WithContext(c.Request.Context()).
		Where("user_id = ?", currentUserID(c)).
		Delete(&cartRecord{}).Error; err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to clear cart")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) createOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if req.OrderID == "" || req.CartItemID < 1 {
		fail(c, http.StatusBadRequest, "BAD_REQUEST", "orderId and cartItemId are required")
		return
	}
	byID, _, err := s.catalogByID(c)
	if err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load ingredients")
		return
	}
	if _, ok := byID[req.IngredientID]; !ok {
		fail(c, http.StatusBadRequest, "BAD_REQUEST", "unknown ingredient id")
		return
	}

	if !s.takeOrderSlot() {
		log.WithField("order_id", req.OrderID).Warn("Injected order failure")
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Order service unavailable")
		return
	}

	record := orderRecord{
		OrderID:      req.OrderID,
		UserID:       currentUserID(c),
		CartItemID:   req.CartItemID,
		IngredientID: req.IngredientID,
	}
	if err := s.db.WithContext(c.Request.Context()).Create(&record).Error; err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to create order")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": record.ID})
}

func (s *Server) listOrders(c *gin.Context) {
	byID, _, err := s.catalogByID(c)
	if err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load ingredients")
		return
	}

	var records []orderRecord
	if err := s.db.WithContext(c.Request.Context()).
		Where("user_id = ?", currentUserID(c)).
		Order("id").
		Find(&records).Error; err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load orders")
		return
	}
	c.JSON(http.StatusOK, s.groupOrders(byID, records))
}

// groupOrders folds per-ingredient rows back into orders of pizzas, keeping row order
func (s *Server) groupOrders(byID map[int]models.Ingredient, records []orderRecord) []models.Order {
	orders := []models.Order{}
	orderIndex := map[string]int{}
	pizzaIndex := map[string]map[int]int{}

	for _, r := range records {
		oi, ok := orderIndex[r.OrderID]
		if !ok {
			oi = len(orders)
			orderIndex[r.OrderID] = oi
			pizzaIndex[r.OrderID] = map[int]int{}
			orders = append(orders, models.Order{OrderID: r.OrderID, OrderDate: r.CreatedAt.UTC()})
		}
		order := &orders[oi]

		pi, ok := pizzaIndex[r.OrderID][r.CartItemID]
		if !ok {
			pi = len(order.Pizzas)
			pizzaIndex[r.OrderID][r.CartItemID] = pi
			order.Pizzas = append(order.Pizzas, models.OrderPizza{CartItemID: r.CartItemID})
		}
		pizza := &order.Pizzas[pi]

		ing, ok := byID[r.IngredientID]
		if !ok {
			continue
		}
		switch ing.Category {
		case models.CategoryCrust:
			crust := s.present(ing)
			pizza.Crust = &crust
		case models.CategorySauce:
			pizza.Sauces = append(pizza.Sauces, s.present(ing))
		default:
			pizza.Toppings = append(pizza.Toppings, s.present(ing))
		}
	}
	return orders
}
