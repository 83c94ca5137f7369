package fakebackend

import (
	"strconv"
	"strings"
	"time"

	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type userRecord struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Phone        string
	Address      string
	CreatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

// HashPassword stores the bcrypt hash of password
func (u *userRecord) HashPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares password against the stored hash
func (u *userRecord) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u userRecord) toModel() models.User {
	return models.User{
		ID:       int(u.ID),
		Username: u.Username,
		Email:    u.Email,
		Phone:    u.Phone,
		Address:  u.Address,
	}
}

type ingredientRecord struct {
	ID        int             `gorm:"primaryKey;autoIncrement:false"`
	Name      string          `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Available bool
	Category  string
	Group     string `gorm:"column:topping_group"`
}

func (ingredientRecord) TableName() string { return "ingredients" }

func (r ingredientRecord) toModel() models.Ingredient {
	return models.Ingredient{
		ID:        r.ID,
		Name:      r.Name,
		Price:     r.Price,
		Available: r.Available,
		Category:  models.Category(r.Category),
		Group:     r.Group,
	}
}

func ingredientFromModel(ing models.Ingredient) ingredientRecord {
	ing = ing.Normalize()
	return ingredientRecord{
		ID:        ing.ID,
		Name:      ing.Name,
		Price:     ing.Price,
		Available: ing.Available,
		Category:  string(ing.Category),
		Group:     ing.Group,
	}
}

type cartRecord struct {
	ID         string `gorm:"primaryKey"`
	UserID     uint   `gorm:"index;not null"`
	CrustID    int    `gorm:"not null"`
	SauceIDs   string
	ToppingIDs string
	Quantity   int `gorm:"not null"`
	CreatedAt  time.Time
}

func (cartRecord) TableName() string { return "cart_items" }

type orderRecord struct {
	ID           uint   `gorm:"primaryKey"`
	OrderID      string `gorm:"index;not null"`
	UserID       uint   `gorm:"index;not null"`
	CartItemID   int    `gorm:"not null"`
	IngredientID int    `gorm:"not null"`
	CreatedAt    time.Time
}

func (orderRecord) TableName() string { return "order_items" }

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func splitIDs(s string) []int {
	if s == "" {
		return nil
	}
	var ids []int
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
