package models

import (
	"time"
)

// TokenKey is the fixed name the bearer token is persisted under
const TokenKey = "auth_token"

// StoredToken is the only durable client-side value
type StoredToken struct {
	Key       string `gorm:"column:token_key;primaryKey"`
	Token     string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (StoredToken) TableName() string {
	return "stored_tokens"
}
