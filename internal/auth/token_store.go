package auth

import (
	"context"
	"errors"
	"sync"

	internalmodels "github.com/franciscosanchezn/pizza-storefront/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenStore persists the bearer token across restarts
type TokenStore interface {
	// Load returns the stored token, or "" when none is stored
	Load(ctx context.Context) (string, error)
	// Save replaces the stored token
	Save(ctx context.Context, token string) error
	// Delete removes the stored token; deleting a missing token is not an error
	Delete(ctx context.Context) error
}

// GormTokenStore keeps the token in the stored_tokens table under a fixed key
type GormTokenStore struct {
	db  *gorm.DB
	key string
}

func NewGormTokenStore(db *gorm.DB) *GormTokenStore {
	return &GormTokenStore{db: db, key: internalmodels.TokenKey}
}

func (s *GormTokenStore) Load(ctx context.Context) (string, error) {
	var row internalmodels.StoredToken
	err := s.db.WithContext(ctx).Where("token_key = ?", s.key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Token, nil
}

func (s *GormTokenStore) Save(ctx context.Context, token string) error {
	row := &internalmodels.StoredToken{Key: s.key, Token: token}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(row).Error
}

func (s *GormTokenStore) Delete(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("token_key = ?", s.key).Delete(&internalmodels.StoredToken{}).Error
}

// MemoryTokenStore keeps the token in memory only
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (s *MemoryTokenStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
