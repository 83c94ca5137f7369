package auth

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// ClearReason tells listeners why the token went away
type ClearReason int

const (
	// ClearedByLogout is an explicit user logout
	ClearedByLogout ClearReason = iota
	// RevokedByBackend is an authentication rejection from the backend
	RevokedByBackend
)

func (r ClearReason) String() string {
	if r == RevokedByBackend {
		return "revoked"
	}
	return "logout"
}

// ClearListener is called after the token has been removed
type ClearListener func(reason ClearReason)

// TokenHolder is the single owner of the bearer token for the whole process.
// Readers call Token; only login/register (Set), logout (Clear) and the global
// authentication-rejection handler (Revoke) may change it.
type TokenHolder struct {
	mu        sync.RWMutex
	token     string
	store     TokenStore
	listeners []ClearListener
	log       *logrus.Entry
}

// NewTokenHolder loads any persisted token from store
func NewTokenHolder(ctx context.Context, store TokenStore, logger *logrus.Logger) (*TokenHolder, error) {
	token, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &TokenHolder{
		token: token,
		store: store,
		log:   logger.WithField("component", "token_holder"),
	}, nil
}

// Token returns the current bearer token, or "" when anonymous
func (h *TokenHolder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Set stores a freshly issued token in memory and in the durable store.
// The in-memory token is kept even when persisting fails, so the running
// process stays logged in; only the next restart is affected.
func (h *TokenHolder) Set(ctx context.Context, token string) error {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()

	if err := h.store.Save(ctx, token); err != nil {
		h.log.WithError(err).Warn("Failed to persist token")
		return err
	}
	return nil
}

// Clear removes the token on logout
func (h *TokenHolder) Clear(ctx context.Context) error {
	return h.drop(ctx, ClearedByLogout)
}

// Revoke removes the token after the backend rejected it
func (h *TokenHolder) Revoke(ctx context.Context) {
	if err := h.drop(ctx, RevokedByBackend); err != nil {
		h.log.WithError(err).Warn("Failed to delete revoked token from store")
	}
}

// OnClear registers a listener for token removal
func (h *TokenHolder) OnClear(listener ClearListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, listener)
}

func (h *TokenHolder) drop(ctx context.Context, reason ClearReason) error {
	h.mu.Lock()
	h.token = ""
	listeners := append([]ClearListener(nil), h.listeners...)
	h.mu.Unlock()

	err := h.store.Delete(ctx)
	h.log.WithField("reason", reason.String()).Info("Token cleared")

	// listeners run outside the lock so they may read the holder
	for _, l := range listeners {
		l(reason)
	}
	return err
}
