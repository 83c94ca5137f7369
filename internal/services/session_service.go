package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/franciscosanchezn/pizza-storefront/internal/auth"
	"github.com/franciscosanchezn/pizza-storefront/internal/client"
	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/sirupsen/logrus"
)

// SessionState is the authentication lifecycle of the storefront
type SessionState int

const (
	SessionAnonymous SessionState = iota
	SessionAuthenticating
	SessionAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case SessionAuthenticating:
		return "authenticating"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// MarshalText renders the state by name in JSON
func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SessionChange is delivered to session listeners
type SessionChange struct {
	State SessionState
	User  *models.User
}

// SessionListener observes session changes. Listeners run synchronously on the
// goroutine that changed the session.
type SessionListener func(ctx context.Context, change SessionChange)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

const minAddressLength = 5

// SessionService owns the authenticated user
type SessionService interface {
	// Login authenticates with email and password
	Login(ctx context.Context, email, password string) (*models.User, error)
	// Register validates the profile locally, creates the account and logs it in
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	// Logout forgets the token and the user without contacting the backend
	Logout(ctx context.Context) error
	// Restore resumes a session from the stored token
	Restore(ctx context.Context) error
	// State returns the current lifecycle state
	State() SessionState
	// User returns the authenticated user, or nil
	User() *models.User
	// IsAuthenticated reports whether the session is authenticated
	IsAuthenticated() bool
	// Subscribe registers a listener for session changes
	Subscribe(listener SessionListener)
	// LastError returns the latest login/register/restore failure
	LastError() error
	// ClearError forgets the latest failure
	ClearError()
}

type sessionService struct {
	backend client.Backend
	tokens  *auth.TokenHolder
	log     *logrus.Entry
	now     func() time.Time

	mu        sync.RWMutex
	state     SessionState
	user      *models.User
	lastErr   error
	listeners []SessionListener
}

// NewSessionService creates a new instance of SessionService. It tears the
// session down whenever the token holder reports a revoked token.
func NewSessionService(backend client.Backend, tokens *auth.TokenHolder, logger *logrus.Logger) SessionService {
	s := &sessionService{
		backend: backend,
		tokens:  tokens,
		log:     logger.WithField("component", "session"),
		now:     time.Now,
	}
	tokens.OnClear(s.onTokenCleared)
	return s
}

func (s *sessionService) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *sessionService) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *sessionService) IsAuthenticated() bool {
	return s.State() == SessionAuthenticated
}

func (s *sessionService) Subscribe(listener SessionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *sessionService) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *sessionService) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// transition moves to state and notifies listeners when the state or user changed
func (s *sessionService) transition(ctx context.Context, state SessionState, user *models.User, lastErr error) {
	s.mu.Lock()
	changed := s.state != state || s.user != user
	s.state = state
	s.user = user
	s.lastErr = lastErr
	listeners := append([]SessionListener(nil), s.listeners...)
	s.mu.Unlock()

	if !changed {
		return
	}
	s.log.WithField("state", state.String()).Debug("Session changed")

	var snapshot *models.User
	if user != nil {
		u := *user
		snapshot = &u
	}
	for _, l := range listeners {
		l(ctx, SessionChange{State: state, User: snapshot})
	}
}

func (s *sessionService) onTokenCleared(reason auth.ClearReason) {
	if reason != auth.RevokedByBackend {
		return
	}
	// an in-flight login or restore handles its own rejection
	if s.State() != SessionAuthenticated {
		return
	}
	s.log.Info("Session expired, returning to anonymous")
	s.transition(context.Background(), SessionAnonymous, nil, models.ErrSessionExpired)
}

func (s *sessionService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, models.NewValidationError("email", "email is required")
	}
	if password == "" {
		return nil, models.NewValidationError("password", "password is required")
	}

	s.dropPreviousToken(ctx)
	s.transition(ctx, SessionAuthenticating, nil, nil)
	resp, err := s.backend.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, s.fail(ctx, "login", err)
	}
	return s.establish(ctx, "login", resp)
}

func (s *sessionService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := ValidateRegistration(req); err != nil {
		return nil, err
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	s.dropPreviousToken(ctx)
	s.transition(ctx, SessionAuthenticating, nil, nil)
	resp, err := s.backend.Register(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, "register", err)
	}
	return s.establish(ctx, "register", resp)
}

// dropPreviousToken forgets any earlier token, so a failed attempt cannot leave it
// behind for later requests or the next Restore.
func (s *sessionService) dropPreviousToken(ctx context.Context) {
	if s.tokens.Token() == "" {
		return
	}
	if err := s.tokens.Clear(ctx); err != nil {
		s.log.WithError(err).Warn("Failed to delete previous token")
	}
}

// establish stores the issued token and resolves the user
func (s *sessionService) establish(ctx context.Context, op string, resp *models.AuthResponse) (*models.User, error) {
	if resp.Token == "" {
		return nil, s.fail(ctx, op, &models.ServerError{Op: op, Status: 200, Message: "response carried no token"})
	}
	if err := s.tokens.Set(ctx, resp.Token); err != nil {
		// the in-memory token still works for this process
		s.log.WithError(err).Warn("Token could not be persisted; session will not survive a restart")
	}

	user := resp.User
	if user == nil {
		var err error
		user, err = s.backend.CurrentUser(ctx)
		if err != nil {
			if clearErr := s.tokens.Clear(ctx); clearErr != nil {
				s.log.WithError(clearErr).Warn("Failed to clear token")
			}
			return nil, s.fail(ctx, op, err)
		}
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "op": op}).Info("User authenticated")
	s.transition(ctx, SessionAuthenticated, user, nil)
	return s.User(), nil
}

func (s *sessionService) fail(ctx context.Context, op string, err error) error {
	s.log.WithError(err).WithField("op", op).Warn("Authentication failed")
	s.transition(ctx, SessionAnonymous, nil, err)
	return err
}

func (s *sessionService) Logout(ctx context.Context) error {
	err := s.tokens.Clear(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Failed to delete stored token")
	}
	s.transition(ctx, SessionAnonymous, nil, nil)
	s.log.Info("User logged out")
	return err
}

func (s *sessionService) Restore(ctx context.Context) error {
	token := s.tokens.Token()
	if token == "" {
		return nil
	}

	if auth.Expired(token, s.now()) {
		s.log.Info("Stored token has expired, starting anonymous")
		if err := s.tokens.Clear(ctx); err != nil {
			s.log.WithError(err).Warn("Failed to delete expired token")
		}
		return nil
	}

	s.transition(ctx, SessionAuthenticating, nil, nil)
	user, err := s.backend.CurrentUser(ctx)
	switch {
	case err == nil:
		s.log.WithField("user_id", user.ID).Info("Session restored")
		s.transition(ctx, SessionAuthenticated, user, nil)
		return nil
	case errors.Is(err, models.ErrSessionExpired):
		// the client already dropped the token
		s.log.Info("Stored token was rejected, starting anonymous")
		s.transition(ctx, SessionAnonymous, nil, nil)
		return nil
	default:
		s.log.WithError(err).Warn("Could not restore session, keeping token for the next start")
		s.transition(ctx, SessionAnonymous, nil, nil)
		return fmt.Errorf("restoring session: %w", err)
	}
}

// ValidateRegistration checks a signup form before anything is sent
func ValidateRegistration(req models.RegisterRequest) error {
	switch {
	case strings.TrimSpace(req.Username) == "":
		return models.NewValidationError("username", "username is required")
	case strings.TrimSpace(req.Email) == "":
		return models.NewValidationError("email", "email is required")
	case req.Password == "":
		return models.NewValidationError("password", "password is required")
	case req.Password != req.ConfirmPassword:
		return models.NewValidationError("confirmPassword", "passwords do not match")
	case !phonePattern.MatchString(req.Phone):
		return models.NewValidationError("phone", "phone number must be in international format, e.g. +15551234567")
	case len(strings.TrimSpace(req.Address)) < minAddressLength:
		return models.NewValidationError("address", fmt.Sprintf("address must be at least %d characters", minAddressLength))
	}
	return nil
}
