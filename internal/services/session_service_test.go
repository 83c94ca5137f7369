package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginEstablishesSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var changes []SessionState
	h.session.Subscribe(func(_ context.Context, change SessionChange) {
		changes = append(changes, change.State)
	})

	user, err := h.session.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, SessionAuthenticated, h.session.State())
	assert.Nil(t, h.session.LastError())

	stored, _ := h.store.Load(ctx)
	assert.NotEmpty(t, stored, "token is persisted")
	assert.Equal(t, stored, h.tokens.Token())
	assert.Equal(t, []SessionState{SessionAuthenticating, SessionAuthenticated}, changes)
	assert.Equal(t, 1, h.fake.Calls("GET", "/cart"), "cart reloads after login")
}

func TestLoginFailureReturnsToAnonymous(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		kind     models.AuthErrorKind
	}{
		{name: "unknown account", email: "nobody@example.com", password: testPassword, kind: models.AuthNoSuchAccount},
		{name: "wrong password", email: testEmail, password: "wrong-one", kind: models.AuthWrongPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.session.Login(ctx, tt.email, tt.password)
			var authErr *models.AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.kind, authErr.Kind)
			assert.Equal(t, SessionAnonymous, h.session.State())
			assert.Equal(t, err, h.session.LastError())
			assert.Empty(t, h.tokens.Token())
		})
	}

	h.session.ClearError()
	assert.Nil(t, h.session.LastError())
}

func TestFailedLoginDropsPreviousSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.login(t)
	require.NotEmpty(t, h.tokens.Token())

	_, err := h.session.Login(ctx, testEmail, "wrong-password")
	var authErr *models.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, SessionAnonymous, h.session.State())
	assert.Empty(t, h.tokens.Token())
	stored, _ := h.store.Load(ctx)
	assert.Empty(t, stored, "the old token is not kept for the next start")

	h.wire(t, stored)
	require.NoError(t, h.session.Restore(ctx))
	assert.Equal(t, SessionAnonymous, h.session.State())
}

func TestFailedRegisterDropsPreviousSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.login(t)

	_, err := h.session.Register(ctx, models.RegisterRequest{
		Username:        "alice2",
		Email:           testEmail,
		Password:        testPassword,
		ConfirmPassword: testPassword,
		Phone:           "+34600111222",
		Address:         "Calle Mayor 1",
	})
	require.Error(t, err)
	assert.Equal(t, SessionAnonymous, h.session.State())
	assert.Empty(t, h.tokens.Token())
	stored, _ := h.store.Load(ctx)
	assert.Empty(t, stored)
}

func TestLoginRequiresCredentials(t *testing.T) {
	h := newHarness(t)

	_, err := h.session.Login(context.Background(), "  ", testPassword)
	assert.True(t, models.IsValidation(err))
	assert.Zero(t, h.fake.Calls("POST", "/auth/login"))
}

func TestRegisterValidatesLocally(t *testing.T) {
	h := newHarness(t)

	valid := models.RegisterRequest{
		Username:        "bob",
		Email:           "bob@example.com",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
		Phone:           "+15551234567",
		Address:         "12 Oak Road",
	}

	tests := []struct {
		name   string
		mutate func(r *models.RegisterRequest)
		field  string
	}{
		{name: "missing username", mutate: func(r *models.RegisterRequest) { r.Username = "" }, field: "username"},
		{name: "missing email", mutate: func(r *models.RegisterRequest) { r.Email = "" }, field: "email"},
		{name: "missing password", mutate: func(r *models.RegisterRequest) { r.Password, r.ConfirmPassword = "", "" }, field: "password"},
		{name: "confirmation mismatch", mutate: func(r *models.RegisterRequest) { r.ConfirmPassword = "hunter23" }, field: "confirmPassword"},
		{name: "phone with letters", mutate: func(r *models.RegisterRequest) { r.Phone = "555-CALL-NOW" }, field: "phone"},
		{name: "phone starting with zero", mutate: func(r *models.RegisterRequest) { r.Phone = "0123456" }, field: "phone"},
		{name: "phone too long", mutate: func(r *models.RegisterRequest) { r.Phone = "+1234567890123456" }, field: "phone"},
		{name: "short address", mutate: func(r *models.RegisterRequest) { r.Address = "Oak" }, field: "address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			_, err := h.session.Register(context.Background(), req)
			var vErr *models.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
	assert.Zero(t, h.fake.Calls("POST", "/auth/register"), "invalid forms are never sent")
	assert.Equal(t, SessionAnonymous, h.session.State())
}

func TestRegisterCreatesAccountAndLogsIn(t *testing.T) {
	h := newHarness(t)

	user, err := h.session.Register(context.Background(), models.RegisterRequest{
		Username:        "bob",
		Email:           "bob@example.com",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
		Phone:           "15551234567",
		Address:         "12 Oak Road",
	})
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.True(t, h.session.IsAuthenticated())

	_, err = h.session.Register(context.Background(), models.RegisterRequest{
		Username:        "bob",
		Email:           "bob@example.com",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
		Phone:           "15551234567",
		Address:         "12 Oak Road",
	})
	var authErr *models.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "An account with this email already exists", authErr.Reason)
}

func TestLogoutIsLocal(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.addPizza(t, 1, 10, 24, 42)
	h.fake.ResetCalls()

	require.NoError(t, h.session.Logout(context.Background()))

	assert.Equal(t, SessionAnonymous, h.session.State())
	assert.Nil(t, h.session.User())
	assert.Empty(t, h.tokens.Token())
	stored, _ := h.store.Load(context.Background())
	assert.Empty(t, stored)
	assert.Empty(t, h.cart.Items(), "local cart is emptied")
	assert.Zero(t, h.fake.Calls("DELETE", "/cart"), "logout never touches the backend")
}

func TestRestore(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		h := newHarness(t)
		token, err := h.fake.IssueToken(h.userID, time.Hour)
		require.NoError(t, err)
		h.wire(t, token)

		require.NoError(t, h.session.Restore(context.Background()))
		assert.True(t, h.session.IsAuthenticated())
		assert.Equal(t, testEmail, h.session.User().Email)
	})

	t.Run("expired token skips the backend", func(t *testing.T) {
		h := newHarness(t)
		token, err := h.fake.IssueToken(h.userID, -time.Hour)
		require.NoError(t, err)
		h.wire(t, token)

		require.NoError(t, h.session.Restore(context.Background()))
		assert.Equal(t, SessionAnonymous, h.session.State())
		assert.Empty(t, h.tokens.Token())
		assert.Zero(t, h.fake.Calls("GET", "/auth/me"))
	})

	t.Run("rejected token falls back silently", func(t *testing.T) {
		h := newHarness(t)
		token, err := h.fake.IssueToken(h.userID, time.Hour)
		require.NoError(t, err)
		h.fake.RotateSecret()
		h.wire(t, token)

		require.NoError(t, h.session.Restore(context.Background()))
		assert.Equal(t, SessionAnonymous, h.session.State())
		assert.Nil(t, h.session.LastError())
		stored, _ := h.store.Load(context.Background())
		assert.Empty(t, stored)
	})

	t.Run("unreachable backend keeps the token", func(t *testing.T) {
		h := newHarness(t)
		token, err := h.fake.IssueToken(h.userID, time.Hour)
		require.NoError(t, err)
		h.server.Close()
		h.wire(t, token)

		err = h.session.Restore(context.Background())
		var netErr *models.NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.Equal(t, SessionAnonymous, h.session.State())
		stored, _ := h.store.Load(context.Background())
		assert.Equal(t, token, stored)
	})

	t.Run("no token", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.session.Restore(context.Background()))
		assert.Zero(t, h.fake.Calls("GET", "/auth/me"))
	})
}

func TestBackendRejectionTearsSessionDown(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.addPizza(t, 1, 10, 24, 42)
	require.Len(t, h.cart.Items(), 1)

	h.fake.RotateSecret()
	err := h.cart.Reload(context.Background())

	assert.True(t, errors.Is(err, models.ErrSessionExpired))
	assert.Equal(t, SessionAnonymous, h.session.State())
	assert.ErrorIs(t, h.session.LastError(), models.ErrSessionExpired)
	assert.Empty(t, h.cart.Items())
	stored, _ := h.store.Load(context.Background())
	assert.Empty(t, stored, "durable token is cleared")
}

func TestValidateRegistrationAcceptsGoodForm(t *testing.T) {
	err := ValidateRegistration(models.RegisterRequest{
		Username:        "carol",
		Email:           "carol@example.com",
		Password:        "pw",
		ConfirmPassword: "pw",
		Phone:           "+447911123456",
		Address:         "221B Baker Street",
	})
	assert.NoError(t, err)
}
