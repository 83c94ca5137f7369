package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/franciscosanchezn/pizza-storefront/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSession struct {
	services.SessionService
	user    *models.User
	lastErr error
}

func (s *stubSession) IsAuthenticated() bool { return s.user != nil }
func (s *stubSession) User() *models.User     { return s.user }
func (s *stubSession) LastError() error       { return s.lastErr }

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/orders", append(handlers, func(c *gin.Context) {
		user, _ := c.Get("user")
		c.JSON(http.StatusOK, user)
	})...)
	return router
}

func serve(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireSession(t *testing.T) {
	tests := []struct {
		name    string
		session *stubSession
		status  int
		code    string
	}{
		{"anonymous", &stubSession{}, http.StatusUnauthorized, models.ErrCodeLoginRequired},
		{"expired", &stubSession{lastErr: models.ErrSessionExpired}, http.StatusUnauthorized, models.ErrCodeSessionExpired},
		{"signed in", &stubSession{user: &models.User{ID: 7, Email: "alice@example.com"}}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(newRouter(RequireSession(tt.session)), "")
			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), tt.code)
			} else {
				assert.Contains(t, w.Body.String(), "alice@example.com")
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	router := newRouter(RequestLogger(logger), RequireSession(&stubSession{}))

	w := serve(router, "req-123")
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "req-123", entry.Data["request_id"])
	assert.Equal(t, "/orders", entry.Data["route"])
	assert.Equal(t, http.StatusUnauthorized, entry.Data["status"])

	w = serve(router, "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
