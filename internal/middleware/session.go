package middleware

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/franciscosanchezn/pizza-storefront/internal/services"
	"github.com/gin-gonic/gin"
)

// RequireSession is a middleware that rejects requests while no user is signed in.
// The signed-in user is stored in the context under "user".
func RequireSession(session services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.IsAuthenticated() {
			if errors.Is(session.LastError(), models.ErrSessionExpired) {
				c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrCodeSessionExpired,
					"Your session has expired, please log in again"))
			} else {
				c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrCodeLoginRequired,
					"Please log in to continue"))
			}
			c.Abort()
			return
		}

		c.Set("user", session.User())
		c.Next()
	}
}
