package controllers

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Affordances tell the render layer how to recover from an authentication failure
const (
	AffordanceSwitchToSignup = "switch_to_signup"
	AffordanceClearPassword  = "clear_password"
	AffordanceNone           = "none"
)

// respondError maps the storefront error taxonomy onto an HTTP status and APIError body
func respondError(c *gin.Context, err error) {
	status, apiErr := mapError(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Warn("Request failed")
	}
	c.JSON(status, apiErr)
}

func mapError(err error) (int, models.APIError) {
	var (
		validationErr *models.ValidationError
		authErr       *models.AuthError
		partialErr    *models.PartialCheckoutFailure
		networkErr    *models.NetworkError
		serverErr     *models.ServerError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, validationErr.Message,
			map[string]interface{}{"field": validationErr.Field})

	case errors.As(err, &authErr):
		code, affordance := models.ErrCodeAuthFailed, AffordanceNone
		switch authErr.Kind {
		case models.AuthNoSuchAccount:
			code, affordance = models.ErrCodeNoSuchAccount, AffordanceSwitchToSignup
		case models.AuthWrongPassword:
			code, affordance = models.ErrCodeWrongPassword, AffordanceClearPassword
		}
		return http.StatusUnauthorized, models.NewAPIError(code, authErr.Error(),
			map[string]interface{}{"affordance": affordance})

	case errors.Is(err, models.ErrLoginRequired):
		return http.StatusUnauthorized, models.NewAPIError(models.ErrCodeLoginRequired, "Please log in to continue")

	case errors.Is(err, models.ErrSessionExpired):
		return http.StatusUnauthorized, models.NewAPIError(models.ErrCodeSessionExpired, "Your session has expired, please log in again")

	// checked before the transport errors it wraps
	case errors.As(err, &partialErr):
		return http.StatusBadGateway, models.NewAPIError(models.ErrCheckoutFailed, partialErr.Error(),
			map[string]interface{}{"orderId": partialErr.OrderID, "created": partialErr.Created})

	case errors.As(err, &networkErr), errors.As(err, &serverErr):
		return http.StatusBadGateway, models.NewAPIError(models.ErrBackendUnavailable, err.Error())

	default:
		return http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, err.Error())
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, message))
}
