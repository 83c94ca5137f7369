package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/franciscosanchezn/pizza-storefront/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// SessionView is the session as the render layer sees it
type SessionView struct {
	State     services.SessionState `json:"state" swaggertype:"string" example:"authenticated"`
	User      *models.User          `json:"user,omitempty"`
	LastError *models.APIError      `json:"lastError,omitempty"`
}

// RegisterForm is the signup form including the confirmation field
type RegisterForm struct {
	Username        string `json:"username" example:"alice"`
	Email           string `json:"email" example:"alice@example.com"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Phone           string `json:"phone" example:"+15551234567"`
	Address         string `json:"address" example:"1 Main Street"`
}

// SessionController handles login, signup and logout
type SessionController struct {
	session services.SessionService
}

// NewSessionController creates a new instance of SessionController
func NewSessionController(session services.SessionService) *SessionController {
	return &SessionController{session: session}
}

func (sc *SessionController) view() SessionView {
	v := SessionView{State: sc.session.State(), User: sc.session.User()}
	if err := sc.session.LastError(); err != nil {
		_, apiErr := mapError(err)
		v.LastError = &apiErr
	}
	return v
}

// GetSession godoc
// @Summary Current session
// @Description Get the session state, the signed-in user and the last authentication error
// @Tags session
// @Produce json
// @Success 200 {object} SessionView
// @Router /api/v1/session [get]
func (sc *SessionController) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, sc.view())
}

// Login godoc
// @Summary Log in
// @Description Exchange email and password for a session
// @Tags session
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Credentials"
// @Success 200 {object} SessionView
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Router /api/v1/session/login [post]
func (sc *SessionController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if _, err := sc.session.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc.view())
}

// Register godoc
// @Summary Sign up
// @Description Create an account and start a session
// @Tags session
// @Accept json
// @Produce json
// @Param form body RegisterForm true "Signup form"
// @Success 201 {object} SessionView
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Router /api/v1/session/register [post]
func (sc *SessionController) Register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	req := models.RegisterRequest{
		Username:        form.Username,
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
		Phone:           form.Phone,
		Address:         form.Address,
	}
	if _, err := sc.session.Register(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sc.view())
}

// Logout godoc
// @Summary Log out
// @Description End the session and forget the stored token
// @Tags session
// @Produce json
// @Success 200 {object} SessionView
// @Router /api/v1/session/logout [post]
func (sc *SessionController) Logout(c *gin.Context) {
	// the session is anonymous even when the stored token could not be removed
	if err := sc.session.Logout(c.Request.Context()); err != nil {
		log.WithError(err).Warn("Logged out but the stored token is still on disk")
	}
	c.JSON(http.StatusOK, sc.view())
}
