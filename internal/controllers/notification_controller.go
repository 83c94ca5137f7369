package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/pizza-storefront/internal/services"
	"github.com/gin-gonic/gin"
)

// NotificationController hands pending notifications to the render layer
type NotificationController struct {
	inbox *services.Inbox
}

// NewNotificationController creates a new instance of NotificationController
func NewNotificationController(inbox *services.Inbox) *NotificationController {
	return &NotificationController{inbox: inbox}
}

// GetNotifications godoc
// @Summary Pending notifications
// @Description Return and forget every notification raised since the last call
// @Tags notifications
// @Produce json
// @Success 200 {array} services.Notification
// @Router /api/v1/notifications [get]
func (nc *NotificationController) GetNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, nc.inbox.Drain())
}
