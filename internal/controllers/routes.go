package controllers

import (
	"github.com/franciscosanchezn/pizza-storefront/internal/middleware"
	"github.com/franciscosanchezn/pizza-storefront/internal/services"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the storefront API under /api/v1
func RegisterRoutes(router gin.IRouter, sf *services.Storefront) {
	session := NewSessionController(sf.Session)
	menu := NewMenuController(sf.Menu)
	builder := NewBuilderController(sf.Selection)
	cart := NewCartController(sf.Cart)
	orders := NewOrderController(sf.Orders)
	notifications := NewNotificationController(sf.Inbox)

	v1 := router.Group("/api/v1")
	{
		sessionApi := v1.Group("/session")
		{
			sessionApi.GET("", session.GetSession)
			sessionApi.POST("/login", session.Login)
			sessionApi.POST("/register", session.Register)
			sessionApi.POST("/logout", session.Logout)
		}

		v1.GET("/menu", menu.GetMenu)

		builderApi := v1.Group("/builder")
		{
			builderApi.GET("", builder.GetBuilder)
			builderApi.POST("/crust", builder.SelectCrust)
			builderApi.POST("/sauces/:id", builder.ToggleSauce)
			builderApi.POST("/toppings/:id", builder.ToggleTopping)
			builderApi.POST("/next", builder.Next)
			builderApi.POST("/back", builder.Back)
			builderApi.POST("/validate", builder.Validate)
			builderApi.POST("/commit", builder.Commit)
			builderApi.DELETE("", builder.Reset)
		}

		// cart writes answer anonymous callers themselves so the login prompt is raised
		cartApi := v1.Group("/cart")
		{
			cartApi.GET("", cart.GetCart)
			cartApi.PUT("/:id", cart.UpdateQuantity)
			cartApi.DELETE("/:id", cart.RemovePizza)
			cartApi.DELETE("", cart.ClearCart)
			cartApi.POST("/login-prompt/dismiss", cart.DismissLoginPrompt)
		}

		protectedApi := v1.Group("")
		protectedApi.Use(middleware.RequireSession(sf.Session))
		{
			protectedApi.GET("/orders", orders.GetOrders)
			protectedApi.POST("/checkout", orders.Checkout)
		}

		v1.GET("/notifications", notifications.GetNotifications)
	}
}
