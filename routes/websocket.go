package routes

import (
	"courtside/courtside/middleware"
	"courtside/courtside/services"

	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes sets up WebSocket endpoints with authentication
func RegisterWebSocketRoutes(router *gin.Engine, authService services.AuthServiceInterface, wsService services.WebSocketServiceInterface) {
	wsGroup := router.Group("/api/v1/ws")
	wsGroup.Use(middleware.WebSocketAuthMiddleware(authService))
	{
		wsGroup.GET("", func(c *gin.Context) {
			wsService.HandleConnection(c)
		})
	}
}
