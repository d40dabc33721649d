package main

import (
	"github.com/gin-gonic/gin"

	"github.com/velichkin/securechannel/internal/handlers"
	"github.com/velichkin/securechannel/internal/middleware"
	"github.com/velichkin/securechannel/internal/session"
	"github.com/velichkin/securechannel/pkg/auth"
)

func APIEndpoints(r *gin.Engine, gateH *handlers.GateHandler, msgH *handlers.HTTPMessageHandler,
	wsH *handlers.WebSocketHandler, jwtMgr *auth.JWTManager, sessions session.Registry) {
	// Gate endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/gate", gateH.Gate)
		authGroup.POST("/logout", middleware.AuthMiddleware(jwtMgr, sessions), gateH.Logout)
	}

	// Message API
	api := r.Group("/api/v1", middleware.AuthMiddleware(jwtMgr, sessions))
	{
		api.GET("/messages", msgH.ListMessages)
		api.POST("/messages", msgH.SendMessage)
		api.PATCH("/messages/:id", msgH.EditMessage)
		api.POST("/messages/:id/withdraw", msgH.WithdrawMessage)
	}

	// Realtime feed
	r.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, sessions), wsH.HandleWebSocket)
}
