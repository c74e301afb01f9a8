package auth

import (
	"hrcore/internal/middleware"
	"hrcore/internal/rbac"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", middleware.RateLimitByIP(rate.Limit(1), 5), handler.Login)
		authGroup.POST("/refresh", middleware.RateLimitByIP(rate.Limit(1), 5), handler.Refresh)

		// Reachable by restricted first-login sessions on purpose.
		authGroup.POST("/change-password", middleware.AuthMiddleware(), handler.ChangePassword)

		authGroup.GET("/me", middleware.AuthMiddleware(), middleware.RequirePasswordChanged(), handler.GetMe)
		authGroup.POST("/register",
			middleware.AuthMiddleware(),
			middleware.RequirePasswordChanged(),
			rbac.Authorize(rbacService, "account", "register"),
			handler.Register,
		)
	}
}
