package leave

import (
	"hrcore/internal/middleware"
	"hrcore/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service, rdb *redis.Client) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware(), middleware.RequirePasswordChanged())
	{
		leaves.POST("",
			rbac.Authorize(rbacService, "leave", "create"),
			middleware.Idempotency(rdb),
			handler.Submit,
		)
		leaves.GET("", rbac.Authorize(rbacService, "leave", "read"), handler.GetAll)
		leaves.GET("/balances", rbac.Authorize(rbacService, "leave", "read"), handler.GetBalances)
		leaves.POST("/:id/decision", rbac.Authorize(rbacService, "leave", "decide"), handler.Decide)
	}
}
