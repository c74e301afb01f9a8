package attendance

import (
	"hrcore/internal/middleware"
	"hrcore/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	attendances := r.Group("/attendance")
	attendances.Use(middleware.AuthMiddleware(), middleware.RequirePasswordChanged())
	{
		attendances.POST("/check-in", rbac.Authorize(rbacService, "attendance", "clock"), handler.ClockIn)
		attendances.POST("/check-out", rbac.Authorize(rbacService, "attendance", "clock"), handler.ClockOut)
		attendances.GET("", rbac.Authorize(rbacService, "attendance", "read"), handler.GetAll)
	}
}
