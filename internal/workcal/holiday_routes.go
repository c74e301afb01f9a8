package workcal

import (
	"hrcore/internal/middleware"
	"hrcore/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *HolidayHandler, rbacService rbac.Service) {
	holidays := r.Group("/holidays")
	holidays.Use(middleware.AuthMiddleware(), middleware.RequirePasswordChanged())
	{
		holidays.GET("", rbac.Authorize(rbacService, "holiday", "read"), handler.GetAll)
		holidays.POST("", rbac.Authorize(rbacService, "holiday", "write"), handler.Create)
		holidays.DELETE("/:id", rbac.Authorize(rbacService, "holiday", "write"), handler.Delete)
	}
}
