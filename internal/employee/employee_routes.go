package employee

import (
	"hrcore/internal/middleware"
	"hrcore/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	employees := r.Group("/employees")
	employees.Use(middleware.AuthMiddleware(), middleware.RequirePasswordChanged())
	{
		employees.GET("", rbac.Authorize(rbacService, "employee", "read"), handler.GetAll)
		employees.GET("/options", rbac.Authorize(rbacService, "employee", "read"), handler.GetOptions)
		employees.GET("/:id", rbac.Authorize(rbacService, "employee", "read"), handler.GetByID)
		employees.POST("", rbac.Authorize(rbacService, "employee", "create"), handler.Create)
		employees.PUT("/:id", rbac.Authorize(rbacService, "employee", "update"), handler.Update)
		employees.DELETE("/:id", rbac.Authorize(rbacService, "employee", "delete"), handler.Deactivate)
	}
}
