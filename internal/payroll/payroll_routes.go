package payroll

import (
	"hrcore/internal/middleware"
	"hrcore/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	templates := r.Group("/salary-templates")
	templates.Use(middleware.AuthMiddleware(), middleware.RequirePasswordChanged())
	{
		templates.POST("/:employeeId", rbac.Authorize(rbacService, "salary_template", "write"), handler.CreateTemplate)
		templates.PUT("/:employeeId", rbac.Authorize(rbacService, "salary_template", "write"), handler.UpdateTemplate)
		templates.GET("/:employeeId", rbac.Authorize(rbacService, "salary_template", "read"), handler.GetTemplate)
	}

	payslips := r.Group("/payslips")
	payslips.Use(middleware.AuthMiddleware(), middleware.RequirePasswordChanged())
	{
		payslips.GET("/:employeeId", rbac.Authorize(rbacService, "payslip", "read"), handler.GetPayslip)
		payslips.GET("/:employeeId/pdf", rbac.Authorize(rbacService, "payslip", "read"), handler.GetPayslipPDF)
	}
}
