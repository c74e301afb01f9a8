package payroll

import (
	"net/http"

	"hrcore/internal/rbac"
	"hrcore/internal/shared/apperror"
	"hrcore/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("payroll.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payroll.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("payroll request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// payslipSubject resolves whose payslip the caller may see: admins pick any
// employee, everyone else only themselves.
func payslipSubject(c *gin.Context) (string, bool) {
	requested := c.Param("employeeId")
	own := c.GetString("employee_id")
	if requested == "" || requested == "me" {
		return own, true
	}
	if c.GetString("role") == rbac.RoleAdmin || requested == own {
		return requested, true
	}
	return "", false
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	employeeID := c.Param("employeeId")

	var req SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, nil)
		return
	}

	resp, err := h.service.CreateTemplate(c.Request.Context(), employeeID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	employeeID := c.Param("employeeId")

	var req SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, nil)
		return
	}

	resp, err := h.service.UpdateTemplate(c.Request.Context(), employeeID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetTemplate(c *gin.Context) {
	resp, err := h.service.GetTemplate(c.Request.Context(), c.Param("employeeId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetPayslip(c *gin.Context) {
	employeeID, ok := payslipSubject(c)
	if !ok {
		httpErr := apperror.ToHTTP(apperror.ErrForbidden)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	resp, warning, err := h.service.GetPayslip(c.Request.Context(), employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if warning != "" {
		response.SuccessWithWarning(c, http.StatusOK, resp, warning)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetPayslipPDF(c *gin.Context) {
	employeeID, ok := payslipSubject(c)
	if !ok {
		httpErr := apperror.ToHTTP(apperror.ErrForbidden)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	pdfBytes, err := h.service.RenderPayslipPDF(c.Request.Context(), employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="payslip.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
