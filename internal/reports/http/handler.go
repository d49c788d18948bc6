package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/api/http/request"
	"github.com/qctrack/qctrack-backend/internal/api/http/response"
	"github.com/qctrack/qctrack-backend/internal/auth"
	"github.com/qctrack/qctrack-backend/internal/auth/rbac"
	"github.com/qctrack/qctrack-backend/internal/reports/service"
)

type Handler struct {
	svc *service.ReportService
}

func New(svc *service.ReportService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(api *gin.RouterGroup, require auth.RequireFunc) {
	g := api.Group("/Reports", require(rbac.ModuleReports, rbac.ActionView))
	g.GET("/ProjectSummary/:projectId", h.projectSummary)
	g.GET("/ErrorCategoryBreakdown", h.errorCategoryBreakdown)
	g.GET("/Trend/:projectId", h.trend)
}

func (h *Handler) projectSummary(c *gin.Context) {
	projectID, err := request.ParamID(c, "projectId")
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.svc.ProjectSummary(c.Request.Context(), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, out)
}

func (h *Handler) errorCategoryBreakdown(c *gin.Context) {
	projectID, err := request.OptionalInt64(c, "projectId")
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.svc.ErrorCategoryBreakdown(c.Request.Context(), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, out)
}

func (h *Handler) trend(c *gin.Context) {
	projectID, err := request.ParamID(c, "projectId")
	if err != nil {
		response.Error(c, err)
		return
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		if days, err = strconv.Atoi(raw); err != nil {
			response.Error(c, errs.Invalid("invalid days"))
			return
		}
	}
	out, err := h.svc.Trend(c.Request.Context(), projectID, days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, out)
}
