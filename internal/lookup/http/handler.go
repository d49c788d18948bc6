package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/api/http/request"
	"github.com/qctrack/qctrack-backend/internal/api/http/response"
	"github.com/qctrack/qctrack-backend/internal/lookup/domain"
	"github.com/qctrack/qctrack-backend/internal/lookup/service"
)

type Handler struct {
	svc *service.LookupService
}

func New(svc *service.LookupService) *Handler {
	return &Handler{svc: svc}
}

// Register attaches GET /{kind} to rg (mounted at /api/Lookups).
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/:kind", h.get)
}

func (h *Handler) get(c *gin.Context) {
	kind, ok := domain.ParseKind(c.Param("kind"))
	if !ok {
		response.Error(c, fmt.Errorf("lookup kind %q: %w", c.Param("kind"), errs.ErrNotFound))
		return
	}

	parentID, err := request.OptionalInt64(c, "parentId")
	if err != nil {
		response.Error(c, err)
		return
	}

	opts, err := h.svc.Options(c.Request.Context(), kind, parentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, opts)
}
