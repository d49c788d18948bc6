package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/api/http/request"
	"github.com/qctrack/qctrack-backend/internal/api/http/response"
	"github.com/qctrack/qctrack-backend/internal/auth"
	"github.com/qctrack/qctrack-backend/internal/auth/rbac"
	"github.com/qctrack/qctrack-backend/internal/users/domain"
	"github.com/qctrack/qctrack-backend/internal/users/service"
)

type Handler struct {
	svc *service.UserService
}

func New(svc *service.UserService) *Handler {
	return &Handler{svc: svc}
}

// Register mounts /Users and /UserPermissions under api.
func (h *Handler) Register(api *gin.RouterGroup, require auth.RequireFunc) {
	users := api.Group("/Users")
	users.GET("/Me", h.me)
	users.GET("/GetAll", require(rbac.ModuleUsers, rbac.ActionView), h.list)
	users.GET("/:id", require(rbac.ModuleUsers, rbac.ActionView), h.get)
	users.POST("", require(rbac.ModuleUsers, rbac.ActionAdd), h.create)
	users.PUT("/:id", require(rbac.ModuleUsers, rbac.ActionEdit), h.update)
	users.DELETE("/:id", require(rbac.ModuleUsers, rbac.ActionDelete), h.delete)

	perms := api.Group("/UserPermissions")
	perms.GET("/GetByUser/:userId", require(rbac.ModuleUsers, rbac.ActionView), h.getPermissions)
	perms.PUT("/User/:userId", require(rbac.ModuleUsers, rbac.ActionEdit), h.replacePermissions)
}

func (h *Handler) me(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == 0 {
		response.Error(c, errs.ErrUnauthenticated)
		return
	}
	profile, err := h.svc.Me(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, profile)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), domain.UserFilter{
		IncludeInactive: request.IncludeInactive(c),
		Role:            request.OptionalString(c, "role"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, items)
}

func (h *Handler) get(c *gin.Context) {
	id, err := request.ParamID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, u)
}

func (h *Handler) create(c *gin.Context) {
	var in domain.UserInput
	if err := request.BindJSON(c, &in); err != nil {
		response.Error(c, err)
		return
	}
	u, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, u)
}

func (h *Handler) update(c *gin.Context) {
	id, err := request.ParamID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var in domain.UserInput
	if err := request.BindJSON(c, &in); err != nil {
		response.Error(c, err)
		return
	}
	u, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, u)
}

func (h *Handler) delete(c *gin.Context) {
	id, err := request.ParamID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *Handler) getPermissions(c *gin.Context) {
	userID, err := request.ParamID(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	perms, err := h.svc.GetPermissions(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, perms)
}

func (h *Handler) replacePermissions(c *gin.Context) {
	userID, err := request.ParamID(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var perms []rbac.Permission
	if err := request.BindJSON(c, &perms); err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.svc.ReplacePermissions(c.Request.Context(), userID, perms)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, out)
}
