package http

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/api/http/crud"
	"github.com/qctrack/qctrack-backend/internal/api/http/request"
	"github.com/qctrack/qctrack-backend/internal/api/http/response"
	"github.com/qctrack/qctrack-backend/internal/auth"
	"github.com/qctrack/qctrack-backend/internal/auth/rbac"
	"github.com/qctrack/qctrack-backend/internal/projects/domain"
	"github.com/qctrack/qctrack-backend/internal/projects/service"
)

// ActivityImporter bulk-loads activities from CSV.
type ActivityImporter interface {
	Activities(ctx context.Context, projectID int64, r io.Reader) (int64, error)
}

type Handler struct {
	Projects   *service.ProjectService
	Activities *service.ActivityService
	// Importer may be nil, in which case imports answer 503.
	Importer       ActivityImporter
	UploadMaxBytes int64
}

// Register mounts /Projects and /ProjectActivities under api.
func (h *Handler) Register(api *gin.RouterGroup, require auth.RequireFunc) {
	crud.Mount(api.Group("/Projects"), require, rbac.ModuleProjects,
		crud.List(projectFilter, h.Projects.List),
		crud.Service[domain.Project, domain.ProjectInput](h.Projects))

	activities := api.Group("/ProjectActivities")
	crud.Mount(activities, require, rbac.ModuleActivities,
		crud.List(activityFilter, h.Activities.List),
		crud.Service[domain.Activity, domain.ActivityInput](h.Activities))
	activities.GET("/GetByProject/:projectId", require(rbac.ModuleActivities, rbac.ActionView),
		crud.List(byProject, h.Activities.List))
	activities.PUT("/:id/Status", require(rbac.ModuleActivities, rbac.ActionEdit), h.changeStatus)
	activities.POST("/Import/:projectId", require(rbac.ModuleActivities, rbac.ActionAdd), h.importActivities)
}

func projectFilter(c *gin.Context) (domain.ProjectFilter, error) {
	divisionID, err := request.OptionalInt64(c, "divisionId")
	if err != nil {
		return domain.ProjectFilter{}, err
	}
	return domain.ProjectFilter{
		IncludeInactive: request.IncludeInactive(c),
		DivisionID:      divisionID,
		Status:          request.OptionalString(c, "status"),
		Search:          request.OptionalString(c, "search"),
	}, nil
}

func activityFilter(c *gin.Context) (domain.ActivityFilter, error) {
	projectID, err := request.OptionalInt64(c, "projectId")
	if err != nil {
		return domain.ActivityFilter{}, err
	}
	return domain.ActivityFilter{
		IncludeInactive: request.IncludeInactive(c),
		ProjectID:       projectID,
		Status:          request.OptionalString(c, "status"),
	}, nil
}

func byProject(c *gin.Context) (domain.ActivityFilter, error) {
	projectID, err := request.ParamID(c, "projectId")
	if err != nil {
		return domain.ActivityFilter{}, err
	}
	return domain.ActivityFilter{
		IncludeInactive: request.IncludeInactive(c),
		ProjectID:       &projectID,
	}, nil
}

func (h *Handler) changeStatus(c *gin.Context) {
	id, err := request.ParamID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var body domain.StatusChange
	if err := request.BindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}
	a, err := h.Activities.ChangeStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, a)
}

func (h *Handler) importActivities(c *gin.Context) {
	if h.Importer == nil {
		response.Error(c, errs.ErrUnavailable)
		return
	}
	projectID, err := request.ParamID(c, "projectId")
	if err != nil {
		response.Error(c, err)
		return
	}
	f, _, err := request.FormFile(c, "file", h.UploadMaxBytes)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer f.Close()

	n, err := h.Importer.Activities(c.Request.Context(), projectID, f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"imported": n})
}
