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
	"github.com/qctrack/qctrack-backend/internal/qc/domain"
	"github.com/qctrack/qctrack-backend/internal/qc/service"
)

// DiscrepancyImporter bulk-loads discrepancies from CSV.
type DiscrepancyImporter interface {
	Discrepancies(ctx context.Context, projectID int64, r io.Reader) (int64, error)
}

type Handler struct {
	Discrepancies  *service.DiscrepancyService
	Clarifications *service.ClarificationService
	Importer       DiscrepancyImporter
	UploadMaxBytes int64
}

// Register mounts /Discrepancies and /Clarifications under api.
func (h *Handler) Register(api *gin.RouterGroup, require auth.RequireFunc) {
	d := api.Group("/Discrepancies")
	crud.Mount(d, require, rbac.ModuleDiscrepancies,
		crud.List(discrepancyFilter, h.Discrepancies.List),
		crud.Service[domain.Discrepancy, domain.DiscrepancyInput](h.Discrepancies))
	d.PUT("/:id/Status", require(rbac.ModuleDiscrepancies, rbac.ActionEdit), h.changeStatus)
	d.POST("/:id/Attachment", require(rbac.ModuleDiscrepancies, rbac.ActionEdit), h.uploadAttachment)
	d.GET("/:id/Attachment", require(rbac.ModuleDiscrepancies, rbac.ActionView), h.getAttachment)
	d.POST("/Import/:projectId", require(rbac.ModuleDiscrepancies, rbac.ActionAdd), h.importDiscrepancies)

	c := api.Group("/Clarifications")
	crud.Mount(c, require, rbac.ModuleClarifications,
		crud.List(clarificationFilter, h.Clarifications.List),
		crud.Service[domain.Clarification, domain.ClarificationInput](h.Clarifications))
	c.POST("/:id/Respond", require(rbac.ModuleClarifications, rbac.ActionEdit), h.respond)
	c.PUT("/:id/Close", require(rbac.ModuleClarifications, rbac.ActionEdit), h.clarificationAction(h.Clarifications.Close))
	c.PUT("/:id/Reopen", require(rbac.ModuleClarifications, rbac.ActionEdit), h.clarificationAction(h.Clarifications.Reopen))
}

func discrepancyFilter(c *gin.Context) (domain.DiscrepancyFilter, error) {
	f := domain.DiscrepancyFilter{
		IncludeInactive: request.IncludeInactive(c),
		Status:          request.OptionalString(c, "status"),
	}
	ids := []struct {
		name string
		dst  **int64
	}{
		{"projectId", &f.ProjectID},
		{"projectActivityId", &f.ProjectActivityID},
		{"errorCategoryId", &f.ErrorCategoryID},
		{"responsibleId", &f.ResponsibleID},
	}
	for _, id := range ids {
		v, err := request.OptionalInt64(c, id.name)
		if err != nil {
			return domain.DiscrepancyFilter{}, err
		}
		*id.dst = v
	}
	return f, nil
}

func clarificationFilter(c *gin.Context) (domain.ClarificationFilter, error) {
	projectID, err := request.OptionalInt64(c, "projectId")
	if err != nil {
		return domain.ClarificationFilter{}, err
	}
	return domain.ClarificationFilter{
		IncludeInactive: request.IncludeInactive(c),
		ProjectID:       projectID,
		Status:          request.OptionalString(c, "status"),
	}, nil
}

func (h *Handler) changeStatus(c *gin.Context) {
	id, err := request.ParamID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var body domain.DiscrepancyStatusChange
	if err := request.BindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}
	d, err := h.Discrepancies.ChangeStatus(c.Request.Context(), id, body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, d)
}

func (h *Handler) uploadAttachment(c *gin.Context) {
	id, err := request.ParamID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	f, fh, err := request.FormFile(c, "file", h.UploadMaxBytes)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer f.Close()

	d, err := h.Discrepancies.Attach(c.Request.Context(), id, service.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, d)
}

func (h *Handler) getAttachment(c *gin.Context) {
	id, err := request.ParamID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	a, err := h.Discrepancies.Attachment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, a)
}

func (h *Handler) importDiscrepancies(c *gin.Context) {
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

	n, err := h.Importer.Discrepancies(c.Request.Context(), projectID, f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"imported": n})
}

func (h *Handler) respond(c *gin.Context) {
	id, err := request.ParamID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var body domain.ClarificationResponse
	if err := request.BindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}
	cl, err := h.Clarifications.Respond(c.Request.Context(), id, body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, cl)
}

func (h *Handler) clarificationAction(action func(context.Context, int64) (*domain.Clarification, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := request.ParamID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}
		cl, err := action(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, cl)
	}
}
