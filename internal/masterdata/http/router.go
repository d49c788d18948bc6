package http

import (
	"github.com/gin-gonic/gin"

	"github.com/qctrack/qctrack-backend/internal/api/http/crud"
	"github.com/qctrack/qctrack-backend/internal/api/http/request"
	"github.com/qctrack/qctrack-backend/internal/auth"
	"github.com/qctrack/qctrack-backend/internal/auth/rbac"
	"github.com/qctrack/qctrack-backend/internal/masterdata/domain"
	"github.com/qctrack/qctrack-backend/internal/masterdata/service"
)

// Handler bundles the master-data services.
type Handler struct {
	Divisions           *service.NamedService
	Products            *service.ProductService
	ErrorCategories     *service.NamedService
	ErrorSubCategories  *service.ErrorSubCategoryService
	DrawingDescriptions *service.DrawingDescriptionService
	ResourceRoles       *service.NamedService
	Resources           *service.ResourceService
}

// Register mounts every master-data resource under api.
func (h *Handler) Register(api *gin.RouterGroup, require auth.RequireFunc) {
	includeInactive := func(c *gin.Context) (bool, error) { return request.IncludeInactive(c), nil }

	crud.Mount(api.Group("/Divisions"), require, rbac.ModuleMasterData, crud.List(includeInactive, h.Divisions.List), crud.Service[domain.Named, domain.NamedInput](h.Divisions))
	crud.Mount(api.Group("/ErrorCategories"), require, rbac.ModuleMasterData, crud.List(includeInactive, h.ErrorCategories.List), crud.Service[domain.Named, domain.NamedInput](h.ErrorCategories))
	crud.Mount(api.Group("/ResourceRoles"), require, rbac.ModuleMasterData, crud.List(includeInactive, h.ResourceRoles.List), crud.Service[domain.Named, domain.NamedInput](h.ResourceRoles))

	crud.Mount(api.Group("/Products"), require, rbac.ModuleMasterData,
		crud.List(parentFilter("divisionId"), h.Products.List),
		crud.Service[domain.Product, domain.ProductInput](h.Products))

	subs := api.Group("/ErrorSubCategories")
	crud.Mount(subs, require, rbac.ModuleMasterData,
		crud.List(parentFilter("errorCategoryId"), h.ErrorSubCategories.List),
		crud.Service[domain.ErrorSubCategory, domain.ErrorSubCategoryInput](h.ErrorSubCategories))
	subs.GET("/GetByCategory/:categoryId", require(rbac.ModuleMasterData, rbac.ActionView),
		crud.List(byCategory, h.ErrorSubCategories.List))

	crud.Mount(api.Group("/DrawingDescriptions"), require, rbac.ModuleMasterData,
		crud.List(parentFilter("productId"), h.DrawingDescriptions.List),
		crud.Service[domain.DrawingDescription, domain.DrawingDescriptionInput](h.DrawingDescriptions))

	crud.Mount(api.Group("/Resources"), require, rbac.ModuleMasterData,
		crud.List(resourceFilter, h.Resources.List),
		crud.Service[domain.Resource, domain.ResourceInput](h.Resources))
}

func parentFilter(param string) func(*gin.Context) (domain.ListFilter, error) {
	return func(c *gin.Context) (domain.ListFilter, error) {
		parentID, err := request.OptionalInt64(c, param)
		if err != nil {
			return domain.ListFilter{}, err
		}
		return domain.ListFilter{IncludeInactive: request.IncludeInactive(c), ParentID: parentID}, nil
	}
}

func byCategory(c *gin.Context) (domain.ListFilter, error) {
	id, err := request.ParamID(c, "categoryId")
	if err != nil {
		return domain.ListFilter{}, err
	}
	return domain.ListFilter{IncludeInactive: request.IncludeInactive(c), ParentID: &id}, nil
}

func resourceFilter(c *gin.Context) (domain.ResourceFilter, error) {
	roleID, err := request.OptionalInt64(c, "resourceRoleId")
	if err != nil {
		return domain.ResourceFilter{}, err
	}
	divisionID, err := request.OptionalInt64(c, "divisionId")
	if err != nil {
		return domain.ResourceFilter{}, err
	}
	return domain.ResourceFilter{
		IncludeInactive: request.IncludeInactive(c),
		ResourceRoleID:  roleID,
		DivisionID:      divisionID,
	}, nil
}
