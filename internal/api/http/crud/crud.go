// Package crud mounts the GetAll/{id}/POST/PUT/DELETE route set shared by
// every record type.
package crud

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qctrack/qctrack-backend/internal/api/http/request"
	"github.com/qctrack/qctrack-backend/internal/api/http/response"
	"github.com/qctrack/qctrack-backend/internal/auth"
	"github.com/qctrack/qctrack-backend/internal/auth/rbac"
)

// Service is the id-based half of a record service.
type Service[T, I any] interface {
	Get(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, in I) (*T, error)
	Update(ctx context.Context, id int64, in I) (*T, error)
	Delete(ctx context.Context, id int64) error
}

// Mount registers GetAll plus the id routes on rg, guarded by module.
func Mount[T, I any](rg *gin.RouterGroup, require auth.RequireFunc, module rbac.Module, list gin.HandlerFunc, svc Service[T, I]) {
	rg.GET("/GetAll", require(module, rbac.ActionView), list)
	rg.GET("/:id", require(module, rbac.ActionView), Get(svc))
	rg.POST("", require(module, rbac.ActionAdd), Create(svc))
	rg.PUT("/:id", require(module, rbac.ActionEdit), Update(svc))
	rg.DELETE("/:id", require(module, rbac.ActionDelete), Remove(svc))
}

func Get[T, I any](svc Service[T, I]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := request.ParamID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}
		item, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, item)
	}
}

func Create[T, I any](svc Service[T, I]) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in I
		if err := request.BindJSON(c, &in); err != nil {
			response.Error(c, err)
			return
		}
		item, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusCreated, item)
	}
}

func Update[T, I any](svc Service[T, I]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := request.ParamID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}
		var in I
		if err := request.BindJSON(c, &in); err != nil {
			response.Error(c, err)
			return
		}
		item, err := svc.Update(c.Request.Context(), id, in)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, item)
	}
}

// Remove soft-deletes the record named by :id.
func Remove[T, I any](svc Service[T, I]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := request.ParamID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, nil)
	}
}

// List runs a filtered query built by parse.
func List[T, F any](parse func(*gin.Context) (F, error), fetch func(context.Context, F) ([]T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := parse(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		items, err := fetch(c.Request.Context(), f)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, items)
	}
}
